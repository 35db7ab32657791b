// Package token implements the stateless email-verification token: a
// base64-encoded, HMAC-signed bundle of email, subject id, one-time code and
// expiry deadline. Nothing about issued tokens is stored server-side.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const sep = "|"

var (
	ErrNoSecret      = errors.New("verification secret is not configured")
	ErrInvalidField  = errors.New("token field contains separator")
	ErrMalformed     = errors.New("malformed token")
	ErrBadSignature  = errors.New("token signature mismatch")
	ErrExpired       = errors.New("token expired")
	ErrFieldMismatch = errors.New("token does not match request")
)

// Codec issues and redeems verification tokens under a single secret.
type Codec struct {
	secret []byte
	now    func() time.Time
}

type Option func(*Codec)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec returns a codec bound to secret. An empty secret is rejected.
func NewCodec(secret string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	c := &Codec{secret: []byte(secret), now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Issue returns a token binding email, subjectID and code until now+ttl.
func (c *Codec) Issue(email, subjectID, code string, ttl time.Duration) (string, error) {
	if c == nil || len(c.secret) == 0 {
		return "", ErrNoSecret
	}
	for _, f := range []string{email, subjectID, code} {
		if strings.Contains(f, sep) {
			return "", ErrInvalidField
		}
	}
	exp := c.now().Add(ttl).UnixMilli()
	payload := strings.Join([]string{email, subjectID, code, strconv.FormatInt(exp, 10)}, sep)
	raw := payload + sep + c.sign(payload)
	return base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

// Redeem validates tok against the caller-supplied values. Checks run in a
// fixed order: shape, signature, expiry, then field match. Email compares
// case-insensitively; subject id and code compare exactly.
func (c *Codec) Redeem(tok, email, subjectID, code string) error {
	if c == nil || len(c.secret) == 0 {
		return ErrNoSecret
	}
	raw, err := base64.StdEncoding.DecodeString(tok)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	parts := strings.Split(string(raw), sep)
	if len(parts) != 5 {
		return ErrMalformed
	}

	payload := strings.Join(parts[:4], sep)
	if !hmac.Equal([]byte(c.sign(payload)), []byte(parts[4])) {
		return ErrBadSignature
	}

	exp, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: expiry: %v", ErrMalformed, err)
	}
	if c.now().UnixMilli() > exp {
		return ErrExpired
	}

	if !strings.EqualFold(parts[0], email) || parts[1] != subjectID || parts[2] != code {
		return ErrFieldMismatch
	}
	return nil
}

func (c *Codec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Prefix returns a short, log-safe prefix of a token.
func Prefix(tok string, n int) string {
	if len(tok) <= n {
		return tok
	}
	return tok[:n]
}
