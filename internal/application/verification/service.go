package verification

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/property-listing-api/internal/domain"
	"github.com/property-listing-api/internal/pkg/logger"
	"github.com/property-listing-api/internal/pkg/mailtmpl"
	"github.com/property-listing-api/internal/pkg/ratelimit"
	"github.com/property-listing-api/internal/pkg/token"
	"go.uber.org/zap"
)

// Rate-limit rules for the two-step flow.
var (
	RequestPerIP    = ratelimit.Rule{Bucket: "verify-request-ip", Max: 5, Window: 10 * time.Minute}
	RequestPerEmail = ratelimit.Rule{Bucket: "verify-request-email", Max: 3, Window: 10 * time.Minute}
	RedeemPerToken  = ratelimit.Rule{Bucket: "verify-redeem", Max: 5, Window: 10 * time.Minute}
)

// tokenKeyLen is how much of a token keys the redeem bucket and appears in logs.
const tokenKeyLen = 24

const (
	msgInvalidCode = "Invalid verification code"
	msgExpired     = "Verification code has expired. Please request a new one."
)

type Service interface {
	// RequestCode emails a fresh code to req.Email and returns the signed token
	// the client must echo back. The code itself is never returned.
	RequestCode(ctx context.Context, req domain.VerificationRequest, clientIP string) (string, error)
	// Redeem checks a code and token pair under the redeem rate limit.
	Redeem(ctx context.Context, req domain.RedeemRequest, clientIP string) error
	// Verify checks a code and token pair without touching rate limits.
	Verify(ctx context.Context, req domain.RedeemRequest) error
}

type mailer interface {
	Send(ctx context.Context, email domain.Email) error
}

type limiter interface {
	Apply(ctx context.Context, rule ratelimit.Rule, key string) ratelimit.Result
}

type codec interface {
	Issue(email, subjectID, code string, ttl time.Duration) (string, error)
	Redeem(tok, email, subjectID, code string) error
}

type service struct {
	codec   codec
	mailer  mailer
	limiter limiter
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger
}

// NewService wires the flow. A nil mailer makes RequestCode fail with a
// configuration error rather than leak the code some other way.
func NewService(c codec, m mailer, l limiter, ttl time.Duration, log *zap.Logger) Service {
	return &service{codec: c, mailer: m, limiter: l, ttl: ttl, now: time.Now, log: log}
}

func (s *service) RequestCode(ctx context.Context, req domain.VerificationRequest, clientIP string) (string, error) {
	if res := s.limiter.Apply(ctx, RequestPerIP, clientIP); res.Limited {
		return "", domain.TooManyRequests(res.RetryAfter(s.now()))
	}
	email := strings.TrimSpace(req.Email)
	if res := s.limiter.Apply(ctx, RequestPerEmail, strings.ToLower(email)); res.Limited {
		rl := domain.TooManyRequests(res.RetryAfter(s.now()))
		rl.Message = "Too many codes sent to this email. Please wait 10 minutes."
		return "", rl
	}
	if s.mailer == nil {
		s.log.Error("verification requested but email delivery is not configured")
		return "", domain.Misconfigured("Email service not configured")
	}

	code, err := token.NewCode()
	if err != nil {
		return "", err
	}
	tok, err := s.codec.Issue(email, req.PropertyID, code, s.ttl)
	switch {
	case errors.Is(err, token.ErrNoSecret):
		s.log.Error("verification secret missing at issuance")
		return "", domain.Misconfigured("Server configuration error")
	case errors.Is(err, token.ErrInvalidField):
		return "", domain.Errorf(domain.ErrBadRequest, "Email and property ID must not contain '|'")
	case err != nil:
		return "", err
	}

	html, err := mailtmpl.RenderVerificationCode(mailtmpl.VerificationCode{Code: code, TTLMinutes: int(s.ttl.Minutes())})
	if err != nil {
		return "", err
	}
	if err := s.mailer.Send(ctx, domain.Email{
		To:      []string{email},
		Subject: "Your Property Verification Code",
		HTML:    html,
	}); err != nil {
		return "", domain.Upstream("Failed to send verification email", err)
	}

	s.log.Info("verification code sent",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("property_id", req.PropertyID),
		zap.String("ip", clientIP))
	return tok, nil
}

func (s *service) Redeem(ctx context.Context, req domain.RedeemRequest, clientIP string) error {
	key := token.Prefix(req.Token, tokenKeyLen)
	if key == "" {
		key = clientIP
	}
	if res := s.limiter.Apply(ctx, RedeemPerToken, key); res.Limited {
		return domain.TooManyRequests(res.RetryAfter(s.now()))
	}
	return s.Verify(ctx, req)
}

func (s *service) Verify(_ context.Context, req domain.RedeemRequest) error {
	err := s.codec.Redeem(req.Token, strings.TrimSpace(req.Email), req.PropertyID, req.Code)
	if err == nil {
		return nil
	}
	fields := []zap.Field{
		zap.String("token_prefix", token.Prefix(req.Token, tokenKeyLen)),
		zap.String("property_id", req.PropertyID),
		zap.Error(err),
	}
	switch {
	case errors.Is(err, token.ErrNoSecret):
		s.log.Error("verification secret missing at redemption")
		return domain.Misconfigured("Server configuration error")
	case errors.Is(err, token.ErrExpired):
		s.log.Info("verification token expired", fields...)
		return &domain.Error{Kind: domain.ErrUnauthorized, Message: msgExpired, Cause: err}
	default:
		// Malformed, tampered and mismatched tokens look the same to the client.
		s.log.Warn("verification token rejected", fields...)
		return &domain.Error{Kind: domain.ErrUnauthorized, Message: msgInvalidCode, Cause: err}
	}
}
