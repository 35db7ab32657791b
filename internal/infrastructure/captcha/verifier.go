// Package captcha verifies CAPTCHA response tokens against a siteverify endpoint.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/property-listing-api/internal/config"
	"github.com/property-listing-api/internal/domain"
)

type Verifier struct {
	secret    string
	verifyURL string
	http      *http.Client
}

func NewVerifier(cfg config.Captcha, timeout time.Duration) *Verifier {
	return &Verifier{secret: cfg.Secret, verifyURL: cfg.VerifyURL, http: &http.Client{Timeout: timeout}}
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify reports whether the response token is valid. A missing secret is a
// configuration error, never a pass.
func (v *Verifier) Verify(ctx context.Context, response, remoteIP string) (bool, error) {
	if v.secret == "" {
		return false, domain.Misconfigured("captcha verification is not configured")
	}
	form := url.Values{"secret": {v.secret}, "response": {response}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.http.Do(req)
	if err != nil {
		return false, domain.Upstream("captcha verification failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, domain.Upstream("captcha verification failed", fmt.Errorf("siteverify status %d", resp.StatusCode))
	}
	var out verifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return false, domain.Upstream("captcha verification failed", err)
	}
	return out.Success, nil
}
