// Package cloudinary uploads images through Cloudinary's signed upload API.
package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/property-listing-api/internal/config"
	"github.com/property-listing-api/internal/domain"
)

type Uploader struct {
	endpoint  string
	apiKey    string
	apiSecret string
	http      *http.Client
	now       func() time.Time
}

// NewUploader fails when any credential is missing; unsigned uploads are not supported.
func NewUploader(cfg config.Cloudinary, timeout time.Duration) (*Uploader, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, domain.Misconfigured("image host credentials are not configured")
	}
	return &Uploader{
		endpoint:  strings.TrimRight(cfg.BaseURL, "/") + "/" + url.PathEscape(cfg.CloudName) + "/image/upload",
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		http:      &http.Client{Timeout: timeout},
		now:       time.Now,
	}, nil
}

// Sign returns the hex SHA-1 of "timestamp=<ts><secret>".
func Sign(timestamp int64, secret string) string {
	sum := sha1.Sum([]byte("timestamp=" + strconv.FormatInt(timestamp, 10) + secret))
	return hex.EncodeToString(sum[:])
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends the image as a data URI and returns its HTTPS URL.
func (u *Uploader) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	ts := u.now().Unix()
	form := url.Values{}
	form.Set("file", "data:"+contentType+";base64,"+base64.StdEncoding.EncodeToString(data))
	form.Set("timestamp", strconv.FormatInt(ts, 10))
	form.Set("api_key", u.apiKey)
	form.Set("signature", Sign(ts, u.apiSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := u.http.Do(req)
	if err != nil {
		return "", domain.Upstream("image upload failed", err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil && resp.StatusCode < 300 {
		return "", domain.Upstream("image upload failed", err)
	}
	if resp.StatusCode >= 300 || out.SecureURL == "" {
		return "", domain.Upstream("image upload failed",
			fmt.Errorf("cloudinary status %d: %s", resp.StatusCode, out.Error.Message))
	}
	return out.SecureURL, nil
}
