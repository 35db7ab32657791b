package image

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/property-listing-api/internal/domain"
	"go.uber.org/zap"
)

// DefaultMaxBytes caps a decoded upload when no limit is configured.
const DefaultMaxBytes = 4 << 20

var allowedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

type Service interface {
	// Upload decodes a data URI or bare base64 image and stores it with the
	// configured host, returning the public URL.
	Upload(ctx context.Context, imageData string) (string, error)
}

type uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

type service struct {
	host     uploader
	maxBytes int
	log      *zap.Logger
}

func NewService(host uploader, maxBytes int, log *zap.Logger) Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{host: host, maxBytes: maxBytes, log: log}
}

func (s *service) Upload(ctx context.Context, imageData string) (string, error) {
	if s.host == nil {
		return "", domain.Misconfigured("Image upload not configured")
	}
	data, err := Decode(imageData, s.maxBytes)
	if err != nil {
		return "", err
	}
	ct := http.DetectContentType(data)
	if !allowedTypes[ct] {
		return "", domain.Errorf(domain.ErrBadRequest, "Unsupported image type")
	}
	url, err := s.host.Upload(ctx, data, ct)
	if err != nil {
		return "", err
	}
	s.log.Info("image uploaded", zap.String("content_type", ct), zap.Int("bytes", len(data)))
	return url, nil
}

// Decode accepts "data:<mime>;base64,<payload>" or a bare base64 payload of
// at most maxBytes decoded bytes.
func Decode(imageData string, maxBytes int) ([]byte, error) {
	payload := strings.TrimSpace(imageData)
	if payload == "" {
		return nil, domain.Errorf(domain.ErrBadRequest, "imageData is required")
	}
	if strings.HasPrefix(payload, "data:") {
		i := strings.Index(payload, ",")
		if i < 0 || !strings.HasSuffix(payload[:i], ";base64") {
			return nil, domain.Errorf(domain.ErrBadRequest, "imageData must be a base64 data URI")
		}
		payload = payload[i+1:]
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxBytes+3 {
		return nil, tooLarge(maxBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, domain.Errorf(domain.ErrBadRequest, "imageData is not valid base64")
	}
	if len(data) > maxBytes {
		return nil, tooLarge(maxBytes)
	}
	return data, nil
}

func tooLarge(maxBytes int) error {
	return domain.Errorf(domain.ErrBadRequest, "Image exceeds the %d KB limit", maxBytes>>10)
}
