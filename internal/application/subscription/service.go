package subscription

import (
	"context"
	"strings"

	"github.com/property-listing-api/internal/domain"
	"github.com/property-listing-api/internal/pkg/logger"
	"go.uber.org/zap"
)

// Outcome messages returned to the client.
const (
	MsgSubscribed        = "Subscribed successfully"
	MsgAlreadySubscribed = "Already subscribed"
)

type Service interface {
	// Subscribe verifies the CAPTCHA and records the address. It returns the
	// message to show and whether a new record was created.
	Subscribe(ctx context.Context, req domain.SubscribeRequest, clientIP string) (string, bool, error)
	// Subscribed lists every opted-in address, lowercased and de-duplicated.
	Subscribed(ctx context.Context) ([]string, error)
}

type records interface {
	List(ctx context.Context, opts domain.ListOptions) ([]domain.Record, error)
	Create(ctx context.Context, fields map[string]any) (*domain.Record, error)
}

type captcha interface {
	Verify(ctx context.Context, response, remoteIP string) (bool, error)
}

type service struct {
	records records
	captcha captcha
	log     *zap.Logger
}

func NewService(r records, c captcha, log *zap.Logger) Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &service{records: r, captcha: c, log: log}
}

func (s *service) Subscribe(ctx context.Context, req domain.SubscribeRequest, clientIP string) (string, bool, error) {
	if s.captcha == nil {
		return "", false, domain.Misconfigured("CAPTCHA verification not configured")
	}
	ok, err := s.captcha.Verify(ctx, req.CaptchaToken, clientIP)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, domain.Errorf(domain.ErrBadRequest, "CAPTCHA verification failed")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.records.List(ctx, domain.ListOptions{
		MaxRecords: 1,
		Fields:     []string{domain.FieldSubscriberEmail},
		Equal:      map[string]any{domain.FieldSubscriberEmail: email},
	})
	if err != nil {
		return "", false, err
	}
	if len(existing) > 0 {
		return MsgAlreadySubscribed, false, nil
	}
	if _, err := s.records.Create(ctx, map[string]any{
		domain.FieldSubscriberEmail: email,
		domain.FieldSubscribed:      true,
	}); err != nil {
		return "", false, err
	}
	s.log.Info("subscriber added", zap.String("email", logger.MaskEmail(email)))
	return MsgSubscribed, true, nil
}

func (s *service) Subscribed(ctx context.Context) ([]string, error) {
	recs, err := s.records.List(ctx, domain.ListOptions{
		Fields: []string{domain.FieldSubscriberEmail},
		Equal:  map[string]any{domain.FieldSubscribed: true},
	})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(recs))
	out := make([]string, 0, len(recs))
	for i := range recs {
		e := strings.ToLower(strings.TrimSpace(recs[i].String(domain.FieldSubscriberEmail)))
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out, nil
}
