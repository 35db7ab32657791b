package inquiry

import (
	"context"
	"strings"
	"time"

	"github.com/property-listing-api/internal/domain"
	"github.com/property-listing-api/internal/pkg/logger"
	"go.uber.org/zap"
)

type Service interface {
	Submit(ctx context.Context, req domain.InquiryRequest) (*domain.Record, error)
}

type records interface {
	Create(ctx context.Context, fields map[string]any) (*domain.Record, error)
}

type service struct {
	records records
	now     func() time.Time
	log     *zap.Logger
}

func NewService(r records, log *zap.Logger) Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &service{records: r, now: time.Now, log: log}
}

func (s *service) Submit(ctx context.Context, req domain.InquiryRequest) (*domain.Record, error) {
	fields := map[string]any{
		domain.FieldInquiryName:        strings.TrimSpace(req.Name),
		domain.FieldInquiryEmail:       strings.TrimSpace(req.Email),
		domain.FieldInquiryMessage:     strings.TrimSpace(req.Message),
		domain.FieldInquiryStatus:      domain.InquiryStatusNew,
		domain.FieldInquirySubmittedAt: s.now().UTC().Format(time.RFC3339),
	}
	optional := map[string]string{
		domain.FieldInquiryPhone:         req.Phone,
		domain.FieldInquiryPropertyID:    req.PropertyID,
		domain.FieldInquiryPropertyTitle: req.PropertyTitle,
	}
	for k, v := range optional {
		if v = strings.TrimSpace(v); v != "" {
			fields[k] = v
		}
	}
	rec, err := s.records.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	s.log.Info("inquiry submitted",
		zap.String("record_id", rec.ID),
		zap.String("property_id", req.PropertyID),
		zap.String("email", logger.MaskEmail(req.Email)))
	return rec, nil
}
