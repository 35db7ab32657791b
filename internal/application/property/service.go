package property

import (
	"context"
	"errors"
	"strings"

	"github.com/property-listing-api/internal/domain"
	"github.com/property-listing-api/internal/pkg/logger"
	"go.uber.org/zap"
)

// DefaultMaxRecords caps catalog listings.
const DefaultMaxRecords = 100

type Service interface {
	List(ctx context.Context) ([]domain.Record, error)
	Get(ctx context.Context, recordID string) (*domain.Record, error)
	Create(ctx context.Context, fields map[string]any) (*domain.Record, error)
	Update(ctx context.Context, recordID string, fields map[string]any) (*domain.Record, error)
	UpdateStatus(ctx context.Context, recordID, status string) (*domain.Record, error)
	// Delete removes a record without ownership checks. Admin only.
	Delete(ctx context.Context, recordID string) error
	// DeleteVerified redeems req and deletes req.PropertyID when its stored
	// contact email matches the verified email. Each call counts against the
	// token's redeem limit.
	DeleteVerified(ctx context.Context, req domain.RedeemRequest, clientIP string) error
	// ContactEmail redeems req and discloses the stored contact email under
	// the same ownership rule as DeleteVerified.
	ContactEmail(ctx context.Context, req domain.RedeemRequest, clientIP string) (string, error)
}

// Records is the record-store table holding properties.
type Records interface {
	Get(ctx context.Context, recordID string) (*domain.Record, error)
	List(ctx context.Context, opts domain.ListOptions) ([]domain.Record, error)
	Create(ctx context.Context, fields map[string]any) (*domain.Record, error)
	Update(ctx context.Context, recordID string, fields map[string]any) (*domain.Record, error)
	Delete(ctx context.Context, recordID string) error
}

type verifier interface {
	Redeem(ctx context.Context, req domain.RedeemRequest, clientIP string) error
}

type dispatcher interface {
	ListingCreated(ctx context.Context, ev domain.ListingEvent) error
}

type service struct {
	records    Records
	verifier   verifier
	events     dispatcher
	maxRecords int
	log        *zap.Logger
}

type ServiceDeps struct {
	Records    Records
	Verifier   verifier
	Events     dispatcher
	MaxRecords int
	Log        *zap.Logger
}

func NewService(deps ServiceDeps) Service {
	limit := deps.MaxRecords
	if limit <= 0 {
		limit = DefaultMaxRecords
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		records:    deps.Records,
		verifier:   deps.Verifier,
		events:     deps.Events,
		maxRecords: limit,
		log:        log,
	}
}

func (s *service) List(ctx context.Context) ([]domain.Record, error) {
	recs, err := s.records.List(ctx, domain.ListOptions{MaxRecords: s.maxRecords, Fields: domain.PublicFields})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Record, 0, len(recs))
	for i := range recs {
		out = append(out, *domain.PublicView(&recs[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, recordID string) (*domain.Record, error) {
	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return domain.PublicView(rec), nil
}

func (s *service) Create(ctx context.Context, fields map[string]any) (*domain.Record, error) {
	clean, err := Sanitize(fields, true)
	if err != nil {
		return nil, err
	}
	rec, err := s.records.Create(ctx, clean)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		// Fan-out is best effort and must not fail the create.
		if err := s.events.ListingCreated(context.WithoutCancel(ctx), domain.NewListingEvent(rec)); err != nil {
			s.log.Warn("listing fan-out dispatch failed", zap.String("record_id", rec.ID), zap.Error(err))
		}
	}
	return domain.PublicView(rec), nil
}

func (s *service) Update(ctx context.Context, recordID string, fields map[string]any) (*domain.Record, error) {
	clean, err := Sanitize(fields, false)
	if err != nil {
		return nil, err
	}
	// Ownership is bound to the contact email; it is fixed after create.
	delete(clean, domain.FieldContactEmail)
	if len(clean) == 0 {
		return nil, domain.Errorf(domain.ErrBadRequest, "No updatable fields provided")
	}
	rec, err := s.records.Update(ctx, recordID, clean)
	if err != nil {
		return nil, err
	}
	return domain.PublicView(rec), nil
}

func (s *service) UpdateStatus(ctx context.Context, recordID, status string) (*domain.Record, error) {
	status = strings.TrimSpace(status)
	if !domain.ValidStatus(status) {
		return nil, domain.Errorf(domain.ErrBadRequest, "Status must be one of %s, %s, %s",
			domain.StatusAvailable, domain.StatusSold, domain.StatusPending)
	}
	rec, err := s.records.Update(ctx, recordID, map[string]any{domain.FieldStatus: status})
	if err != nil {
		return nil, err
	}
	return domain.PublicView(rec), nil
}

func (s *service) Delete(ctx context.Context, recordID string) error {
	return s.records.Delete(ctx, recordID)
}

func (s *service) DeleteVerified(ctx context.Context, req domain.RedeemRequest, clientIP string) error {
	if _, err := s.owned(ctx, req, clientIP, "You are not authorized to delete this property"); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, req.PropertyID); err != nil {
		return err
	}
	s.log.Info("property deleted by owner",
		zap.String("record_id", req.PropertyID),
		zap.String("email", logger.MaskEmail(req.Email)))
	return nil
}

func (s *service) ContactEmail(ctx context.Context, req domain.RedeemRequest, clientIP string) (string, error) {
	rec, err := s.owned(ctx, req, clientIP, "You are not authorized to view this contact email")
	if err != nil {
		return "", err
	}
	return rec.String(domain.FieldContactEmail), nil
}

// owned redeems req, loads the record and requires its stored contact email
// to match the verified email.
func (s *service) owned(ctx context.Context, req domain.RedeemRequest, clientIP, denied string) (*domain.Record, error) {
	if err := s.verifier.Redeem(ctx, req, clientIP); err != nil {
		return nil, err
	}
	rec, err := s.records.Get(ctx, req.PropertyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Errorf(domain.ErrNotFound, "Property not found")
		}
		return nil, err
	}
	stored := strings.TrimSpace(rec.String(domain.FieldContactEmail))
	if stored == "" || !strings.EqualFold(stored, strings.TrimSpace(req.Email)) {
		s.log.Warn("ownership check failed",
			zap.String("record_id", req.PropertyID),
			zap.String("email", logger.MaskEmail(req.Email)))
		return nil, &domain.Error{Kind: domain.ErrForbidden, Message: denied}
	}
	return rec, nil
}
