package expiration

import (
	"context"
	"fmt"
	"time"

	"github.com/property-listing-api/internal/domain"
	"github.com/property-listing-api/internal/pkg/logger"
	"github.com/property-listing-api/internal/pkg/mailtmpl"
	"go.uber.org/zap"
)

const day = 24 * time.Hour

const dateLayout = "January 2, 2006"

// Result summarises one sweep. Errors holds per-record failures; a failed
// record never stops the sweep.
type Result struct {
	Checked int      `json:"checked"`
	Warned  int      `json:"warned"`
	Deleted int      `json:"deleted"`
	Errors  []string `json:"errors"`
}

type Service interface {
	Sweep(ctx context.Context) (Result, error)
}

type records interface {
	List(ctx context.Context, opts domain.ListOptions) ([]domain.Record, error)
	Update(ctx context.Context, recordID string, fields map[string]any) (*domain.Record, error)
	Delete(ctx context.Context, recordID string) error
}

type mailer interface {
	Send(ctx context.Context, email domain.Email) error
}

type service struct {
	records     records
	mailer      mailer
	expireAfter int
	warnBefore  int
	formURL     string
	now         func() time.Time
	log         *zap.Logger
}

type ServiceDeps struct {
	Records        records
	Mailer         mailer
	ExpirationDays int
	WarningDays    int
	FormURL        string
	Log            *zap.Logger
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		records:     deps.Records,
		mailer:      deps.Mailer,
		expireAfter: deps.ExpirationDays,
		warnBefore:  deps.WarningDays,
		formURL:     deps.FormURL,
		now:         time.Now,
		log:         deps.Log,
	}
	if s.expireAfter <= 0 {
		s.expireAfter = 90
	}
	if s.warnBefore <= 0 {
		s.warnBefore = 14
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

var sweepFields = []string{
	domain.FieldContactEmail, domain.FieldAddress, domain.FieldTitle,
	domain.FieldPrice, domain.FieldPropertyID, domain.FieldWarningSent,
}

func (s *service) Sweep(ctx context.Context) (Result, error) {
	res := Result{Errors: []string{}}
	recs, err := s.records.List(ctx, domain.ListOptions{Fields: sweepFields})
	if err != nil {
		return res, err
	}
	now := s.now().UTC()
	for i := range recs {
		r := &recs[i]
		res.Checked++
		// A listing with no creation time is never warned or expired.
		if r.CreatedAt.IsZero() {
			s.log.Warn("listing has no creation time, skipped", zap.String("record_id", r.ID))
			res.Errors = append(res.Errors, fmt.Sprintf("%s: missing creation time", r.ID))
			continue
		}
		age := int(now.Sub(r.CreatedAt) / day)
		left := s.expireAfter - age

		switch {
		case age >= s.expireAfter:
			if err := s.expire(ctx, r, age, now); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", r.ID, err))
				continue
			}
			res.Deleted++
		case left <= s.warnBefore && !r.Bool(domain.FieldWarningSent):
			if err := s.warn(ctx, r, left, now); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", r.ID, err))
				continue
			}
			res.Warned++
		}
	}
	s.log.Info("expiration sweep finished",
		zap.Int("checked", res.Checked),
		zap.Int("warned", res.Warned),
		zap.Int("deleted", res.Deleted),
		zap.Int("errors", len(res.Errors)))
	return res, nil
}

// expire notifies the contact, then deletes. A failed email does not keep an
// expired listing alive.
func (s *service) expire(ctx context.Context, r *domain.Record, age int, now time.Time) error {
	if contact := r.String(domain.FieldContactEmail); contact != "" && s.mailer != nil {
		html, err := mailtmpl.RenderListingExpired(s.lifecycle(r, now, age, 0))
		if err == nil {
			err = s.mailer.Send(ctx, domain.Email{To: []string{contact}, Subject: "Your Property Listing Has Expired", HTML: html})
		}
		if err != nil {
			s.log.Warn("expiry notice failed", zap.String("record_id", r.ID), zap.String("email", logger.MaskEmail(contact)), zap.Error(err))
		}
	}
	return s.records.Delete(ctx, r.ID)
}

// warn emails the contact and flags the record so the warning goes out once.
func (s *service) warn(ctx context.Context, r *domain.Record, left int, now time.Time) error {
	contact := r.String(domain.FieldContactEmail)
	if contact == "" {
		return nil
	}
	if s.mailer == nil {
		return domain.Misconfigured("Email service not configured")
	}
	html, err := mailtmpl.RenderListingExpiring(s.lifecycle(r, now, 0, left))
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Your Property Listing Expires in %d Days", left)
	if err := s.mailer.Send(ctx, domain.Email{To: []string{contact}, Subject: subject, HTML: html}); err != nil {
		return err
	}
	_, err = s.records.Update(ctx, r.ID, map[string]any{domain.FieldWarningSent: true})
	return err
}

func (s *service) lifecycle(r *domain.Record, now time.Time, age, left int) mailtmpl.ListingLifecycle {
	address := r.String(domain.FieldAddress)
	if address == "" {
		address = r.String(domain.FieldTitle)
	}
	return mailtmpl.ListingLifecycle{
		Address:    address,
		Price:      mailtmpl.FormatPrice(r.Fields[domain.FieldPrice]),
		PropertyID: r.String(domain.FieldPropertyID),
		Listed:     r.CreatedAt.Format(dateLayout),
		Expires:    r.CreatedAt.Add(time.Duration(s.expireAfter) * day).Format(dateLayout),
		Today:      now.Format(dateLayout),
		Days:       age,
		DaysLeft:   left,
		FormURL:    s.formURL,
	}
}
