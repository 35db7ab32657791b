package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/property-listing-api/internal/domain"
	"github.com/property-listing-api/internal/pkg/mailtmpl"
	"go.uber.org/zap"
)

// BatchSize is the maximum number of BCC recipients per message.
const BatchSize = 50

// DigestResult summarises one digest run.
type DigestResult struct {
	Listings   int `json:"listings"`
	Recipients int `json:"recipients"`
}

type Service interface {
	// NotifyListing emails every subscriber about a new listing and publishes
	// the event to the listing topic when one is configured.
	NotifyListing(ctx context.Context, ev domain.ListingEvent) (int, error)
	// SendDigest emails subscribers the listings created within the digest window.
	SendDigest(ctx context.Context) (DigestResult, error)
}

type subscribers interface {
	Subscribed(ctx context.Context) ([]string, error)
}

type properties interface {
	List(ctx context.Context, opts domain.ListOptions) ([]domain.Record, error)
}

type mailer interface {
	Send(ctx context.Context, email domain.Email) error
}

type publisher interface {
	PublishListing(ctx context.Context, ev domain.ListingEvent) error
}

type service struct {
	subscribers  subscribers
	properties   properties
	mailer       mailer
	publisher    publisher
	siteURL      string
	digestWindow time.Duration
	now          func() time.Time
	log          *zap.Logger
}

type ServiceDeps struct {
	Subscribers  subscribers
	Properties   properties
	Mailer       mailer
	Publisher    publisher // optional
	SiteURL      string
	DigestWindow time.Duration
	Log          *zap.Logger
}

func NewService(deps ServiceDeps) Service {
	window := deps.DigestWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		subscribers:  deps.Subscribers,
		properties:   deps.Properties,
		mailer:       deps.Mailer,
		publisher:    deps.Publisher,
		siteURL:      deps.SiteURL,
		digestWindow: window,
		now:          time.Now,
		log:          log,
	}
}

func (s *service) NotifyListing(ctx context.Context, ev domain.ListingEvent) (int, error) {
	var errs []error
	if s.publisher != nil {
		if err := s.publisher.PublishListing(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("publish listing event: %w", err))
		}
	}
	if s.mailer == nil {
		s.log.Warn("listing notification skipped, email not configured", zap.String("record_id", ev.RecordID))
		return 0, errors.Join(errs...)
	}
	to, err := s.subscribers.Subscribed(ctx)
	if err != nil {
		return 0, errors.Join(append(errs, err)...)
	}
	if len(to) == 0 {
		return 0, errors.Join(errs...)
	}
	html, err := mailtmpl.RenderNewListing(mailtmpl.NewListing{
		Title:       ev.Title,
		Location:    ev.Location,
		Description: ev.Description,
		ImageURL:    ev.ImageURL,
		SiteURL:     s.siteURL,
	})
	if err != nil {
		return 0, errors.Join(append(errs, err)...)
	}
	sent, err := s.sendBatches(ctx, to, "New Property Listed: "+ev.Title, html)
	if err != nil {
		errs = append(errs, err)
	}
	s.log.Info("listing notification sent",
		zap.String("record_id", ev.RecordID),
		zap.Int("recipients", sent))
	return sent, errors.Join(errs...)
}

func (s *service) SendDigest(ctx context.Context) (DigestResult, error) {
	if s.mailer == nil {
		return DigestResult{}, domain.Misconfigured("Email service not configured")
	}
	recs, err := s.properties.List(ctx, domain.ListOptions{
		Fields:       domain.PublicFields,
		CreatedAfter: s.now().Add(-s.digestWindow),
	})
	if err != nil {
		return DigestResult{}, err
	}
	if len(recs) == 0 {
		s.log.Info("daily digest skipped, no new listings")
		return DigestResult{}, nil
	}
	to, err := s.subscribers.Subscribed(ctx)
	if err != nil {
		return DigestResult{}, err
	}
	res := DigestResult{Listings: len(recs)}
	if len(to) == 0 {
		return res, nil
	}

	items := make([]mailtmpl.DigestItem, 0, len(recs))
	for i := range recs {
		r := &recs[i]
		items = append(items, mailtmpl.DigestItem{
			Title:       r.String(domain.FieldTitle),
			Location:    r.String(domain.FieldLocation),
			Price:       mailtmpl.FormatPrice(r.Fields[domain.FieldPrice]),
			Description: r.String(domain.FieldDescription),
			ImageURL:    domain.ImageURL(r),
		})
	}
	html, err := mailtmpl.RenderDigest(mailtmpl.Digest{Listings: items, SiteURL: s.siteURL})
	if err != nil {
		return res, err
	}
	subject := fmt.Sprintf("Daily Property Digest: %d new listing", len(recs))
	if len(recs) != 1 {
		subject += "s"
	}
	res.Recipients, err = s.sendBatches(ctx, to, subject, html)
	s.log.Info("daily digest sent", zap.Int("listings", res.Listings), zap.Int("recipients", res.Recipients))
	return res, err
}

// sendBatches mails html to recipients in BCC groups of BatchSize. A failed
// batch does not stop the rest; the count covers delivered batches only.
func (s *service) sendBatches(ctx context.Context, to []string, subject, html string) (int, error) {
	var (
		sent int
		errs []error
	)
	for start := 0; start < len(to); start += BatchSize {
		end := min(start+BatchSize, len(to))
		batch := to[start:end]
		if err := s.mailer.Send(ctx, domain.Email{Bcc: batch, Subject: subject, HTML: html}); err != nil {
			s.log.Error("bcc batch failed", zap.Int("batch_start", start), zap.Int("size", len(batch)), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		sent += len(batch)
	}
	return sent, errors.Join(errs...)
}
