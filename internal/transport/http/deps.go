package http

import (
	"context"
	"time"

	"github.com/property-listing-api/internal/application/expiration"
	"github.com/property-listing-api/internal/application/image"
	"github.com/property-listing-api/internal/application/inquiry"
	"github.com/property-listing-api/internal/application/notification"
	"github.com/property-listing-api/internal/application/property"
	"github.com/property-listing-api/internal/application/subscription"
	"github.com/property-listing-api/internal/application/verification"
	"github.com/property-listing-api/internal/config"
	"github.com/property-listing-api/internal/domain"
	jwtinfra "github.com/property-listing-api/internal/infrastructure/jwt"
	"github.com/property-listing-api/internal/pkg/ratelimit"
	"github.com/property-listing-api/internal/pkg/token"
	"github.com/property-listing-api/internal/queue"
	"go.uber.org/zap"
)

// RecordStore is the minimal interface the router requires from a record-store table.
type RecordStore interface {
	Get(ctx context.Context, recordID string) (*domain.Record, error)
	List(ctx context.Context, opts domain.ListOptions) ([]domain.Record, error)
	Create(ctx context.Context, fields map[string]any) (*domain.Record, error)
	Update(ctx context.Context, recordID string, fields map[string]any) (*domain.Record, error)
	Delete(ctx context.Context, recordID string) error
}

type Mailer interface {
	Send(ctx context.Context, email domain.Email) error
}

type CaptchaVerifier interface {
	Verify(ctx context.Context, response, remoteIP string) (bool, error)
}

type ImageHost interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

type ListingPublisher interface {
	PublishListing(ctx context.Context, ev domain.ListingEvent) error
}

// EventDispatcher hands a new listing to the fan-out path.
type EventDispatcher interface {
	ListingCreated(ctx context.Context, ev domain.ListingEvent) error
}

// Deps holds all infrastructure dependencies for the router. Optional
// collaborators are left as nil interfaces, never as typed nil pointers.
type Deps struct {
	Properties  RecordStore
	Subscribers RecordStore
	Inquiries   RecordStore
	Codec       *token.Codec
	Limiter     *ratelimit.Limiter
	Mailer      Mailer           // optional
	Captcha     CaptchaVerifier  // optional
	ImageHost   ImageHost        // optional
	Publisher   ListingPublisher // optional
	Events      EventDispatcher  // optional; nil runs fan-out on goroutines
	JWTProvider *jwtinfra.Provider
	Log         *zap.Logger
}

// Services is the application layer built over Deps.
type Services struct {
	Verification  verification.Service
	Properties    property.Service
	Subscriptions subscription.Service
	Inquiries     inquiry.Service
	Images        image.Service
	Notifications notification.Service
	Expiration    expiration.Service
	// Fanout is set when Deps.Events is nil; callers Wait on it at shutdown.
	Fanout *queue.GoDispatcher
}

// NewServices builds every application service from deps.
func NewServices(cfg *config.Config, deps *Deps) *Services {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &Services{}
	s.Verification = verification.NewService(deps.Codec, deps.Mailer, deps.Limiter, cfg.Verification.TTL, log.Named("verification"))
	s.Subscriptions = subscription.NewService(deps.Subscribers, deps.Captcha, log.Named("subscription"))
	s.Notifications = notification.NewService(notification.ServiceDeps{
		Subscribers:  s.Subscriptions,
		Properties:   deps.Properties,
		Mailer:       deps.Mailer,
		Publisher:    deps.Publisher,
		SiteURL:      cfg.PublicSiteURL,
		DigestWindow: cfg.Listings.DigestWindow,
		Log:          log.Named("notification"),
	})

	events := deps.Events
	if events == nil {
		s.Fanout = queue.NewGoDispatcher(s.Notifications, 2*time.Minute, log.Named("fanout"))
		events = s.Fanout
	}
	s.Properties = property.NewService(property.ServiceDeps{
		Records:    deps.Properties,
		Verifier:   s.Verification,
		Events:     events,
		MaxRecords: cfg.Listings.MaxRecords,
		Log:        log.Named("property"),
	})
	s.Inquiries = inquiry.NewService(deps.Inquiries, log.Named("inquiry"))
	s.Images = image.NewService(deps.ImageHost, cfg.Images.MaxBytes, log.Named("image"))
	s.Expiration = expiration.NewService(expiration.ServiceDeps{
		Records:        deps.Properties,
		Mailer:         deps.Mailer,
		ExpirationDays: cfg.Listings.ExpirationDays,
		WarningDays:    cfg.Listings.WarningDays,
		FormURL:        cfg.ListingFormURL,
		Log:            log.Named("expiration"),
	})
	return s
}
