package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/property-listing-api/internal/config"
	jwtinfra "github.com/property-listing-api/internal/infrastructure/jwt"
	"github.com/property-listing-api/internal/pkg/origin"
	"github.com/property-listing-api/internal/pkg/ratelimit"
	"github.com/property-listing-api/internal/transport/http/handler"
	appmiddleware "github.com/property-listing-api/internal/transport/http/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Per-IP fixed-window caps for the public write surface.
var (
	PropertyWriteRule  = ratelimit.Rule{Bucket: "property-write", Max: 20, Window: time.Hour}
	PropertyDeleteRule = ratelimit.Rule{Bucket: "property-delete", Max: 10, Window: time.Hour}
	ContactEmailRule   = ratelimit.Rule{Bucket: "contact-email", Max: 10, Window: 10 * time.Minute}
	SubscribeRule      = ratelimit.Rule{Bucket: "subscribe", Max: 5, Window: time.Hour}
	ImageUploadRule    = ratelimit.Rule{Bucket: "image-upload", Max: 20, Window: time.Hour}
	InquiryRule        = ratelimit.Rule{Bucket: "inquiry", Max: 5, Window: 10 * time.Minute}
)

// NewRouter builds and returns the application router. ctx bounds the
// background cleanup of the burst limiter.
func NewRouter(ctx context.Context, cfg *config.Config, svcs *Services, deps *Deps) http.Handler {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	guard := origin.NewGuard(cfg.CORS.AllowedOrigins, cfg.CORS.TrustedSuffixes)

	// 10 requests/second, burst of 30, per client IP across every route.
	burstRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(10), 30)

	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(log.Named("http")))
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.CORS(guard))
	r.Use(burstRL.Limit)
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.NotAllowed)

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = appmiddleware.Auth(nil)
	}
	limit := func(rule ratelimit.Rule) func(http.Handler) http.Handler {
		return appmiddleware.RateLimit(deps.Limiter, rule)
	}

	healthH := handler.NewHealthHandler()
	verifyH := handler.NewVerificationHandler(svcs.Verification, log)
	propertyH := handler.NewPropertyHandler(svcs.Properties, log)
	subscribeH := handler.NewSubscribeHandler(svcs.Subscriptions, log)
	inquiryH := handler.NewInquiryHandler(svcs.Inquiries, log)
	imageH := handler.NewImageHandler(svcs.Images, cfg.Images.MaxBytes, log)
	jobH := handler.NewJobHandler(svcs.Notifications, svcs.Expiration, log)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthH.Health)

		r.Post("/verification/request", verifyH.Request)
		r.Post("/verification/redeem", verifyH.Redeem)

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", propertyH.List)
			r.With(limit(PropertyWriteRule)).Post("/", propertyH.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", propertyH.Get)
				r.With(limit(PropertyWriteRule)).Put("/", propertyH.Update)
				r.With(limit(PropertyWriteRule)).Post("/status", propertyH.UpdateStatus)
				r.With(limit(PropertyDeleteRule)).Post("/delete", propertyH.DeleteVerified)
				r.With(limit(ContactEmailRule)).Get("/contact-email", propertyH.ContactEmail)
				r.With(authMw, appmiddleware.RequireRole(jwtinfra.RoleAdmin)).Delete("/", propertyH.AdminDelete)
			})
		})

		r.With(limit(SubscribeRule)).Post("/subscribe", subscribeH.Subscribe)
		r.With(limit(ImageUploadRule)).Post("/images", imageH.Upload)
		r.With(limit(InquiryRule)).Post("/inquiries", inquiryH.Submit)

		// Scheduled jobs
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Use(appmiddleware.RequireRole(jwtinfra.RoleScheduler, jwtinfra.RoleAdmin))

			r.Post("/jobs/daily-digest", jobH.DailyDigest)
			r.Post("/jobs/expire-properties", jobH.ExpireProperties)
		})
	})

	return r
}
