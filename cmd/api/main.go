package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/property-listing-api/internal/config"
	"github.com/property-listing-api/internal/infrastructure/awsconf"
	"github.com/property-listing-api/internal/infrastructure/captcha"
	"github.com/property-listing-api/internal/infrastructure/cloudinary"
	jwtinfra "github.com/property-listing-api/internal/infrastructure/jwt"
	"github.com/property-listing-api/internal/infrastructure/kms"
	"github.com/property-listing-api/internal/infrastructure/recordstore"
	redisinfra "github.com/property-listing-api/internal/infrastructure/redis"
	s3infra "github.com/property-listing-api/internal/infrastructure/s3"
	"github.com/property-listing-api/internal/infrastructure/smtp"
	"github.com/property-listing-api/internal/infrastructure/sns"
	"github.com/property-listing-api/internal/pkg/logger"
	"github.com/property-listing-api/internal/pkg/ratelimit"
	"github.com/property-listing-api/internal/pkg/token"
	"github.com/property-listing-api/internal/queue"
	"github.com/property-listing-api/internal/queue/asynqserver"
	transporthttp "github.com/property-listing-api/internal/transport/http"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconf.Load(ctx, cfg.AWS)
	if err != nil {
		zl.Fatal("aws config", zap.Error(err))
	}

	// A missing verification secret is fatal: the token scheme has no fallback.
	secret, err := verificationSecret(ctx, cfg, awsCfg)
	if err != nil {
		zl.Fatal("verification secret", zap.Error(err))
	}
	codec, err := token.NewCodec(secret)
	if err != nil {
		zl.Fatal("verification secret", zap.Error(err))
	}

	tables, err := recordstore.Open(ctx, cfg, awsCfg, zl.Named("recordstore"))
	if err != nil {
		zl.Fatal("record store", zap.Error(err))
	}

	deps := &transporthttp.Deps{
		Properties:  tables.Properties,
		Subscribers: tables.Subscribers,
		Inquiries:   tables.Inquiries,
		Codec:       codec,
		Log:         zl,
	}

	// SMTP mailer (optional: verification and notifications report a configuration error without it).
	if m, err := smtp.NewMailer(cfg.SMTP); err == nil {
		deps.Mailer = m
	} else {
		zl.Warn("email delivery not available", zap.Error(err))
	}

	if cfg.Captcha.Secret != "" {
		deps.Captcha = captcha.NewVerifier(cfg.Captcha, cfg.UpstreamTimeout)
	} else {
		zl.Warn("CAPTCHA secret not set, subscriptions will be refused")
	}

	switch cfg.Images.Backend {
	case config.ImageHostS3:
		client := s3infra.NewClient(awsCfg, awsconf.Endpoint(cfg.AWS))
		deps.ImageHost = s3infra.NewImageStore(client, cfg.S3.Bucket, cfg.AWS.Region, cfg.S3.PublicBaseURL)
	default:
		if u, err := cloudinary.NewUploader(cfg.Cloudinary, cfg.UpstreamTimeout); err == nil {
			deps.ImageHost = u
		} else {
			zl.Warn("image uploads not available", zap.Error(err))
		}
	}

	if cfg.SNS.TopicARN != "" {
		deps.Publisher = sns.NewListingPublisher(sns.NewClient(awsCfg, awsconf.Endpoint(cfg.AWS)), cfg.SNS.TopicARN)
	}

	// JWT provider (optional: operator routes answer 401 without it).
	if p, err := jwtinfra.NewProvider(cfg.JWT); err == nil {
		deps.JWTProvider = p
	} else {
		zl.Warn("JWT provider not available, operator routes disabled", zap.Error(err))
	}

	// Redis shares rate-limit counters and carries fan-out; without it both stay in process.
	var (
		asynqClient *asynq.Client
		asynqSrv    *asynq.Server
		asynqMux    *asynq.ServeMux
	)
	if cfg.Redis.Addr != "" {
		rdb, err := redisinfra.NewClient(ctx, cfg.Redis)
		if err != nil {
			zl.Fatal("redis", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		deps.Limiter = ratelimit.New(redisinfra.NewRateLimitStore(rdb), zl.Named("ratelimit"))

		asynqClient = asynq.NewClient(asynqserver.RedisOptions(cfg.Redis))
		defer func() { _ = asynqClient.Close() }()
		deps.Events = queue.NewAsynqDispatcher(asynqClient)
	} else {
		store := ratelimit.NewMemoryStore(time.Now)
		go store.RunPruner(ctx, time.Minute)
		deps.Limiter = ratelimit.New(store, zl.Named("ratelimit"))
	}

	svcs := transporthttp.NewServices(cfg, deps)
	if asynqClient != nil {
		asynqSrv, asynqMux = asynqserver.New(cfg.Redis, svcs.Notifications, zl)
		if err := asynqSrv.Start(asynqMux); err != nil {
			zl.Fatal("asynq server", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, svcs, deps),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		zl.Info("server starting",
			zap.String("port", cfg.AppPort),
			zap.String("env", cfg.AppEnv),
			zap.String("record_store", cfg.RecordStore.Backend),
			zap.String("image_host", cfg.Images.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	zl.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("forced shutdown", zap.Error(err))
	}
	if svcs.Fanout != nil {
		if err := svcs.Fanout.Wait(shutdownCtx); err != nil {
			zl.Warn("listing fan-out still running at exit", zap.Error(err))
		}
	}
	if asynqSrv != nil {
		asynqSrv.Shutdown()
	}
	zl.Info("server stopped")
}

// verificationSecret prefers the KMS ciphertext when one is configured.
func verificationSecret(ctx context.Context, cfg *config.Config, awsCfg aws.Config) (string, error) {
	if ct := cfg.Verification.SecretKMSCiphertext; ct != "" {
		client := kms.NewClient(awsCfg, awsconf.Endpoint(cfg.AWS))
		decryptCtx, cancel := context.WithTimeout(ctx, cfg.UpstreamTimeout)
		defer cancel()
		return kms.DecryptSecret(decryptCtx, client, ct)
	}
	if cfg.Verification.Secret == "" {
		return "", errors.New("VERIFICATION_SECRET or VERIFICATION_SECRET_KMS_CIPHERTEXT must be set")
	}
	return cfg.Verification.Secret, nil
}
