package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/property-listing-api/internal/application/expiration"
	"github.com/property-listing-api/internal/application/notification"
	"github.com/property-listing-api/internal/application/subscription"
	"github.com/property-listing-api/internal/config"
	"github.com/property-listing-api/internal/infrastructure/awsconf"
	"github.com/property-listing-api/internal/infrastructure/recordstore"
	"github.com/property-listing-api/internal/infrastructure/smtp"
	"github.com/property-listing-api/internal/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func DigestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Send the daily listing digest",
		Long:  "Email every subscriber the listings created within DIGEST_WINDOW",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = env.log.Sync() }()
			svc := notification.NewService(notification.ServiceDeps{
				Subscribers:  subscription.NewService(env.tables.Subscribers, nil, env.log.Named("subscription")),
				Properties:   env.tables.Properties,
				Mailer:       env.mailer,
				SiteURL:      env.cfg.PublicSiteURL,
				DigestWindow: env.cfg.Listings.DigestWindow,
				Log:          env.log.Named("notification"),
			})
			res, err := svc.SendDigest(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func SweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire old listings",
		Long:  "Warn contacts of listings close to expiry and delete listings past LISTING_EXPIRATION_DAYS",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = env.log.Sync() }()
			svc := expiration.NewService(expiration.ServiceDeps{
				Records:        env.tables.Properties,
				Mailer:         env.mailer,
				ExpirationDays: env.cfg.Listings.ExpirationDays,
				WarningDays:    env.cfg.Listings.WarningDays,
				FormURL:        env.cfg.ListingFormURL,
				Log:            env.log.Named("expiration"),
			})
			res, err := svc.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

type jobEnv struct {
	cfg    *config.Config
	log    *zap.Logger
	tables *recordstore.Tables
	mailer smtp.Mailer
}

func loadEnv(ctx context.Context) (*jobEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	awsCfg, err := awsconf.Load(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}
	tables, err := recordstore.Open(ctx, cfg, awsCfg, log.Named("recordstore"))
	if err != nil {
		return nil, err
	}
	// Jobs still run without SMTP: the sweep deletes and the digest reports the gap.
	m, err := smtp.NewMailer(cfg.SMTP)
	if err != nil {
		log.Warn("email delivery not available", zap.Error(err))
	}
	return &jobEnv{cfg: cfg, log: log, tables: tables, mailer: m}, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
