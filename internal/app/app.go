// Package app wires configuration, storage and services into the object
// graph shared by cmd/server and cmd/worker.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/founders-outreach/internal/api"
	"github.com/ignite/founders-outreach/internal/config"
	"github.com/ignite/founders-outreach/internal/mailer"
	"github.com/ignite/founders-outreach/internal/pkg/distlock"
	"github.com/ignite/founders-outreach/internal/pkg/logger"
	"github.com/ignite/founders-outreach/internal/repository/postgres"
	"github.com/ignite/founders-outreach/internal/service/campaign"
	"github.com/ignite/founders-outreach/internal/service/drip"
	"github.com/ignite/founders-outreach/internal/service/engagement"
	"github.com/ignite/founders-outreach/internal/service/phase"
	"github.com/ignite/founders-outreach/internal/service/recipient"
	"github.com/ignite/founders-outreach/internal/service/suppression"
	"github.com/ignite/founders-outreach/internal/webhook"
	"github.com/ignite/founders-outreach/internal/worker"
)

// App holds the long-lived dependencies of one process.
type App struct {
	Config *config.Config
	DB     *sql.DB
	Redis  *redis.Client
	S3     *s3.Client
	Locks  distlock.Factory

	Suppression *suppression.Registry
	Campaigns   *campaign.Service
	Recipients  *recipient.Service
	Importer    *recipient.Importer
	Tracker     *engagement.Tracker
	Drip        *drip.Scheduler
	Phase       *phase.Guard
}

// New connects to Postgres (waiting for it), optional Redis and S3, and
// builds every service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.Redact())

	db, err := OpenDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, DB: db}

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			opts = &redis.Options{Addr: cfg.Redis.URL}
		}
		a.Redis = redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := a.Redis.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unavailable, using postgres advisory locks", "error", err)
			a.Redis.Close()
			a.Redis = nil
		}
		cancel()
	}
	a.Locks = distlock.NewFactory(a.Redis, db)

	if cfg.S3.Bucket != "" {
		s3c, err := newS3Client(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.S3 = s3c
	}

	sender, err := newSender(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	templates, err := mailer.NewTemplateSet(templatesFromConfig(cfg.Drip.Templates))
	if err != nil {
		a.Close()
		return nil, err
	}

	campaignRepo := postgres.NewCampaignRepo(db)
	recipientRepo := postgres.NewRecipientRepo(db)

	a.Suppression = suppression.NewRegistry(postgres.NewSuppressionRepo(db))
	a.Campaigns = campaign.NewService(campaignRepo)
	a.Recipients = recipient.NewService(recipientRepo, a.Suppression, cfg.Ingest.MaxRows)
	var objects recipient.ObjectGetter
	if a.S3 != nil {
		objects = a.S3
	}
	a.Importer = recipient.NewImporter(a.Recipients, objects, cfg.S3.Bucket)
	a.Tracker = engagement.NewTracker(recipientRepo, a.Suppression)
	a.Drip = drip.NewScheduler(recipientRepo, sender, templates, drip.Config{
		BatchSize:       cfg.Drip.BatchSize,
		MaxStage:        cfg.Drip.MaxStage,
		Delays:          cfg.Drip.Delays(),
		FromEmail:       cfg.Mail.FromEmail,
		FromName:        cfg.Mail.FromName,
		ReplyTo:         cfg.Mail.ReplyTo,
		TrackingBaseURL: cfg.Tracking.BaseURL,
		SiteURL:         cfg.Tracking.SiteURL,
	})
	a.Phase = phase.NewGuard(postgres.NewMemberRepo(db), campaignRepo, cfg.Phase.FoundersCap, cfg.Phase.FoundingTier)

	return a, nil
}

// OpenDB opens the pool and retries the first ping with exponential
// backoff until the configured connect timeout.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is required")
	}
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = cfg.ConnectTimeout()
	ping := func() error {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err := db.PingContext(pctx)
		if err != nil {
			logger.Warn("database not ready", "error", err)
		}
		return err
	}
	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	logger.Info("connected to database", "host", dsnHost(cfg.URL))
	return db, nil
}

// Handlers builds the HTTP handlers over this app's services.
func (a *App) Handlers() (*api.Handlers, error) {
	verifier, err := webhook.NewVerifier(a.Config.SendGrid.WebhookPublicKey, a.Config.SendGrid.RequireSignature)
	if err != nil {
		return nil, err
	}
	var bucket api.BucketHeader
	if a.S3 != nil {
		bucket = a.S3
	}
	return api.NewHandlers(api.Deps{
		Campaigns:            a.Campaigns,
		Recipients:           a.Recipients,
		Importer:             a.Importer,
		Tracker:              a.Tracker,
		Drip:                 a.Drip,
		Phase:                a.Phase,
		Verifier:             verifier,
		Locks:                a.Locks,
		Health:               api.NewHealthChecker(a.DB, a.Redis, bucket, a.Config.S3.Bucket),
		OpsToken:             a.Config.Ops.Token,
		SiteURL:              a.Config.Tracking.SiteURL,
		AllowedRedirectHosts: a.Config.Tracking.AllowedRedirectHosts,
		UnsubscribeSecret:    a.Config.Tracking.UnsubscribeSecret,
	}), nil
}

// Jobs returns the enabled periodic jobs.
func (a *App) Jobs() []worker.Job {
	var jobs []worker.Job
	if a.Config.Drip.Enabled {
		jobs = append(jobs, worker.Job{
			Name:     "drip",
			Interval: a.Config.Drip.Interval(),
			LockKey:  distlock.KeyDrip,
			Run: func(ctx context.Context) error {
				res, err := a.Drip.Run(ctx, time.Now().UTC())
				if err != nil {
					return err
				}
				if res.Processed > 0 {
					logger.Info("drip run", "processed", res.Processed, "sent", res.Sent,
						"completed", res.Completed, "failed", res.Failed, "skipped", res.Skipped)
				}
				return nil
			},
		})
	}
	if a.Config.Phase.Enabled {
		jobs = append(jobs, worker.Job{
			Name:     "phase_guard",
			Interval: a.Config.Phase.Interval(),
			LockKey:  distlock.KeyPhaseGuard,
			Run: func(ctx context.Context) error {
				_, err := a.Phase.Run(ctx)
				return err
			},
		})
	}
	return jobs
}

// Close releases the connections.
func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func newSender(ctx context.Context, cfg *config.Config) (mailer.Sender, error) {
	switch cfg.Mail.Provider {
	case "ses":
		s, err := mailer.NewSESSenderFromKeys(ctx, cfg.SES.AccessKey, cfg.SES.SecretKey, cfg.SES.Region)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		if cfg.SendGrid.APIKey == "" {
			logger.Warn("sendgrid api key not set, every drip send will fail")
		}
		return mailer.NewSendGridSender(cfg.SendGrid.APIKey, "", cfg.SendGrid.Timeout()), nil
	}
}

func newS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3.Region)}
	if cfg.SES.AccessKey != "" && cfg.SES.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.SES.AccessKey, cfg.SES.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

func templatesFromConfig(in []config.TemplateConfig) []mailer.Template {
	out := make([]mailer.Template, 0, len(in))
	for _, t := range in {
		out = append(out, mailer.Template{
			Persona: strings.ToLower(strings.TrimSpace(t.Persona)),
			Stage:   t.Stage,
			Subject: t.Subject,
			HTML:    t.HTML,
		})
	}
	return out
}

func dsnHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}
