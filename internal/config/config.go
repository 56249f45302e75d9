package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the outreach engine.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Mail      MailConfig      `yaml:"mail"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	SES       SESConfig       `yaml:"ses"`
	S3        S3Config        `yaml:"s3"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Ops       OpsConfig       `yaml:"ops"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Drip      DripConfig      `yaml:"drip"`
	Phase     PhaseConfig     `yaml:"phase"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for http.Server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether email addresses are masked in logs (default true).
func (c LogConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	// ConnectTimeoutSeconds bounds how long startup waits for the database.
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"`
}

// ConnectTimeout returns the startup wait as a duration.
func (c DatabaseConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// RedisConfig holds the optional Redis used for run locks. When URL is
// empty, Postgres advisory locks are used instead.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// MailConfig selects the outbound provider and sender identity.
type MailConfig struct {
	Provider  string `yaml:"provider"` // "sendgrid" or "ses"
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
	ReplyTo   string `yaml:"reply_to"`
}

// SendGridConfig holds SendGrid API and event webhook configuration.
type SendGridConfig struct {
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	// WebhookPublicKey is the base64 ECDSA key from the signed event webhook
	// settings. Empty means the webhook runs in insecure mode.
	WebhookPublicKey string `yaml:"webhook_public_key"`
	// RequireSignature refuses to start without a webhook public key.
	RequireSignature bool `yaml:"require_signature"`
}

// Timeout returns the configured timeout as a duration
func (c SendGridConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SESConfig holds AWS SES credentials. Empty keys use the default chain.
type SESConfig struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// S3Config holds the bucket operators drop recipient CSV files into.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
}

// TrackingConfig holds public URLs used in rendered emails.
type TrackingConfig struct {
	BaseURL              string   `yaml:"base_url"`
	SiteURL              string   `yaml:"site_url"`
	AllowedRedirectHosts []string `yaml:"allowed_redirect_hosts"`
	UnsubscribeSecret    string   `yaml:"unsubscribe_secret"`
}

// OpsConfig holds the bearer token for operator and cron endpoints.
type OpsConfig struct {
	Token string `yaml:"token"`
}

// IngestConfig bounds bulk uploads.
type IngestConfig struct {
	MaxRows int `yaml:"max_rows"`
}

// TemplateConfig is one drip email for a (persona, stage) pair.
type TemplateConfig struct {
	Persona string `yaml:"persona"`
	Stage   int    `yaml:"stage"`
	Subject string `yaml:"subject"`
	HTML    string `yaml:"html"`
}

// DripConfig holds the drip sequence definition.
type DripConfig struct {
	Enabled         bool             `yaml:"enabled"`
	IntervalSeconds int              `yaml:"interval_seconds"`
	BatchSize       int              `yaml:"batch_size"`
	MaxStage        int              `yaml:"max_stage"`
	DelaysHours     []int            `yaml:"delays_hours"`
	Templates       []TemplateConfig `yaml:"templates"`
}

// Interval returns the scheduler tick as a duration.
func (c DripConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Delays returns the stage-indexed delay table.
func (c DripConfig) Delays() []time.Duration {
	out := make([]time.Duration, len(c.DelaysHours))
	for i, h := range c.DelaysHours {
		out[i] = time.Duration(h) * time.Hour
	}
	return out
}

// PhaseConfig holds the founders capacity threshold.
type PhaseConfig struct {
	Enabled         bool   `yaml:"enabled"`
	IntervalSeconds int    `yaml:"interval_seconds"`
	FoundersCap     int    `yaml:"founders_cap"`
	FoundingTier    string `yaml:"founding_tier"`
}

// Interval returns the guard tick as a duration.
func (c PhaseConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// SchedulerConfig controls whether cmd/server also runs the periodic jobs.
type SchedulerConfig struct {
	InProcess bool `yaml:"in_process"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnectTimeoutSeconds == 0 {
		cfg.Database.ConnectTimeoutSeconds = 30
	}
	if cfg.Mail.Provider == "" {
		cfg.Mail.Provider = "sendgrid"
	}
	if cfg.SendGrid.TimeoutSeconds == 0 {
		cfg.SendGrid.TimeoutSeconds = 30
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-east-1"
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = cfg.SES.Region
	}
	if cfg.Ingest.MaxRows == 0 {
		cfg.Ingest.MaxRows = 5000
	}
	if cfg.Drip.IntervalSeconds == 0 {
		cfg.Drip.IntervalSeconds = 300
	}
	if cfg.Drip.BatchSize == 0 {
		cfg.Drip.BatchSize = 50
	}
	if cfg.Drip.MaxStage == 0 {
		cfg.Drip.MaxStage = 4
	}
	if len(cfg.Drip.DelaysHours) == 0 {
		cfg.Drip.DelaysHours = []int{72, 96, 168, 336}
	}
	if cfg.Phase.IntervalSeconds == 0 {
		cfg.Phase.IntervalSeconds = 900
	}
	if cfg.Phase.FoundersCap == 0 {
		cfg.Phase.FoundersCap = 50
	}
	if cfg.Phase.FoundingTier == "" {
		cfg.Phase.FoundingTier = "founding"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (cfg *Config) applyEnv() {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("DATABASE_URL", &cfg.Database.URL)
	str("REDIS_URL", &cfg.Redis.URL)
	str("MAIL_PROVIDER", &cfg.Mail.Provider)
	str("MAIL_FROM_EMAIL", &cfg.Mail.FromEmail)
	str("SENDGRID_API_KEY", &cfg.SendGrid.APIKey)
	str("SENDGRID_WEBHOOK_PUBLIC_KEY", &cfg.SendGrid.WebhookPublicKey)
	str("AWS_SES_ACCESS_KEY", &cfg.SES.AccessKey)
	str("AWS_SES_SECRET_KEY", &cfg.SES.SecretKey)
	str("AWS_SES_REGION", &cfg.SES.Region)
	str("IMPORT_S3_BUCKET", &cfg.S3.Bucket)
	str("TRACKING_BASE_URL", &cfg.Tracking.BaseURL)
	str("SITE_URL", &cfg.Tracking.SiteURL)
	str("UNSUBSCRIBE_SECRET", &cfg.Tracking.UnsubscribeSecret)
	str("OPS_TOKEN", &cfg.Ops.Token)
	str("LOG_LEVEL", &cfg.Log.Level)
	if v := os.Getenv("FOUNDERS_CAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Phase.FoundersCap = n
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
}

// Validate rejects configurations the engine cannot run safely with.
func (cfg *Config) Validate() error {
	if cfg.Mail.Provider != "sendgrid" && cfg.Mail.Provider != "ses" {
		return fmt.Errorf("mail.provider must be sendgrid or ses, got %q", cfg.Mail.Provider)
	}
	if cfg.SendGrid.RequireSignature && cfg.SendGrid.WebhookPublicKey == "" {
		return fmt.Errorf("sendgrid.require_signature is set but no webhook_public_key is configured")
	}
	if len(cfg.Drip.DelaysHours) < cfg.Drip.MaxStage {
		return fmt.Errorf("drip.delays_hours needs %d entries for max_stage %d, got %d",
			cfg.Drip.MaxStage, cfg.Drip.MaxStage, len(cfg.Drip.DelaysHours))
	}
	for _, t := range cfg.Drip.Templates {
		if t.Stage < 0 || t.Stage > cfg.Drip.MaxStage {
			return fmt.Errorf("drip template %s/%d: stage outside 0..%d", t.Persona, t.Stage, cfg.Drip.MaxStage)
		}
	}
	return nil
}
