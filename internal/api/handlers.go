package api

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/schema"

	"github.com/ignite/founders-outreach/internal/domain"
	"github.com/ignite/founders-outreach/internal/pkg/distlock"
	"github.com/ignite/founders-outreach/internal/pkg/logger"
	"github.com/ignite/founders-outreach/internal/service/campaign"
	"github.com/ignite/founders-outreach/internal/service/drip"
	"github.com/ignite/founders-outreach/internal/service/engagement"
	"github.com/ignite/founders-outreach/internal/service/phase"
	"github.com/ignite/founders-outreach/internal/service/recipient"
	"github.com/ignite/founders-outreach/internal/webhook"
)

// CampaignService is the operator surface of the campaign lifecycle.
type CampaignService interface {
	Create(ctx context.Context, input campaign.CreateInput) (*domain.Campaign, error)
	Get(ctx context.Context, id string) (*domain.Campaign, error)
	List(ctx context.Context, f campaign.ListFilter) ([]domain.Campaign, int, error)
	Activate(ctx context.Context, id string) (*domain.Campaign, error)
	Pause(ctx context.Context, id string) (*domain.Campaign, error)
	Resume(ctx context.Context, id string) (*domain.Campaign, error)
	Complete(ctx context.Context, id string) (*domain.Campaign, error)
}

// RecipientIngester adds recipient rows to a campaign.
type RecipientIngester interface {
	IngestBatch(ctx context.Context, campaignID string, rows []domain.RecipientRow) (*recipient.IngestResult, error)
}

// ListImporter ingests CSV recipient lists.
type ListImporter interface {
	IngestCSV(ctx context.Context, campaignID string, r io.Reader) (*recipient.IngestResult, error)
	IngestFromObject(ctx context.Context, campaignID, key string) (*recipient.IngestResult, error)
}

// EngagementTracker records opens, clicks, unsubscribes and provider events.
type EngagementTracker interface {
	RecordEvent(ctx context.Context, recipientID string, et domain.EventType, detail map[string]any) error
	Unsubscribe(ctx context.Context, recipientID string) error
	UnsubscribeEmail(ctx context.Context, email string) error
	ProcessWebhook(ctx context.Context, events []map[string]any) engagement.WebhookResult
}

// DripRunner executes one drip batch.
type DripRunner interface {
	Run(ctx context.Context, now time.Time) (*drip.RunResult, error)
}

// PhaseGuard computes and applies the founders phase.
type PhaseGuard interface {
	Run(ctx context.Context) (*phase.Result, error)
	Status(ctx context.Context) (domain.Phase, domain.Capacity, error)
}

// Deps carries everything the HTTP layer talks to. Locks is optional; when
// set, on-demand drip and guard runs share the scheduler's run locks.
type Deps struct {
	Campaigns  CampaignService
	Recipients RecipientIngester
	Importer   ListImporter
	Tracker    EngagementTracker
	Drip       DripRunner
	Phase      PhaseGuard
	Verifier   webhook.Verifier
	Locks      distlock.Factory
	Health     *HealthChecker

	OpsToken             string
	SiteURL              string
	AllowedRedirectHosts []string
	UnsubscribeSecret    string
}

// Handlers contains all HTTP handlers
type Handlers struct {
	deps         Deps
	decoder      *schema.Decoder
	allowedHosts map[string]bool
	now          func() time.Time
	log          *logger.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Deps) *Handlers {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)

	hosts := make(map[string]bool, len(deps.AllowedRedirectHosts)+1)
	for _, h := range deps.AllowedRedirectHosts {
		hosts[strings.ToLower(strings.TrimSpace(h))] = true
	}
	if u, err := url.Parse(deps.SiteURL); err == nil && u.Host != "" {
		hosts[strings.ToLower(u.Host)] = true
	}

	return &Handlers{
		deps:         deps,
		decoder:      dec,
		allowedHosts: hosts,
		now:          func() time.Time { return time.Now().UTC() },
		log:          logger.With("component", "api"),
	}
}
