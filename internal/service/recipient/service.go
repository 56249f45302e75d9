package recipient

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/founders-outreach/internal/domain"
	"github.com/ignite/founders-outreach/internal/pkg/logger"
)

const (
	// LookupChunk bounds the number of emails per existing-recipient lookup.
	LookupChunk = 500
	// InsertChunk bounds the number of rows per insert statement.
	InsertChunk = 500

	inviteAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	invitePrefix   = "FOUNDING-"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Skipped counts rows dropped from an ingest, by cause.
type Skipped struct {
	Invalid              int `json:"invalid"`
	DuplicatesInCampaign int `json:"duplicates_in_campaign"`
	Suppressed           int `json:"suppressed"`
	PayloadDuplicates    int `json:"payload_duplicates"`
}

// InvalidRow identifies a row that failed validation.
type InvalidRow struct {
	Index int    `json:"index"`
	Email string `json:"email"`
}

// IngestResult is the outcome of one bulk upload.
type IngestResult struct {
	Inserted    int          `json:"inserted"`
	Skipped     Skipped      `json:"skipped"`
	InvalidRows []InvalidRow `json:"invalid_rows"`
}

// Service ingests recipient rows into campaigns.
type Service struct {
	repo        Repository
	suppression SuppressionFilter
	maxRows     int
	now         func() time.Time
	log         *logger.Logger
}

// NewService creates a recipient service. maxRows <= 0 disables the bound.
func NewService(repo Repository, suppression SuppressionFilter, maxRows int) *Service {
	return &Service{
		repo:        repo,
		suppression: suppression,
		maxRows:     maxRows,
		now:         func() time.Time { return time.Now().UTC() },
		log:         logger.With("component", "ingest"),
	}
}

// NormalizeEmail trims and lower-cases an address and reports whether it
// looks like local@domain.tld.
func NormalizeEmail(raw string) (string, bool) {
	e := strings.ToLower(strings.TrimSpace(raw))
	return e, emailPattern.MatchString(e)
}

// IngestBatch validates, de-duplicates and inserts rows as queued recipients.
func (s *Service) IngestBatch(ctx context.Context, campaignID string, rows []domain.RecipientRow) (*IngestResult, error) {
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, fmt.Errorf("%w: campaign id is required", ErrValidation)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: recipients list is empty", ErrValidation)
	}
	if s.maxRows > 0 && len(rows) > s.maxRows {
		return nil, fmt.Errorf("%w: %d rows exceeds limit of %d", ErrTooManyRows, len(rows), s.maxRows)
	}

	exists, err := s.repo.CampaignExists(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("load campaign: %w", err)
	}
	if !exists {
		return nil, ErrCampaignNotFound
	}

	res := &IngestResult{InvalidRows: []InvalidRow{}}

	// normalize, validate, payload dedupe (first occurrence wins)
	seen := make(map[string]bool, len(rows))
	candidates := make([]domain.RecipientRow, 0, len(rows))
	for i, row := range rows {
		email, ok := NormalizeEmail(row.Email)
		if !ok {
			res.Skipped.Invalid++
			res.InvalidRows = append(res.InvalidRows, InvalidRow{Index: i, Email: strings.TrimSpace(row.Email)})
			continue
		}
		if seen[email] {
			res.Skipped.PayloadDuplicates++
			continue
		}
		seen[email] = true
		row.Email = email
		candidates = append(candidates, row)
	}

	// existing recipients of this campaign
	existing := make(map[string]bool)
	for start := 0; start < len(candidates); start += LookupChunk {
		end := min(start+LookupChunk, len(candidates))
		emails := make([]string, 0, end-start)
		for _, c := range candidates[start:end] {
			emails = append(emails, c.Email)
		}
		found, err := s.repo.ExistingEmails(ctx, campaignID, emails)
		if err != nil {
			return nil, fmt.Errorf("lookup existing recipients: %w", err)
		}
		for _, e := range found {
			existing[strings.ToLower(e)] = true
		}
	}
	remaining := candidates[:0]
	for _, c := range candidates {
		if existing[c.Email] {
			res.Skipped.DuplicatesInCampaign++
			continue
		}
		remaining = append(remaining, c)
	}

	// suppression registry
	if len(remaining) > 0 {
		emails := make([]string, len(remaining))
		for i, c := range remaining {
			emails[i] = c.Email
		}
		suppressed, err := s.suppression.FilterSuppressed(ctx, emails)
		if err != nil {
			return nil, fmt.Errorf("check suppressions: %w", err)
		}
		kept := remaining[:0]
		for _, c := range remaining {
			if suppressed[c.Email] {
				res.Skipped.Suppressed++
				continue
			}
			kept = append(kept, c)
		}
		remaining = kept
	}

	// insert
	now := s.now()
	for start := 0; start < len(remaining); start += InsertChunk {
		end := min(start+InsertChunk, len(remaining))
		batch := make([]domain.Recipient, 0, end-start)
		for _, row := range remaining[start:end] {
			r, err := s.newRecipient(campaignID, row, now)
			if err != nil {
				return nil, &PartialError{Result: res, Err: err}
			}
			batch = append(batch, r)
		}
		n, err := s.repo.InsertQueued(ctx, campaignID, batch)
		if err != nil {
			s.log.Error("recipient insert failed", "campaign_id", campaignID, "inserted", res.Inserted, "error", err)
			return nil, &PartialError{Result: res, Err: err}
		}
		res.Inserted += n
		// rows lost to a concurrent upload of the same address
		res.Skipped.DuplicatesInCampaign += len(batch) - n
	}

	s.log.Info("recipients ingested",
		"campaign_id", campaignID, "inserted", res.Inserted,
		"invalid", res.Skipped.Invalid, "payload_duplicates", res.Skipped.PayloadDuplicates,
		"duplicates_in_campaign", res.Skipped.DuplicatesInCampaign, "suppressed", res.Skipped.Suppressed)
	return res, nil
}

func (s *Service) newRecipient(campaignID string, row domain.RecipientRow, now time.Time) (domain.Recipient, error) {
	code := strings.TrimSpace(row.InviteCode)
	if code == "" {
		var err error
		if code, err = NewInviteCode(); err != nil {
			return domain.Recipient{}, err
		}
	}
	persona := strings.ToLower(strings.TrimSpace(row.Persona))
	if persona == "" {
		persona = domain.DefaultPersona
	}
	next := now
	return domain.Recipient{
		ID:            uuid.New().String(),
		CampaignID:    campaignID,
		Email:         row.Email,
		Name:          strings.TrimSpace(row.Name),
		Company:       strings.TrimSpace(row.Company),
		Title:         strings.TrimSpace(row.Title),
		Persona:       persona,
		InviteCode:    code,
		Status:        domain.RecipientQueued,
		SequenceStage: 0,
		NextSendAt:    &next,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// NewInviteCode returns FOUNDING- followed by six random uppercase
// alphanumerics.
func NewInviteCode() (string, error) {
	b := make([]byte, 6)
	size := big.NewInt(int64(len(inviteAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("invite code: %w", err)
		}
		b[i] = inviteAlphabet[n.Int64()]
	}
	return invitePrefix + string(b), nil
}
