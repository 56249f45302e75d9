package drip

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/founders-outreach/internal/domain"
	"github.com/ignite/founders-outreach/internal/mailer"
	"github.com/ignite/founders-outreach/internal/pkg/logger"
)

// Config controls sequence shape and sender identity.
type Config struct {
	BatchSize int
	// MaxStage is the last stage index; a recipient finishing it completes.
	MaxStage int
	// Delays[i] is the wait after stage i is sent.
	Delays    []time.Duration
	FromEmail string
	FromName  string
	ReplyTo   string
	// TrackingBaseURL is the public origin of this service.
	TrackingBaseURL string
	SiteURL         string
}

// RunError is one itemized failure in a run.
type RunError struct {
	RecipientID string `json:"recipient_id"`
	Error       string `json:"error"`
}

// RunResult summarizes one scheduler run.
type RunResult struct {
	Processed int        `json:"processed"`
	Sent      int        `json:"sent"`
	Completed int        `json:"completed"`
	Failed    int        `json:"failed"`
	Skipped   int        `json:"skipped"`
	Errors    []RunError `json:"errors"`
}

// Scheduler advances recipients through the drip sequence.
type Scheduler struct {
	repo     Repository
	sender   mailer.Sender
	renderer Renderer
	cfg      Config
	log      *logger.Logger
}

// NewScheduler creates a drip scheduler.
func NewScheduler(repo Repository, sender mailer.Sender, renderer Renderer, cfg Config) *Scheduler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	cfg.TrackingBaseURL = strings.TrimRight(cfg.TrackingBaseURL, "/")
	return &Scheduler{
		repo:     repo,
		sender:   sender,
		renderer: renderer,
		cfg:      cfg,
		log:      logger.With("component", "drip"),
	}
}

// maxPages bounds how often one run refills its page after campaigns hit
// their daily limit.
const maxPages = 5

// Run processes up to BatchSize due recipients. Campaigns that reach their
// daily limit are left out of the next page so a capped backlog cannot
// starve other campaigns. Only a failure to read the due page is returned
// as an error; per-recipient failures land in the result.
func (s *Scheduler) Run(ctx context.Context, now time.Time) (*RunResult, error) {
	now = now.UTC()
	res := &RunResult{Errors: []RunError{}}
	budget := make(map[string]int) // campaign -> sends left today, absent when unlimited
	seen := make(map[string]bool)
	var capped []string
	dayStart := now.Truncate(24 * time.Hour)
	attempts := 0

	for page := 0; page < maxPages && attempts < s.cfg.BatchSize; page++ {
		due, err := s.repo.DueRecipients(ctx, now, s.cfg.BatchSize-attempts, capped)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("select due recipients: %w", err)
			}
			s.log.Error("refill due page", "page", page, "error", err)
			break
		}

		newlyCapped := false
		for _, d := range due {
			if err := ctx.Err(); err != nil {
				break
			}
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			res.Processed++

			left, limited := 0, d.DailySendLimit > 0
			if limited {
				var ok bool
				left, ok = budget[d.CampaignID]
				if !ok {
					sent, err := s.repo.SentSince(ctx, d.CampaignID, dayStart)
					if err != nil {
						res.Skipped++
						res.Errors = append(res.Errors, RunError{RecipientID: d.ID, Error: err.Error()})
						continue
					}
					left = d.DailySendLimit - sent
					budget[d.CampaignID] = left
				}
				if left <= 0 {
					n := len(capped)
					capped = appendOnce(capped, d.CampaignID)
					newlyCapped = newlyCapped || len(capped) > n
					res.Skipped++
					continue
				}
			}

			attempts++
			claimed, err := s.repo.Claim(ctx, d.ID, d.SequenceStage, now)
			if err != nil {
				res.Skipped++
				res.Errors = append(res.Errors, RunError{RecipientID: d.ID, Error: err.Error()})
				continue
			}
			if !claimed {
				res.Skipped++
				continue
			}
			if limited {
				budget[d.CampaignID] = left - 1
			}

			s.process(ctx, &d.Recipient, now, res)
		}

		if !newlyCapped || ctx.Err() != nil {
			break
		}
	}

	if res.Processed > 0 {
		s.log.Info("drip run finished",
			"processed", res.Processed, "sent", res.Sent, "completed", res.Completed,
			"failed", res.Failed, "skipped", res.Skipped, "capped_campaigns", len(capped))
	}
	return res, nil
}

func appendOnce(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func (s *Scheduler) process(ctx context.Context, r *domain.Recipient, now time.Time, res *RunResult) {
	stage := r.SequenceStage
	next := stage + 1
	completed := next > s.cfg.MaxStage

	var nextAt *time.Time
	if !completed {
		if stage >= len(s.cfg.Delays) {
			s.fail(ctx, r, now, res, "config", fmt.Errorf("%w %d", ErrNoDelay, stage))
			return
		}
		t := now.Add(s.cfg.Delays[stage])
		nextAt = &t
	}

	subject, html, err := s.renderer.Render(r.Persona, stage, s.templateVars(r))
	if err != nil {
		s.fail(ctx, r, now, res, "template", err)
		return
	}

	_, err = s.sender.Send(ctx, domain.OutboundEmail{
		To:        r.Email,
		ToName:    r.Name,
		FromEmail: s.cfg.FromEmail,
		FromName:  s.cfg.FromName,
		ReplyTo:   s.cfg.ReplyTo,
		Subject:   subject,
		HTML:      html,
		CustomArgs: map[string]string{
			domain.ArgRecipientID: r.ID,
			domain.ArgCampaignID:  r.CampaignID,
		},
	})
	if err != nil {
		s.fail(ctx, r, now, res, "send", err)
		return
	}

	err = s.repo.MarkSent(ctx, StageSent{
		RecipientID: r.ID,
		CampaignID:  r.CampaignID,
		FromStage:   stage,
		NextStage:   next,
		NextSendAt:  nextAt,
		Completed:   completed,
		SentAt:      now,
	})
	if err != nil {
		// the mail is out; the row stays claimed with no schedule so it is never resent
		s.log.Error("record send failed", "recipient_id", r.ID, "stage", stage, "error", err)
		res.Errors = append(res.Errors, RunError{RecipientID: r.ID, Error: err.Error()})
		res.Sent++
		return
	}
	res.Sent++
	if completed {
		res.Completed++
	}
}

func (s *Scheduler) fail(ctx context.Context, r *domain.Recipient, now time.Time, res *RunResult, phase string, cause error) {
	res.Failed++
	res.Errors = append(res.Errors, RunError{RecipientID: r.ID, Error: cause.Error()})
	s.log.Warn("drip send failed", "recipient_id", r.ID, "stage", r.SequenceStage, "phase", phase, "error", cause)

	if err := s.repo.MarkFailed(ctx, r.ID, now); err != nil {
		s.log.Error("mark failed", "recipient_id", r.ID, "error", err)
	}
	err := s.repo.AppendEvent(ctx, &domain.EngagementEvent{
		ID:          uuid.New().String(),
		RecipientID: r.ID,
		EventType:   domain.EventError,
		Detail: map[string]any{
			"phase": phase,
			"stage": r.SequenceStage,
			"error": cause.Error(),
		},
		OccurredAt: now,
	})
	if err != nil {
		s.log.Error("append error event", "recipient_id", r.ID, "error", err)
	}
}

func (s *Scheduler) templateVars(r *domain.Recipient) map[string]any {
	base := s.cfg.TrackingBaseURL
	rid := url.QueryEscape(r.ID)
	join := strings.TrimRight(s.cfg.SiteURL, "/") + "/join?code=" + url.QueryEscape(r.InviteCode)
	return map[string]any{
		"name":            r.Name,
		"company":         r.Company,
		"title":           r.Title,
		"invite_code":     r.InviteCode,
		"stage":           r.SequenceStage,
		"site_url":        s.cfg.SiteURL,
		"join_url":        base + "/t/click?rid=" + rid + "&url=" + url.QueryEscape(join),
		"pixel_url":       base + "/t/open?rid=" + rid + "&type=open",
		"unsubscribe_url": base + "/unsubscribe/" + url.PathEscape(r.ID),
	}
}
