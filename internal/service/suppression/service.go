package suppression

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/ignite/founders-outreach/internal/domain"
)

// ChunkSize bounds the number of addresses sent to the store in one lookup.
const ChunkSize = 500

// Registry implements suppression business logic. It is safe for concurrent use.
//
// Positive lookups are cached in-process: an address once suppressed stays
// suppressed, so a cached hit can never go stale. Misses always go to the
// store.
type Registry struct {
	repo Repository
	hits *cache.Cache
}

// NewRegistry creates a suppression registry backed by the given repository.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo: repo,
		hits: cache.New(30*time.Minute, 10*time.Minute),
	}
}

// Normalize trims and lower-cases an address for registry lookups.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsSuppressed checks whether an email address must be kept out of campaigns.
func (r *Registry) IsSuppressed(ctx context.Context, email string) (bool, error) {
	email = Normalize(email)
	if email == "" {
		return false, ErrEmailRequired
	}
	if _, ok := r.hits.Get(email); ok {
		return true, nil
	}
	found, err := r.repo.Suppressed(ctx, []string{email})
	if err != nil {
		return false, fmt.Errorf("check suppression: %w", err)
	}
	if len(found) == 0 {
		return false, nil
	}
	r.hits.SetDefault(email, struct{}{})
	return true, nil
}

// FilterSuppressed returns the set of suppressed addresses among emails,
// keyed by normalized address. Lookups go to the store in chunks.
func (r *Registry) FilterSuppressed(ctx context.Context, emails []string) (map[string]bool, error) {
	out := make(map[string]bool)
	pending := make([]string, 0, len(emails))
	seen := make(map[string]bool, len(emails))
	for _, e := range emails {
		e = Normalize(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		if _, ok := r.hits.Get(e); ok {
			out[e] = true
			continue
		}
		pending = append(pending, e)
	}

	for start := 0; start < len(pending); start += ChunkSize {
		end := start + ChunkSize
		if end > len(pending) {
			end = len(pending)
		}
		found, err := r.repo.Suppressed(ctx, pending[start:end])
		if err != nil {
			return nil, fmt.Errorf("filter suppressed: %w", err)
		}
		for _, e := range found {
			e = Normalize(e)
			out[e] = true
			r.hits.SetDefault(e, struct{}{})
		}
	}
	return out, nil
}

// Suppress records a suppression. Repeating it is harmless; a later reason
// replaces an earlier one.
func (r *Registry) Suppress(ctx context.Context, email string, reason domain.SuppressionReason, source domain.SuppressionSource) error {
	email = Normalize(email)
	if email == "" {
		return ErrEmailRequired
	}
	switch reason {
	case domain.ReasonUnsubscribed, domain.ReasonBounced, domain.ReasonSpamReport, domain.ReasonDropped:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidReason, reason)
	}
	err := r.repo.Upsert(ctx, &domain.Suppression{
		Email:      email,
		Reason:     reason,
		Source:     source,
		RecordedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("suppress: %w", err)
	}
	r.hits.SetDefault(email, struct{}{})
	return nil
}

// Unsubscribe adds an address to the global, cross-campaign opt-out list.
func (r *Registry) Unsubscribe(ctx context.Context, email string, source domain.SuppressionSource) error {
	email = Normalize(email)
	if email == "" {
		return ErrEmailRequired
	}
	if err := r.repo.Unsubscribe(ctx, email, source); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	r.hits.SetDefault(email, struct{}{})
	return nil
}

// Lookup returns the suppression entry for an address, or nil.
func (r *Registry) Lookup(ctx context.Context, email string) (*domain.Suppression, error) {
	email = Normalize(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	return r.repo.Get(ctx, email)
}

// Count returns the number of suppression entries.
func (r *Registry) Count(ctx context.Context) (int, error) {
	return r.repo.Count(ctx)
}
