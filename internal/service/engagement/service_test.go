package engagement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/founders-outreach/internal/domain"
)

const (
	rid1 = "11111111-1111-1111-1111-111111111111"
	rid2 = "22222222-2222-2222-2222-222222222222"
)

type memRepo struct {
	mu         sync.Mutex
	recipients map[string]*domain.Recipient
	opened     map[string]int // campaign -> total_opened
	clicked    map[string]int
	events     []domain.EngagementEvent
	failMark   error
}

func newMemRepo(rs ...domain.Recipient) *memRepo {
	m := &memRepo{
		recipients: map[string]*domain.Recipient{},
		opened:     map[string]int{},
		clicked:    map[string]int{},
	}
	for i := range rs {
		r := rs[i]
		m.recipients[r.ID] = &r
	}
	return m
}

func (m *memRepo) GetRecipient(_ context.Context, id string) (*domain.Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipients[id]
	if !ok {
		return nil, ErrRecipientNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) RecipientIDsByEmail(_ context.Context, email string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for id, r := range m.recipients {
		if r.Email == email {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *memRepo) AppendEvent(_ context.Context, ev *domain.EngagementEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *ev)
	return nil
}

func (m *memRepo) MarkOpened(_ context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.recipients[id]
	if r.OpenedAt != nil {
		return false, nil
	}
	r.OpenedAt = &at
	switch r.Status {
	case domain.RecipientQueued, domain.RecipientSent, domain.RecipientResend:
		r.Status = domain.RecipientOpened
	}
	m.opened[r.CampaignID]++
	return true, nil
}

func (m *memRepo) MarkClicked(_ context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.recipients[id]
	if r.ClickedAt != nil {
		return false, nil
	}
	r.ClickedAt = &at
	if r.Status.InSequence() {
		r.Status = domain.RecipientClicked
	}
	m.clicked[r.CampaignID]++
	return true, nil
}

func (m *memRepo) MarkNegative(_ context.Context, id string, status domain.RecipientStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMark != nil {
		return m.failMark
	}
	r := m.recipients[id]
	r.Status = status
	r.NextSendAt = nil
	if status == domain.RecipientUnsubscribed && r.UnsubscribedAt == nil {
		r.UnsubscribedAt = &at
	}
	return nil
}

type fakeSuppressor struct {
	mu           sync.Mutex
	suppressed   map[string]domain.SuppressionReason
	unsubscribed map[string]bool
}

func newFakeSuppressor() *fakeSuppressor {
	return &fakeSuppressor{suppressed: map[string]domain.SuppressionReason{}, unsubscribed: map[string]bool{}}
}

func (f *fakeSuppressor) Suppress(_ context.Context, email string, reason domain.SuppressionReason, _ domain.SuppressionSource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suppressed[email] = reason
	return nil
}

func (f *fakeSuppressor) Unsubscribe(_ context.Context, email string, _ domain.SuppressionSource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed[email] = true
	return nil
}

func sentRecipient(id, email string) domain.Recipient {
	next := time.Now().Add(time.Hour)
	return domain.Recipient{ID: id, CampaignID: "c1", Email: email, Status: domain.RecipientSent, NextSendAt: &next}
}

func TestRecordEvent_OpenCountsOnce(t *testing.T) {
	repo := newMemRepo(sentRecipient(rid1, "a@x.com"))
	tr := NewTracker(repo, newFakeSuppressor())
	ctx := context.Background()

	require.NoError(t, tr.RecordEvent(ctx, rid1, domain.EventOpen, nil))
	first := *repo.recipients[rid1].OpenedAt
	require.NoError(t, tr.RecordEvent(ctx, rid1, domain.EventOpen, nil))

	assert.Equal(t, 1, repo.opened["c1"])
	assert.Equal(t, first, *repo.recipients[rid1].OpenedAt)
	assert.Equal(t, domain.RecipientOpened, repo.recipients[rid1].Status)
	assert.Len(t, repo.events, 2, "audit trail is unconditional")
}

func TestRecordEvent_ConcurrentOpens(t *testing.T) {
	repo := newMemRepo(sentRecipient(rid1, "a@x.com"))
	tr := NewTracker(repo, newFakeSuppressor())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tr.RecordEvent(context.Background(), rid1, domain.EventOpen, nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, repo.opened["c1"])
}

func TestRecordEvent_ClickCountsOnce(t *testing.T) {
	repo := newMemRepo(sentRecipient(rid1, "a@x.com"))
	tr := NewTracker(repo, newFakeSuppressor())
	ctx := context.Background()

	require.NoError(t, tr.RecordEvent(ctx, rid1, domain.EventClick, map[string]any{"url": "https://x.com"}))
	require.NoError(t, tr.RecordEvent(ctx, rid1, domain.EventClick, nil))
	assert.Equal(t, 1, repo.clicked["c1"])
	assert.Equal(t, domain.RecipientClicked, repo.recipients[rid1].Status)
}

func TestRecordEvent_NegativeAfterPositive(t *testing.T) {
	cases := []struct {
		event  domain.EventType
		status domain.RecipientStatus
		reason domain.SuppressionReason
		global bool
	}{
		{domain.EventBounce, domain.RecipientBounced, domain.ReasonBounced, true},
		{domain.EventSpamReport, domain.RecipientSpamReport, domain.ReasonSpamReport, true},
		{domain.EventUnsubscribed, domain.RecipientUnsubscribed, domain.ReasonUnsubscribed, true},
		{domain.EventDropped, domain.RecipientDropped, domain.ReasonDropped, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.event), func(t *testing.T) {
			repo := newMemRepo(sentRecipient(rid1, "a@x.com"))
			sup := newFakeSuppressor()
			tr := NewTracker(repo, sup)
			ctx := context.Background()

			require.NoError(t, tr.RecordEvent(ctx, rid1, domain.EventOpen, nil))
			require.NoError(t, tr.RecordEvent(ctx, rid1, tc.event, nil))

			r := repo.recipients[rid1]
			assert.Equal(t, tc.status, r.Status)
			assert.Nil(t, r.NextSendAt)
			assert.Equal(t, tc.reason, sup.suppressed["a@x.com"])
			assert.Equal(t, tc.global, sup.unsubscribed["a@x.com"])

			// a late open must not resurrect the recipient
			require.NoError(t, tr.RecordEvent(ctx, rid1, domain.EventClick, nil))
			assert.Equal(t, tc.status, repo.recipients[rid1].Status)
		})
	}
}

func TestRecordEvent_UnsubscribeStampsOnce(t *testing.T) {
	repo := newMemRepo(sentRecipient(rid1, "a@x.com"))
	tr := NewTracker(repo, newFakeSuppressor())
	ctx := context.Background()

	require.NoError(t, tr.Unsubscribe(ctx, rid1))
	first := *repo.recipients[rid1].UnsubscribedAt
	require.NoError(t, tr.Unsubscribe(ctx, rid1))
	assert.Equal(t, first, *repo.recipients[rid1].UnsubscribedAt)
}

func TestRecordEvent_UnknownRecipient(t *testing.T) {
	repo := newMemRepo()
	tr := NewTracker(repo, newFakeSuppressor())

	assert.ErrorIs(t, tr.RecordEvent(context.Background(), rid2, domain.EventOpen, nil), ErrRecipientNotFound)
	assert.ErrorIs(t, tr.RecordEvent(context.Background(), "not-a-uuid", domain.EventOpen, nil), ErrRecipientNotFound)
	assert.Empty(t, repo.events)
}

func TestRecordEvent_StorageFailureSurfaces(t *testing.T) {
	repo := newMemRepo(sentRecipient(rid1, "a@x.com"))
	repo.failMark = errors.New("conn reset")
	tr := NewTracker(repo, newFakeSuppressor())

	err := tr.RecordEvent(context.Background(), rid1, domain.EventBounce, nil)
	assert.Error(t, err)
	assert.Len(t, repo.events, 1)
}

func TestUnsubscribeEmail(t *testing.T) {
	r1 := sentRecipient(rid1, "a@x.com")
	r2 := sentRecipient(rid2, "a@x.com")
	r2.CampaignID = "c2"
	repo := newMemRepo(r1, r2)
	sup := newFakeSuppressor()
	tr := NewTracker(repo, sup)

	require.NoError(t, tr.UnsubscribeEmail(context.Background(), "a@x.com"))
	assert.Equal(t, domain.RecipientUnsubscribed, repo.recipients[rid1].Status)
	assert.Equal(t, domain.RecipientUnsubscribed, repo.recipients[rid2].Status)
	assert.True(t, sup.unsubscribed["a@x.com"])

	// unknown address still lands in the registry
	require.NoError(t, tr.UnsubscribeEmail(context.Background(), "nobody@x.com"))
	assert.Equal(t, domain.ReasonUnsubscribed, sup.suppressed["nobody@x.com"])
}

func TestProcessWebhook(t *testing.T) {
	repo := newMemRepo(sentRecipient(rid1, "a@x.com"), sentRecipient(rid2, "b@x.com"))
	sup := newFakeSuppressor()
	tr := NewTracker(repo, sup)

	res := tr.ProcessWebhook(context.Background(), []map[string]any{
		{"event": "bounce", "email": "a@x.com", "recipient_id": rid1, "reason": "550 mailbox unavailable"},
		{"event": "delivered", "email": "b@x.com", "recipient_id": rid2},
		{"event": "open", "email": "b@x.com", "unique_args": map[string]any{"recipient_id": rid2}},
		{"event": "open", "email": "c@x.com"},
		{"event": "click", "recipient_id": "33333333-3333-3333-3333-333333333333"},
	})

	assert.Equal(t, WebhookResult{Received: 5, Processed: 2, Ignored: 3}, res)
	assert.Equal(t, domain.RecipientBounced, repo.recipients[rid1].Status)
	assert.Equal(t, domain.ReasonBounced, sup.suppressed["a@x.com"])
	assert.True(t, sup.unsubscribed["a@x.com"])
	assert.Equal(t, 1, repo.opened["c1"])
}

func TestProcessWebhook_FailedEventDoesNotStopBatch(t *testing.T) {
	repo := newMemRepo(sentRecipient(rid1, "a@x.com"), sentRecipient(rid2, "b@x.com"))
	repo.failMark = errors.New("timeout")
	tr := NewTracker(repo, newFakeSuppressor())

	res := tr.ProcessWebhook(context.Background(), []map[string]any{
		{"event": "dropped", "recipient_id": rid1},
		{"event": "open", "recipient_id": rid2},
	})
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Processed)
}
