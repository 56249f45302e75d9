package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/founders-outreach/internal/domain"
	"github.com/ignite/founders-outreach/internal/service/drip"
	"github.com/ignite/founders-outreach/internal/service/engagement"
)

var recipientCols = []string{
	"id", "campaign_id", "email", "name", "company", "title",
	"persona", "invite_code", "status", "sequence_stage", "next_send_at", "last_sent_at",
	"opened_at", "clicked_at", "unsubscribed_at", "created_at", "updated_at",
}

func TestRecipientRepo_InsertQueued(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rs := []domain.Recipient{
		{ID: "r1", Email: "a@x.com", Persona: "general", InviteCode: "FOUNDING-AAAAAA", Status: domain.RecipientQueued, NextSendAt: &now, CreatedAt: now},
		{ID: "r2", Email: "b@x.com", Persona: "general", InviteCode: "FOUNDING-BBBBBB", Status: domain.RecipientQueued, NextSendAt: &now, CreatedAt: now},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO outreach_recipients .* VALUES \(\$1, .*\), \(\$13, .*\) ON CONFLICT \(campaign_id, email\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE outreach_campaigns SET total_recipients = total_recipients \+ \$2`).
		WithArgs("c1", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := NewRecipientRepo(db).InsertQueued(context.Background(), "c1", rs)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "conflicting row is not counted")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipientRepo_InsertQueuedRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO outreach_recipients`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = NewRecipientRepo(db).InsertQueued(context.Background(), "c1", []domain.Recipient{{ID: "r1", Email: "a@x.com"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipientRepo_MarkOpenedFirstWriteWins(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRecipientRepo(db)
	at := time.Now().UTC()

	mock.ExpectExec(`WHERE id = \$1 AND opened_at IS NULL .* UPDATE outreach_campaigns c SET total_opened = c.total_opened \+ 1`).
		WithArgs("r1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`WHERE id = \$1 AND opened_at IS NULL`).
		WithArgs("r1", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.MarkOpened(context.Background(), "r1", at)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.MarkOpened(context.Background(), "r1", at)
	require.NoError(t, err)
	assert.False(t, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipientRepo_GetRecipientNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM outreach_recipients WHERE id = \$1`).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows(recipientCols))

	_, err = NewRecipientRepo(db).GetRecipient(context.Background(), "r1")
	assert.ErrorIs(t, err, engagement.ErrRecipientNotFound)
}

func TestRecipientRepo_DueRecipients(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	cols := append(append([]string{}, recipientCols...), "daily_send_limit")
	mock.ExpectQuery(`JOIN outreach_campaigns c ON c.id = r.campaign_id WHERE c.status = 'active'`).
		WithArgs(now, 50, pq.Array([]string{"c9"})).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"r1", "c1", "a@x.com", "Ada", "", "", "general", "FOUNDING-AAAAAA", "sent", 2, now, now,
			nil, nil, nil, now, now, 100,
		))

	due, err := NewRecipientRepo(db).DueRecipients(context.Background(), now, 50, []string{"c9"})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 2, due[0].SequenceStage)
	assert.Equal(t, 100, due[0].DailySendLimit)
	assert.Nil(t, due[0].OpenedAt)
}

func TestRecipientRepo_ClaimIsConditional(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE outreach_recipients SET next_send_at = NULL.*WHERE id = \$1 AND sequence_stage = \$2 AND next_send_at <= \$3`).
		WithArgs("r1", 1, now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := NewRecipientRepo(db).Claim(context.Background(), "r1", 1, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecipientRepo_MarkSentCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE outreach_campaigns c SET total_sent = c.total_sent \+ 1`).
		WithArgs("r1", 4, 5, nil, true, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewRecipientRepo(db).MarkSent(context.Background(), drip.StageSent{
		RecipientID: "r1", CampaignID: "c1", FromStage: 4, NextStage: 5, Completed: true, SentAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipientRepo_AppendEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO outreach_events`).
		WithArgs("e1", "r1", domain.EventBounce, []byte(`{"reason":"550"}`), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewRecipientRepo(db).AppendEvent(context.Background(), &domain.EngagementEvent{
		ID: "e1", RecipientID: "r1", EventType: domain.EventBounce, Detail: map[string]any{"reason": "550"}, OccurredAt: now,
	})
	require.NoError(t, err)
}
