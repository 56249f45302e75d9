package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/founders-outreach/internal/domain"
	"github.com/ignite/founders-outreach/internal/service/campaign"
)

var campaignCols = []string{
	"id", "name", "status", "phase_tag", "paused_by", "daily_send_limit",
	"total_recipients", "total_sent", "total_opened", "total_clicked", "total_converted",
	"activated_at", "paused_at", "completed_at", "created_at", "updated_at",
}

func TestCampaignRepo_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM outreach_campaigns WHERE id = \$1`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(campaignCols).AddRow(
			"c1", "Wave 1", "paused", "founding", "phase_guard", 100,
			10, 8, 4, 2, 1,
			now, now, nil, now, now,
		))

	c, err := NewCampaignRepo(db).Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignPaused, c.Status)
	assert.Equal(t, domain.PausedByPhaseGuard, c.PausedBy)
	assert.Equal(t, domain.PhaseFounding, c.PhaseTag)
	assert.NotNil(t, c.ActivatedAt)
	assert.Nil(t, c.CompletedAt)
	assert.Equal(t, 4, c.TotalOpened)
}

func TestCampaignRepo_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM outreach_campaigns WHERE id = \$1`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(campaignCols))

	_, err = NewCampaignRepo(db).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, campaign.ErrNotFound)
}

func TestCampaignRepo_TransitionLostRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Now().UTC()
	mock.ExpectExec(`UPDATE outreach_campaigns SET`).
		WithArgs("c1", domain.CampaignActive, domain.CampaignPaused, "operator", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewCampaignRepo(db).Transition(context.Background(), "c1", campaign.StatusChange{
		From: domain.CampaignActive, To: domain.CampaignPaused, PausedBy: domain.PausedByOperator, At: at,
	})
	assert.ErrorIs(t, err, campaign.ErrInvalidTransition)
}

func TestCampaignRepo_PauseAndResumeForPhase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewCampaignRepo(db)
	at := time.Now().UTC()

	mock.ExpectExec(`SET status = 'paused', paused_by = 'phase_guard'.*WHERE id = \$1 AND status = 'active'`).
		WithArgs("c1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`WHERE id = \$1 AND status = 'paused' AND paused_by = 'phase_guard'`).
		WithArgs("c2", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.PauseForPhase(context.Background(), "c1", at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ResumeFromPhase(context.Background(), "c2", at)
	require.NoError(t, err)
	assert.False(t, ok, "operator-paused campaign must not match")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepo_TakeOverPauseOnlyFromGuard(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewCampaignRepo(db)
	at := time.Now().UTC()

	mock.ExpectExec(`SET paused_by = 'operator'.*WHERE id = \$1 AND status = 'paused' AND paused_by = 'phase_guard'`).
		WithArgs("c1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET paused_by = 'operator'`).
		WithArgs("c2", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.TakeOverPause(context.Background(), "c1", at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TakeOverPause(context.Background(), "c2", at)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepo_ListForPhasePage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`AND id::text > \$4 ORDER BY id::text LIMIT \$5`).
		WithArgs(domain.PhaseFounding, domain.CampaignPaused, "phase_guard", "c1", 200).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("c2", "Founders B"))

	refs, err := NewCampaignRepo(db).ListForPhase(context.Background(),
		domain.PhaseFounding, domain.CampaignPaused, domain.PausedByPhaseGuard, "c1", 200)
	require.NoError(t, err)
	assert.Equal(t, []domain.CampaignRef{{ID: "c2", Name: "Founders B"}}, refs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepo_CountTier(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM members WHERE membership_tier = \$1`).
		WithArgs("founding").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(49))

	n, err := NewMemberRepo(db).CountTier(context.Background(), "founding")
	require.NoError(t, err)
	assert.Equal(t, 49, n)
}
