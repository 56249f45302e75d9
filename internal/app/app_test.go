package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/founders-outreach/internal/config"
	"github.com/ignite/founders-outreach/internal/mailer"
	"github.com/ignite/founders-outreach/internal/pkg/distlock"
)

func TestJobs_FollowConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Drip.Enabled = true
	cfg.Drip.IntervalSeconds = 60
	cfg.Phase.IntervalSeconds = 900

	jobs := (&App{Config: cfg}).Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "drip", jobs[0].Name)
	assert.Equal(t, distlock.KeyDrip, jobs[0].LockKey)

	cfg.Phase.Enabled = true
	jobs = (&App{Config: cfg}).Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, distlock.KeyPhaseGuard, jobs[1].LockKey)
}

func TestTemplatesFromConfig(t *testing.T) {
	got := templatesFromConfig([]config.TemplateConfig{
		{Persona: " Investor ", Stage: 1, Subject: "s", HTML: "h"},
	})
	assert.Equal(t, []mailer.Template{{Persona: "investor", Stage: 1, Subject: "s", HTML: "h"}}, got)
}

func TestDSNHost(t *testing.T) {
	assert.Equal(t, "db.internal:5432", dsnHost("postgres://u:p@db.internal:5432/outreach?sslmode=disable"))
	assert.Equal(t, "(unknown)", dsnHost("host=localhost"))
}

func TestOpenDB_RequiresURL(t *testing.T) {
	_, err := OpenDB(context.Background(), config.DatabaseConfig{})
	assert.Error(t, err)
}

func TestNewSender_PicksProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.Mail.Provider = "sendgrid"
	s, err := newSender(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &mailer.SendGridSender{}, s)
}
