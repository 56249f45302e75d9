package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTemplates(t *testing.T) *TemplateSet {
	t.Helper()
	ts, err := NewTemplateSet([]Template{
		{Persona: "general", Stage: 0, Subject: "Hi {{ name | first_name | default: \"there\" }}", HTML: `<p>{{ company }}</p><a href="{{ unsubscribe_url }}">unsubscribe</a>`},
		{Persona: "investor", Stage: 0, Subject: "For investors", HTML: "<p>{{ invite_code }}</p>"},
		{Persona: "", Stage: 1, Subject: "Follow-up", HTML: "<p>again</p>"},
	})
	require.NoError(t, err)
	return ts
}

func TestTemplateSet_Render(t *testing.T) {
	ts := testTemplates(t)

	subject, html, err := ts.Render("general", 0, map[string]any{
		"name": "Ada Lovelace", "company": "Engines", "unsubscribe_url": "https://x.io/u/1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ada", subject)
	assert.Contains(t, html, "<p>Engines</p>")
	assert.Contains(t, html, "https://x.io/u/1")

	subject, _, err = ts.Render("general", 0, map[string]any{"name": ""})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", subject)
}

func TestTemplateSet_PersonaFallback(t *testing.T) {
	ts := testTemplates(t)

	subject, html, err := ts.Render("investor", 0, map[string]any{"invite_code": "FOUNDING-ABC123"})
	require.NoError(t, err)
	assert.Equal(t, "For investors", subject)
	assert.Contains(t, html, "FOUNDING-ABC123")

	subject, _, err = ts.Render("investor", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "Follow-up", subject)

	_, _, err = ts.Render("investor", 3, nil)
	assert.ErrorIs(t, err, ErrNoTemplate)
}

func TestNewTemplateSet_SyntaxError(t *testing.T) {
	_, err := NewTemplateSet([]Template{{Persona: "general", Stage: 0, Subject: "{% if %}", HTML: ""}})
	assert.Error(t, err)
}
