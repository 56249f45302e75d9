package mailer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/osteele/liquid"

	"github.com/ignite/founders-outreach/internal/domain"
)

// ErrNoTemplate is returned when neither the persona nor the default
// persona has a template for a stage.
var ErrNoTemplate = errors.New("no template for persona and stage")

// Template is one drip step's content for a persona.
type Template struct {
	Persona string
	Stage   int
	Subject string
	HTML    string
}

type compiled struct {
	subject *liquid.Template
	html    *liquid.Template
}

// TemplateSet holds parsed Liquid templates keyed by (persona, stage).
// It is read-only after construction and safe for concurrent use.
type TemplateSet struct {
	byKey map[string]compiled
}

func templateKey(persona string, stage int) string {
	return fmt.Sprintf("%s/%d", persona, stage)
}

// NewTemplateSet parses every template up front so a syntax error fails
// startup rather than a send.
func NewTemplateSet(templates []Template) (*TemplateSet, error) {
	engine := liquid.NewEngine()
	registerFilters(engine)

	ts := &TemplateSet{byKey: make(map[string]compiled, len(templates))}
	for _, t := range templates {
		persona := strings.ToLower(strings.TrimSpace(t.Persona))
		if persona == "" {
			persona = domain.DefaultPersona
		}
		subj, err := engine.ParseString(t.Subject)
		if err != nil {
			return nil, fmt.Errorf("template %s subject: %w", templateKey(persona, t.Stage), err)
		}
		body, err := engine.ParseString(t.HTML)
		if err != nil {
			return nil, fmt.Errorf("template %s html: %w", templateKey(persona, t.Stage), err)
		}
		ts.byKey[templateKey(persona, t.Stage)] = compiled{subject: subj, html: body}
	}
	return ts, nil
}

// Render resolves the template for (persona, stage), falling back to the
// default persona, and renders subject and HTML with vars.
func (ts *TemplateSet) Render(persona string, stage int, vars map[string]any) (subject, html string, err error) {
	c, ok := ts.byKey[templateKey(persona, stage)]
	if !ok {
		c, ok = ts.byKey[templateKey(domain.DefaultPersona, stage)]
	}
	if !ok {
		return "", "", fmt.Errorf("%w: %s stage %d", ErrNoTemplate, persona, stage)
	}

	subject, err = c.subject.RenderString(vars)
	if err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	html, err = c.html.RenderString(vars)
	if err != nil {
		return "", "", fmt.Errorf("render html: %w", err)
	}
	return strings.TrimSpace(subject), html, nil
}

func registerFilters(engine *liquid.Engine) {
	// {{ name | default: "there" }}
	engine.RegisterFilter("default", func(value interface{}, fallback string) interface{} {
		if value == nil {
			return fallback
		}
		if s := fmt.Sprintf("%v", value); s == "" || s == "<nil>" {
			return fallback
		}
		return value
	})

	// {{ name | first_name }}
	engine.RegisterFilter("first_name", func(s string) string {
		fields := strings.Fields(s)
		if len(fields) == 0 {
			return ""
		}
		return fields[0]
	})
}
