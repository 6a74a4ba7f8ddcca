package sink

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"ghnotifier/internal/notifications"
)

// DefaultTemplate renders "[Issue]\nTitle".
const DefaultTemplate = "[{{ .SubjectType }}]\n{{ .SubjectTitle }}"

// Message is a rendered notification.
type Message struct {
	// Summary is the repository full name.
	Summary string
	Body    string
}

// Renderer turns notifications into messages. The body template has the
// sprig function set available and receives a notifications.Notification.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses text, falling back to DefaultTemplate when it is blank.
func NewRenderer(text string) (*Renderer, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultTemplate
	}
	tmpl, err := template.New("body").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse notification template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render renders n.
func (r *Renderer) Render(n notifications.Notification) (Message, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, n); err != nil {
		return Message{}, fmt.Errorf("render notification %s: %w", n.ID, err)
	}
	return Message{Summary: n.RepositoryFullName, Body: buf.String()}, nil
}
