// Package emailadapter renders claim notification templates and delivers them
// through Resend.
package emailadapter

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"showingcover/contexts/coverage/claim-service/ports"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateRenderer executes templates/<name>.html. Each file defines a
// "subject" and a "body" template.
type TemplateRenderer struct {
	templates map[string]*template.Template
}

func NewTemplateRenderer() (*TemplateRenderer, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}
	renderer := &TemplateRenderer{templates: make(map[string]*template.Template, len(entries))}
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".html")
		parsed, err := template.New(name).Option("missingkey=zero").ParseFS(templateFS, "templates/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", entry.Name(), err)
		}
		renderer.templates[name] = parsed
	}
	return renderer, nil
}

func (r *TemplateRenderer) Render(_ context.Context, name string, vars map[string]any) (ports.RenderedEmail, error) {
	parsed, ok := r.templates[name]
	if !ok {
		return ports.RenderedEmail{}, fmt.Errorf("unknown email template %q", name)
	}
	var subject, body bytes.Buffer
	if err := parsed.ExecuteTemplate(&subject, "subject", vars); err != nil {
		return ports.RenderedEmail{}, err
	}
	if err := parsed.ExecuteTemplate(&body, "body", vars); err != nil {
		return ports.RenderedEmail{}, err
	}
	return ports.RenderedEmail{
		Subject: strings.TrimSpace(subject.String()),
		HTML:    strings.TrimSpace(body.String()),
	}, nil
}
