package ai

import (
	"context"
	"fmt"
	"strings"
	"text/template"
)

const defaultCandidate = "Candidate"

// DefaultTemplate is used when no custom template is configured.
const DefaultTemplate = `Dear {{with .Company}}{{.}} {{end}}hiring team,

I am excited to apply for the {{.Title}} position{{with .Location}} in {{.}}{{end}}.
{{- with .Skills}} My experience with {{join . ", "}} matches what you are looking for.{{end}}
{{- with .Years}} I bring {{.}} years of professional experience.{{end}}

I would welcome the chance to discuss how I can contribute to {{or .Company "your team"}}.

Best regards,
{{.Candidate}}`

type letterData struct {
	Candidate string
	Company   string
	Title     string
	Location  string
	Skills    []string
	Years     int
}

// TemplateWriter renders cover letters from a text/template without any
// external calls.
type TemplateWriter struct {
	tmpl *template.Template
}

func NewTemplateWriter(text string) (*TemplateWriter, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultTemplate
	}

	tmpl, err := template.New("cover_letter").
		Funcs(template.FuncMap{"join": strings.Join}).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse cover letter template: %w", err)
	}

	return &TemplateWriter{tmpl: tmpl}, nil
}

func (w *TemplateWriter) Write(_ context.Context, req LetterRequest) (string, error) {
	if req.Result == nil || req.Result.Job == nil {
		return "", ErrNoJob
	}
	job := req.Result.Job

	data := letterData{
		Candidate: strings.TrimSpace(req.Candidate),
		Company:   strings.TrimSpace(job.Company),
		Title:     strings.TrimSpace(job.Title),
		Location:  strings.TrimSpace(job.Location),
		Skills:    MatchedSkills(req),
	}
	if data.Candidate == "" {
		data.Candidate = defaultCandidate
	}
	if req.Profile != nil {
		data.Years = req.Profile.YearsOfExperience
	}

	var b strings.Builder
	if err := w.tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render cover letter: %w", err)
	}
	return strings.TrimSpace(b.String()), nil
}
