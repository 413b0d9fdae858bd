package report

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/shenikar/crisis_command_system/internal/models"
)

// Renderer - подключаемый рендерер отчёта о кризисе
type Renderer interface {
	Render(view *models.CrisisReportView) ([]byte, error)
}

const textTemplate = `CRISIS INCIDENT REPORT
======================

Crisis ID:       {{.CrisisID}}
Description:     {{.Description}}
Location:        {{.Location}}
Category:        {{.Category}}
Risk Score:      {{printf "%.2f" .RiskScore}}

Submitted At:    {{.SubmittedAt.Format "2006-01-02 15:04:05 MST"}}
Approval Status: {{.ApprovalStatus}}
{{- if .ApprovalTime}}
Approval Time:   {{.ApprovalTime.Format "2006-01-02 15:04:05 MST"}}
{{- end}}
{{- if .DispatchTime}}
Dispatch Time:   {{.DispatchTime.Format "2006-01-02 15:04:05 MST"}}
{{- end}}

Notified Units:
{{- if .NotifiedUnits}}
{{- range .NotifiedUnits}}
  - {{.}}
{{- end}}
{{- else}}
  (none)
{{- end}}
`

// TextRenderer печатает отчёт в текстовом виде
type TextRenderer struct {
	tmpl *template.Template
}

// NewTextRenderer создает текстовый рендерер
func NewTextRenderer() (*TextRenderer, error) {
	tmpl, err := template.New("crisis_report").Parse(textTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	return &TextRenderer{tmpl: tmpl}, nil
}

// Render формирует отчёт по данным кризиса
func (r *TextRenderer) Render(view *models.CrisisReportView) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}
