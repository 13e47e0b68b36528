package report

import (
	"bytes"
	"text/template"
)

// Row is one line of the end-of-run summary.
type Row struct {
	Image  string
	Status string
	Report string
}

// SummaryContext holds all data passed to the summary template.
type SummaryContext struct {
	RunID   string
	Rows    []Row
	Scanned int
	Skipped int
	Failed  int
}

const summaryTemplate = `
Scan Summary ({{ .RunID }})

| Image | Status | Report |
|-------|--------|--------|
{{- range .Rows }}
| {{ .Image }} | {{ .Status }} | {{ if .Report }}{{ .Report }}{{ else }}-{{ end }} |
{{- end }}

Scanned: {{ .Scanned }} | Skipped: {{ .Skipped }} | Failed: {{ .Failed }}
`

// RenderSummary generates the human-readable batch summary.
func RenderSummary(ctx SummaryContext) (string, error) {
	tmpl, err := template.New("summary").Parse(summaryTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", err
	}

	return buf.String(), nil
}
