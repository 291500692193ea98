package reporter

import (
	"embed"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/iyulab/forensic-mapper/internal/artifact"
	"github.com/iyulab/forensic-mapper/internal/sigma"
)

//go:embed templates/*.tmpl
var templates embed.FS

// chainPreview is how many reasoning chains the summary shows in full.
const chainPreview = 3

// SummaryData is the data model passed to the summary template.
type SummaryData struct {
	SourceFile  string
	GeneratedAt time.Time
	Tool        string

	Extraction  *artifact.ExtractionResult
	Reasoning   *artifact.ReasoningResult
	KillChain   []artifact.PhaseGroup
	RuleMatches []sigma.Match
	Triage      Triage
	Stats       Stats
	Warnings    []string
}

// NewSummaryData derives the summary model from a complete analysis document.
func NewSummaryData(doc Document, generatedAt time.Time, warnings []string) SummaryData {
	matches := append([]sigma.Match(nil), doc.RuleMatches...)
	sigma.SortByLevel(matches)
	kc := doc.KillChainAnalysis.KillChainMapping
	return SummaryData{
		SourceFile:  doc.SourceFile,
		GeneratedAt: generatedAt,
		Tool:        doc.AnalysisTool,
		Extraction:  doc.Artifacts,
		Reasoning:   doc.ReasoningAndMapping,
		KillChain:   kc,
		RuleMatches: matches,
		Triage:      doc.Triage,
		Stats:       Aggregate(doc.Artifacts, doc.ReasoningAndMapping, kc, matches),
		Warnings:    warnings,
	}
}

// Reporter renders plain-text summaries.
type Reporter struct {
	tmpl *template.Template
}

// New creates a Reporter with the embedded summary template.
func New() (*Reporter, error) {
	funcMap := template.FuncMap{
		"upper": strings.ToUpper,
		"fallback": func(s, def string) string {
			if strings.TrimSpace(s) == "" {
				return def
			}
			return s
		},
		"preview": func(chains []artifact.ReasoningChain) []artifact.ReasoningChain {
			if len(chains) > chainPreview {
				return chains[:chainPreview]
			}
			return chains
		},
		"remaining": func(chains []artifact.ReasoningChain) int {
			if len(chains) > chainPreview {
				return len(chains) - chainPreview
			}
			return 0
		},
		"inc":  func(i int) int { return i + 1 },
		"rule": func(n int) string { return strings.Repeat("=", n) },
		"dash": func(n int) string { return strings.Repeat("-", n) },
	}

	tmpl, err := template.New("summary.txt.tmpl").Funcs(funcMap).ParseFS(templates, "templates/summary.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	return &Reporter{tmpl: tmpl}, nil
}

// Render writes the summary to w.
func (r *Reporter) Render(w io.Writer, data SummaryData) error {
	if err := r.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	return nil
}

// RenderString renders the summary to a string.
func (r *Reporter) RenderString(data SummaryData) (string, error) {
	var buf strings.Builder
	if err := r.Render(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
