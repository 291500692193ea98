// Package reporter turns pipeline results into the complete analysis
// document, the plain-text summary and the evidence package.
package reporter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iyulab/forensic-mapper/internal/artifact"
	"github.com/iyulab/forensic-mapper/internal/sigma"
)

// Stats aggregates counts shown at the top of the summary.
type Stats struct {
	Confidence      artifact.ExtractionMetadata `json:"confidence"`
	ByType          []TypeCount                 `json:"by_type"`
	Phases          []PhaseCount                `json:"phases"`
	MappedArtifacts int                         `json:"mapped_artifacts"`
	MappingConf     ConfidenceSummary           `json:"mapping_confidence"`
	RuleLevels      map[string]int              `json:"rule_levels,omitempty"`
}

// TypeCount is the number of extracted artifacts of one normalized type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// PhaseCount is the number of artifacts mapped to one phase.
type PhaseCount struct {
	Phase string `json:"phase"`
	Count int    `json:"count"`
}

// ConfidenceSummary counts final mappings by confidence level.
type ConfidenceSummary struct {
	High    int `json:"high"`
	Medium  int `json:"medium"`
	Low     int `json:"low"`
	Unrated int `json:"unrated"`
}

// Aggregate computes summary statistics. Any argument may be nil.
func Aggregate(ext *artifact.ExtractionResult, rea *artifact.ReasoningResult, killChain []artifact.PhaseGroup, matches []sigma.Match) Stats {
	var s Stats
	if ext != nil {
		s.Confidence = artifact.CountConfidence(ext.Artifacts)
		s.ByType = countByType(ext.Artifacts)
	}
	if rea != nil {
		s.MappingConf = SummarizeConfidence(rea.ReasoningChains)
	}
	for _, g := range killChain {
		s.Phases = append(s.Phases, PhaseCount{Phase: g.Phase, Count: len(g.Artifacts)})
		s.MappedArtifacts += len(g.Artifacts)
	}
	if len(matches) > 0 {
		s.RuleLevels = make(map[string]int)
		for _, m := range matches {
			s.RuleLevels[m.Level]++
		}
	}
	return s
}

func countByType(artifacts []artifact.Artifact) []TypeCount {
	counts := make(map[string]int)
	for _, a := range artifacts {
		if k, ok := artifact.KeyOf(a); ok {
			counts[k.Type]++
		}
	}
	out := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// SummarizeConfidence counts final mappings by confidence level.
func SummarizeConfidence(chains []artifact.ReasoningChain) ConfidenceSummary {
	var s ConfidenceSummary
	for _, c := range chains {
		switch strings.ToLower(strings.TrimSpace(c.FinalMapping.Confidence)) {
		case artifact.ConfidenceHigh:
			s.High++
		case artifact.ConfidenceMedium:
			s.Medium++
		case artifact.ConfidenceLow:
			s.Low++
		default:
			s.Unrated++
		}
	}
	return s
}

// Triage is the response priority suggested by the deterministic signals.
type Triage struct {
	Urgency string `json:"urgency"` // immediate, urgent, monitor, none
	Reason  string `json:"reason"`
}

// impactPhases are lifecycle phases whose presence means the attacker
// already reached their objective.
var impactPhases = []string{"exfiltration", "impact", "command and control"}

// Assess derives a triage priority from rule matches and the mapped phases.
func Assess(matches []sigma.Match, killChain []artifact.PhaseGroup) Triage {
	for _, m := range matches {
		if m.Level == "critical" {
			return Triage{Urgency: "immediate", Reason: fmt.Sprintf("critical rule match: %s (%s)", m.RuleTitle, m.Artifact)}
		}
	}

	var reached []string
	for _, g := range killChain {
		p := strings.ToLower(g.Phase)
		for _, ip := range impactPhases {
			if strings.Contains(p, ip) {
				reached = append(reached, g.Phase)
				break
			}
		}
	}
	high := 0
	for _, m := range matches {
		if m.Level == "high" {
			high++
		}
	}

	switch {
	case len(reached) > 0 && high > 0:
		return Triage{Urgency: "immediate", Reason: fmt.Sprintf("high-severity rule matches and late-stage activity (%s)", strings.Join(reached, ", "))}
	case high >= 2 || len(reached) > 0:
		reason := fmt.Sprintf("%d high-severity rule matches", high)
		if len(reached) > 0 {
			reason = "late-stage activity mapped: " + strings.Join(reached, ", ")
		}
		return Triage{Urgency: "urgent", Reason: reason}
	case high == 1 || len(matches) > 0:
		return Triage{Urgency: "monitor", Reason: fmt.Sprintf("%d rule matches below critical severity", len(matches))}
	}
	return Triage{Urgency: "none", Reason: "no deterministic rule matches"}
}
