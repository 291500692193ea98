// Package artifact defines the forensic artifact data model shared by the
// extraction pipeline and the evaluator.
package artifact

import (
	"encoding/json"
	"strings"
)

// Confidence levels the extraction contract allows.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// ValidConfidenceLevels are the accepted artifact confidence values.
var ValidConfidenceLevels = map[string]bool{
	ConfidenceHigh:   true,
	ConfidenceMedium: true,
	ConfidenceLow:    true,
}

// Artifact is a single forensic indicator extracted from a report.
type Artifact struct {
	Type       string     `json:"type"`
	Value      string     `json:"value"`
	Properties Properties `json:"properties,omitempty"`
	Context    string     `json:"context,omitempty"`
	Confidence string     `json:"confidence,omitempty"`
}

// Properties holds free-form artifact metadata such as hash_type or tool_version.
// Generated output sometimes carries numbers or booleans here; those are kept
// in their JSON text form instead of failing the decode, and a properties
// value that is not an object at all decodes as empty.
type Properties map[string]string

// UnmarshalJSON implements json.Unmarshaler.
func (p *Properties) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*p = nil
		return nil
	}
	out := make(Properties, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		text := strings.TrimSpace(string(v))
		if text == "null" {
			text = ""
		}
		out[k] = text
	}
	*p = out
	return nil
}

// ExtractionMetadata summarizes the confidence distribution of extracted artifacts.
type ExtractionMetadata struct {
	TotalArtifacts   int `json:"total_artifacts"`
	HighConfidence   int `json:"high_confidence"`
	MediumConfidence int `json:"medium_confidence"`
	LowConfidence    int `json:"low_confidence"`
}

// ExtractionResult is the Stage 1 output document.
type ExtractionResult struct {
	Artifacts          []Artifact         `json:"artifacts"`
	ExtractionMetadata ExtractionMetadata `json:"extraction_metadata"`
}

// ReasoningStep is one question/answer step of a Chain-of-Thought reasoning chain.
type ReasoningStep struct {
	Step       int    `json:"step"`
	Question   string `json:"question"`
	Analysis   string `json:"analysis"`
	Conclusion string `json:"conclusion"`
}

// FinalMapping is the attack-framework classification concluded for one artifact.
type FinalMapping struct {
	Tactic                string `json:"tactic"`
	Technique             string `json:"technique"`
	Phase                 string `json:"phase"`
	Confidence            string `json:"confidence"`
	ExplicitJustification string `json:"explicit_justification"`
}

// ReasoningChain is the per-artifact reasoning produced by Stage 2.
type ReasoningChain struct {
	ArtifactID     string          `json:"artifact_id"`
	Artifact       Artifact        `json:"artifact"`
	ReasoningSteps []ReasoningStep `json:"reasoning_steps"`
	FinalMapping   FinalMapping    `json:"final_mapping"`
}

// TimelineEntry is one phase of the reconstructed attack timeline.
// ChronologicalOrder is advisory and never validated against the chains.
type TimelineEntry struct {
	Phase               string   `json:"phase"`
	Tactic              string   `json:"tactic"`
	Technique           string   `json:"technique"`
	Artifacts           []string `json:"artifacts"`
	ChronologicalOrder  int      `json:"chronological_order"`
	CausalRelationships []string `json:"causal_relationships"`
	PhaseJustification  string   `json:"phase_justification"`
}

// ConfidenceAssessment is the model's self-assessment of the reasoning output.
type ConfidenceAssessment struct {
	OverallConfidence string `json:"overall_confidence"`
	ReasoningQuality  string `json:"reasoning_quality"`
	MappingValidation string `json:"mapping_validation"`
}

// ReasoningResult is the Stage 2 output document.
type ReasoningResult struct {
	ReasoningChains        []ReasoningChain     `json:"reasoning_chains"`
	AttackTimeline         []TimelineEntry      `json:"attack_timeline"`
	OverallAttackNarrative string               `json:"overall_attack_narrative"`
	ConfidenceAssessment   ConfidenceAssessment `json:"confidence_assessment"`
}

// PhaseGroup lists the artifacts assigned to one attack-lifecycle phase.
type PhaseGroup struct {
	Phase     string     `json:"phase"`
	Artifacts []Artifact `json:"artifacts"`
}

// KillChainAnalysis is the scorable phase mapping section of an analysis document.
type KillChainAnalysis struct {
	KillChainMapping []PhaseGroup `json:"kill_chain_mapping"`
}

// CountConfidence tallies artifacts by confidence level.
// Unrecognized confidence values are counted in the total only.
func CountConfidence(artifacts []Artifact) ExtractionMetadata {
	meta := ExtractionMetadata{TotalArtifacts: len(artifacts)}
	for _, a := range artifacts {
		switch strings.ToLower(strings.TrimSpace(a.Confidence)) {
		case ConfidenceHigh:
			meta.HighConfidence++
		case ConfidenceMedium:
			meta.MediumConfidence++
		case ConfidenceLow:
			meta.LowConfidence++
		}
	}
	return meta
}
