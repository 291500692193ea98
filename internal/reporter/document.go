package reporter

import (
	"time"

	"github.com/iyulab/forensic-mapper/internal/artifact"
	"github.com/iyulab/forensic-mapper/internal/sigma"
)

// AnalysisTool identifies this tool in analysis documents.
const AnalysisTool = "forensic-mapper"

// Document is the complete analysis output. Its artifacts and
// kill_chain_analysis sections are what the evaluator scores.
type Document struct {
	Artifacts           *artifact.ExtractionResult `json:"artifacts"`
	ReasoningAndMapping *artifact.ReasoningResult  `json:"reasoning_and_mapping"`
	KillChainAnalysis   artifact.KillChainAnalysis `json:"kill_chain_analysis"`
	RuleMatches         []sigma.Match              `json:"rule_matches"`
	Triage              Triage                     `json:"triage"`
	SourceFile          string                     `json:"source_file"`
	AnalysisTimestamp   string                     `json:"analysis_timestamp"`
	AnalysisTool        string                     `json:"analysis_tool"`
	OntologyReady       bool                       `json:"ontology_ready"`
}

// BuildDocument assembles the complete analysis document. The kill chain
// mapping is derived from rea; a nil rea yields an empty mapping.
func BuildDocument(sourceFile, version string, ext *artifact.ExtractionResult, rea *artifact.ReasoningResult, matches []sigma.Match, now time.Time) Document {
	killChain := artifact.BuildKillChainMapping(rea)
	if killChain == nil {
		killChain = []artifact.PhaseGroup{}
	}
	if matches == nil {
		matches = []sigma.Match{}
	}

	tool := AnalysisTool
	if version != "" {
		tool += " " + version
	}

	return Document{
		Artifacts:           ext,
		ReasoningAndMapping: rea,
		KillChainAnalysis:   artifact.KillChainAnalysis{KillChainMapping: killChain},
		RuleMatches:         matches,
		Triage:              Assess(matches, killChain),
		SourceFile:          sourceFile,
		AnalysisTimestamp:   now.UTC().Format(time.RFC3339),
		AnalysisTool:        tool,
		OntologyReady:       true,
	}
}
