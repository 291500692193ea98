package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iyulab/forensic-mapper/internal/artifact"
	"github.com/iyulab/forensic-mapper/internal/logging"
)

// Profile is the sampling configuration one stage uses for its generation call.
type Profile struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// DefaultExtractionProfile favors deterministic, consistent extraction.
var DefaultExtractionProfile = Profile{Temperature: 0.1, MaxTokens: 6000}

// DefaultReasoningProfile allows more varied reasoning and a larger output budget.
var DefaultReasoningProfile = Profile{Temperature: 0.3, MaxTokens: 8000}

// Analyzer orchestrates the two-stage extraction and reasoning pipeline.
type Analyzer struct {
	provider   Provider
	extraction Profile
	reasoning  Profile
	log        *slog.Logger
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithExtractionProfile overrides the Stage 1 sampling profile.
func WithExtractionProfile(p Profile) Option {
	return func(a *Analyzer) { a.extraction = p }
}

// WithReasoningProfile overrides the Stage 2 sampling profile.
func WithReasoningProfile(p Profile) Option {
	return func(a *Analyzer) { a.reasoning = p }
}

// New creates an Analyzer with the given provider.
func New(provider Provider, opts ...Option) *Analyzer {
	a := &Analyzer{
		provider:   provider,
		extraction: DefaultExtractionProfile,
		reasoning:  DefaultReasoningProfile,
		log:        logging.New("analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Result is the output of one full pipeline run.
type Result struct {
	Extraction *artifact.ExtractionResult
	Reasoning  *artifact.ReasoningResult
}

// Run executes Stage 1 then Stage 2. Stage 2 never starts if Stage 1 fails.
func (a *Analyzer) Run(ctx context.Context, reportText string) (*Result, error) {
	extraction, err := a.Extract(ctx, reportText)
	if err != nil {
		return nil, err
	}
	reasoning, err := a.ReasonAndMap(ctx, extraction)
	if err != nil {
		return &Result{Extraction: extraction}, err
	}
	return &Result{Extraction: extraction, Reasoning: reasoning}, nil
}

// Extract runs Stage 1: one generation call that turns report text into typed artifacts.
func (a *Analyzer) Extract(ctx context.Context, reportText string) (*artifact.ExtractionResult, error) {
	a.log.Debug("extracting artifacts", "report_chars", len(reportText))

	raw, err := a.generate(ctx, StageExtraction, a.extraction, ExtractionSystemPrompt, BuildExtractionPrompt(reportText), ExtractionSchema)
	if err != nil {
		return nil, err
	}

	var result artifact.ExtractionResult
	if err := parse(StageExtraction, raw, &result); err != nil {
		return nil, err
	}

	for i := range result.Artifacts {
		result.Artifacts[i].Confidence = strings.ToLower(strings.TrimSpace(result.Artifacts[i].Confidence))
	}
	if result.ExtractionMetadata == (artifact.ExtractionMetadata{}) && len(result.Artifacts) > 0 {
		result.ExtractionMetadata = artifact.CountConfidence(result.Artifacts)
	}

	a.log.Info("artifacts extracted", "count", len(result.Artifacts))
	return &result, nil
}

// ReasonAndMap runs Stage 2: the full Stage 1 result is serialized into the
// prompt as-is and the model returns reasoning chains, a timeline and a narrative.
func (a *Analyzer) ReasonAndMap(ctx context.Context, extraction *artifact.ExtractionResult) (*artifact.ReasoningResult, error) {
	if extraction == nil {
		return nil, fmt.Errorf("%s: no extraction result", StageReasoning)
	}
	artifactsJSON, err := json.MarshalIndent(extraction, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal artifacts: %w", err)
	}

	a.log.Debug("mapping artifacts", "artifacts", len(extraction.Artifacts))

	raw, err := a.generate(ctx, StageReasoning, a.reasoning, ReasoningSystemPrompt, BuildReasoningPrompt(string(artifactsJSON)), ReasoningSchema)
	if err != nil {
		return nil, err
	}

	var result artifact.ReasoningResult
	if err := parse(StageReasoning, raw, &result); err != nil {
		return nil, err
	}

	a.log.Info("reasoning complete", "chains", len(result.ReasoningChains), "timeline_phases", len(result.AttackTimeline))
	return &result, nil
}

func (a *Analyzer) generate(ctx context.Context, stage string, p Profile, system, user string, schema interface{}) (string, error) {
	raw, err := a.provider.Generate(ctx, Request{
		System:      system,
		User:        user,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		Model:       p.Model,
		Schema:      schema,
	})
	if err != nil {
		return "", &GenerationError{Stage: stage, Err: err}
	}
	return raw, nil
}

func parse(stage, raw string, v interface{}) error {
	err := ParseResponse(raw, v)
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		malformed.Stage = stage
	}
	return err
}
