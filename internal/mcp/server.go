// Package mcp exposes evaluation, response recovery and report analysis as
// MCP tools. Run the server with s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{}).
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/iyulab/forensic-mapper/internal/analyzer"
	"github.com/iyulab/forensic-mapper/internal/artifact"
	"github.com/iyulab/forensic-mapper/internal/evaluator"
	"github.com/iyulab/forensic-mapper/internal/logging"
	"github.com/iyulab/forensic-mapper/internal/reporter"
	"github.com/iyulab/forensic-mapper/internal/sigma"
)

// Server wraps the MCP SDK server.
type Server struct {
	MCPServer *sdkmcp.Server

	version  string
	provider analyzer.Provider // nil disables analyze_report
	opts     []analyzer.Option
	log      *slog.Logger
}

// NewServer creates a server with all tools registered. provider may be nil
// when no LLM is configured; analyze_report then reports an error.
func NewServer(version string, provider analyzer.Provider, opts ...analyzer.Option) *Server {
	s := &Server{
		MCPServer: sdkmcp.NewServer(&sdkmcp.Implementation{Name: reporter.AnalysisTool, Version: version}, nil),
		version:   version,
		provider:  provider,
		opts:      opts,
		log:       logging.New("mcp"),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "evaluate_documents",
		Description: "Score a predicted analysis document against a ground-truth document. Returns artifact precision, recall, F1 and phase mapping accuracy.",
	}, s.handleEvaluate)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "parse_response",
		Description: "Recover a JSON object from raw model output: bare JSON or the first ```json fenced block.",
	}, s.handleParseResponse)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "analyze_report",
		Description: "Run artifact extraction and kill chain mapping over an incident report text. Requires a configured LLM provider.",
	}, s.handleAnalyzeReport)
}

// --- Tool input/output types ---

type evaluateInput struct {
	Prediction map[string]any `json:"prediction" jsonschema:"predicted analysis document"`
	Truth      map[string]any `json:"truth" jsonschema:"ground-truth annotation document"`
	Details    bool           `json:"details,omitempty" jsonschema:"include per-artifact differences"`
}

type evaluateOutput struct {
	Precision       float64            `json:"precision"`
	Recall          float64            `json:"recall"`
	F1              float64            `json:"f1"`
	MappingAccuracy float64            `json:"mapping_accuracy"`
	Details         *evaluator.Details `json:"details,omitempty"`
}

type parseResponseInput struct {
	Text  string `json:"text" jsonschema:"raw generation text"`
	Stage string `json:"stage,omitempty" jsonschema:"extraction or reasoning, to count the decoded items"`
}

type parseResponseOutput struct {
	Object          map[string]any `json:"object"`
	Artifacts       int            `json:"artifacts,omitempty"`
	ReasoningChains int            `json:"reasoning_chains,omitempty"`
}

type analyzeReportInput struct {
	Text       string `json:"text" jsonschema:"incident report text"`
	SourceFile string `json:"source_file,omitempty" jsonschema:"name recorded as the document source"`
}

type analyzeReportOutput struct {
	Document reporter.Document `json:"document"`
	Warnings []string          `json:"warnings,omitempty"`
}

// --- Tool handlers ---

func (s *Server) handleEvaluate(ctx context.Context, _ *sdkmcp.CallToolRequest, input evaluateInput) (*sdkmcp.CallToolResult, evaluateOutput, error) {
	if input.Prediction == nil || input.Truth == nil {
		return nil, evaluateOutput{}, errors.New("prediction and truth documents are required")
	}
	r := evaluator.Score(evaluator.Document(input.Prediction), evaluator.Document(input.Truth))
	out := evaluateOutput{
		Precision:       r.Precision,
		Recall:          r.Recall,
		F1:              r.F1,
		MappingAccuracy: r.MappingAccuracy,
	}
	if input.Details {
		out.Details = &r.Details
	}
	s.log.Debug("evaluated documents", "f1", r.F1, "mapping_accuracy", r.MappingAccuracy)
	return nil, out, nil
}

func (s *Server) handleParseResponse(ctx context.Context, _ *sdkmcp.CallToolRequest, input parseResponseInput) (*sdkmcp.CallToolResult, parseResponseOutput, error) {
	var out parseResponseOutput
	if err := analyzer.ParseResponse(input.Text, &out.Object); err != nil {
		return nil, parseResponseOutput{}, err
	}

	switch strings.ToLower(input.Stage) {
	case "":
	case analyzer.StageExtraction:
		var ext artifact.ExtractionResult
		if err := analyzer.ParseResponse(input.Text, &ext); err == nil {
			out.Artifacts = len(ext.Artifacts)
		}
	case analyzer.StageReasoning:
		var rea artifact.ReasoningResult
		if err := analyzer.ParseResponse(input.Text, &rea); err == nil {
			out.ReasoningChains = len(rea.ReasoningChains)
		}
	default:
		return nil, parseResponseOutput{}, fmt.Errorf("unknown stage %q (want %s or %s)", input.Stage, analyzer.StageExtraction, analyzer.StageReasoning)
	}
	return nil, out, nil
}

func (s *Server) handleAnalyzeReport(ctx context.Context, _ *sdkmcp.CallToolRequest, input analyzeReportInput) (*sdkmcp.CallToolResult, analyzeReportOutput, error) {
	if s.provider == nil {
		return nil, analyzeReportOutput{}, errors.New("no LLM provider configured")
	}
	text := analyzer.Preprocess([]byte(input.Text)).Text
	if strings.TrimSpace(text) == "" {
		return nil, analyzeReportOutput{}, errors.New("report text is empty")
	}
	source := input.SourceFile
	if source == "" {
		source = "inline"
	}

	res, err := analyzer.New(s.provider, s.opts...).Run(ctx, text)
	if err != nil {
		return nil, analyzeReportOutput{}, fmt.Errorf("analyze report: %w", err)
	}

	var matches []sigma.Match
	if engine, err := sigma.NewDefault(); err != nil {
		s.log.Warn("sigma engine init failed", "error", err)
	} else {
		matches = engine.MatchAll(ctx, res.Extraction.Artifacts)
	}

	doc := reporter.BuildDocument(source, s.version, res.Extraction, res.Reasoning, matches, time.Now())
	s.log.Info("report analyzed", "source", source, "artifacts", len(res.Extraction.Artifacts), "rule_matches", len(matches))
	return nil, analyzeReportOutput{Document: doc, Warnings: artifact.CheckTimeline(res.Reasoning)}, nil
}
