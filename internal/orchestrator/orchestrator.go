// Package orchestrator coordinates the Load → Extract → Match → Reason → Report pipeline.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/iyulab/forensic-mapper/internal/analyzer"
	"github.com/iyulab/forensic-mapper/internal/artifact"
	"github.com/iyulab/forensic-mapper/internal/config"
	"github.com/iyulab/forensic-mapper/internal/logging"
	"github.com/iyulab/forensic-mapper/internal/output"
	"github.com/iyulab/forensic-mapper/internal/reporter"
	"github.com/iyulab/forensic-mapper/internal/sigma"
)

// Options holds CLI flags for the orchestrator.
type Options struct {
	ReportPath string
	OutputDir  string // overrides output.dir when set
	Package    bool
	NoSave     bool
	Verbose    bool
	Version    string
}

// Orchestrator runs one analysis of one report.
type Orchestrator struct {
	cfg      *config.Config
	opts     Options
	provider analyzer.Provider // optional: injected for testing
	stdout   io.Writer
	stderr   io.Writer
	now      func() time.Time
	log      *slog.Logger
}

// New creates an Orchestrator for cfg and opts.
func New(cfg *config.Config, opts Options) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		opts:   opts,
		stdout: os.Stdout,
		stderr: os.Stderr,
		now:    time.Now,
		log:    logging.New("orchestrator"),
	}
}

// SetProvider overrides the LLM provider (used in tests).
func (o *Orchestrator) SetProvider(p analyzer.Provider) {
	o.provider = p
}

// SetOutput redirects result (stdout) and progress (stderr) output.
func (o *Orchestrator) SetOutput(stdout, stderr io.Writer) {
	o.stdout = stdout
	o.stderr = stderr
}

// Result describes a completed run.
type Result struct {
	OutputDir   string // empty with NoSave
	PackagePath string
	Document    reporter.Document
	Summary     string
	Warnings    []string
}

// LoadReport reads a report file as UTF-8 text. Invalid bytes are dropped;
// a report with no text left is an error.
func LoadReport(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}
	pre := analyzer.Preprocess(data)
	if strings.TrimSpace(pre.Text) == "" {
		return "", fmt.Errorf("report %s is empty", path)
	}
	if pre.InvalidBytes > 0 || pre.ControlChars > 0 {
		logging.New("orchestrator").Warn("report cleaned",
			"path", path, "invalid_bytes", pre.InvalidBytes, "control_chars", pre.ControlChars)
	}
	return pre.Text, nil
}

// Run executes the full pipeline. Any stage failure aborts the run; outputs
// produced before the failure stay on disk.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	startTime := o.now()

	reportText, err := LoadReport(o.opts.ReportPath)
	if err != nil {
		return nil, err
	}

	provider, err := o.newProvider(ctx)
	if err != nil {
		return nil, err
	}
	a := analyzer.New(provider, StageOptions(o.cfg)...)

	var writer *output.Writer
	if !o.opts.NoSave {
		baseDir := o.cfg.Output.Dir
		if o.opts.OutputDir != "" {
			baseDir = o.opts.OutputDir
		}
		writer, err = output.NewWriter(output.GenerateOutputDir(baseDir, o.opts.ReportPath, startTime))
		if err != nil {
			return nil, fmt.Errorf("create writer: %w", err)
		}
		if o.opts.Verbose {
			o.progress("Output: %s", writer.OutputDir())
		}
	}

	meta := output.RunMeta{
		SourceFile:      o.opts.ReportPath,
		Provider:        o.cfg.LLM.Provider,
		ExtractionModel: o.cfg.StageModel(o.cfg.Stages.Extraction),
		ReasoningModel:  o.cfg.StageModel(o.cfg.Stages.Reasoning),
		StartedAt:       startTime.UTC(),
	}

	// --- Stage 1: Extract ---
	o.progress("Stage 1: extracting artifacts (%s/%s)...", meta.Provider, meta.ExtractionModel)
	extraction, err := a.Extract(ctx, reportText)
	if err != nil {
		return nil, o.fail(writer, &meta, err)
	}
	meta.Artifacts = len(extraction.Artifacts)
	o.progress("Extracted %d artifacts", len(extraction.Artifacts))
	o.save(writer, func(w *output.Writer) error { return w.SaveJSON(output.ExtractionFile, extraction) })

	// --- Rule matching ---
	var matches []sigma.Match
	engine, err := sigma.NewDefault()
	if err != nil {
		o.log.Warn("sigma engine init failed", "error", err)
	} else {
		matches = engine.MatchAll(ctx, extraction.Artifacts)
		o.progress("Sigma: %d rule match(es) from %d rules", len(matches), engine.Len())
	}
	meta.RuleMatches = len(matches)

	// --- Stage 2: Reason and map ---
	o.progress("Stage 2: reasoning and mapping (%s/%s)...", meta.Provider, meta.ReasoningModel)
	reasoning, err := a.ReasonAndMap(ctx, extraction)
	if err != nil {
		return nil, o.fail(writer, &meta, err)
	}
	meta.ReasoningChains = len(reasoning.ReasoningChains)
	o.progress("Mapped %d reasoning chains", len(reasoning.ReasoningChains))
	o.save(writer, func(w *output.Writer) error { return w.SaveJSON(output.ReasoningFile, reasoning) })

	// --- Report ---
	doc := reporter.BuildDocument(o.opts.ReportPath, o.opts.Version, extraction, reasoning, matches, o.now())
	warnings := artifact.CheckTimeline(reasoning)
	for _, w := range warnings {
		o.log.Warn("timeline inconsistency", "detail", w)
	}
	meta.Warnings = warnings

	rep, err := reporter.New()
	if err != nil {
		return nil, fmt.Errorf("create reporter: %w", err)
	}
	summary, err := rep.RenderString(reporter.NewSummaryData(doc, o.now(), warnings))
	if err != nil {
		return nil, err
	}

	res := &Result{Document: doc, Summary: summary, Warnings: warnings}

	if writer != nil {
		o.save(writer, func(w *output.Writer) error { return w.SaveJSON(output.AnalysisFile, doc) })
		o.save(writer, func(w *output.Writer) error { return w.SaveFile(output.SummaryFile, []byte(summary)) })
		o.finish(writer, &meta)
		res.OutputDir = writer.OutputDir()

		if o.opts.Package || o.cfg.Output.Package {
			zipPath, err := reporter.ExportPackage(writer.OutputDir(), o.opts.ReportPath, o.opts.Version)
			if err != nil {
				o.log.Warn("package export failed", "error", err)
			} else {
				res.PackagePath = zipPath
				o.progress("Evidence package: %s", zipPath)
			}
		}
	}

	o.progress("Total time: %s", o.now().Sub(startTime).Round(time.Millisecond))

	fmt.Fprint(o.stdout, summary)
	if res.OutputDir != "" {
		fmt.Fprintf(o.stdout, "\nResults saved to: %s\n", res.OutputDir)
	}
	return res, nil
}

func (o *Orchestrator) newProvider(ctx context.Context) (analyzer.Provider, error) {
	provider := o.provider
	if provider == nil {
		var err error
		provider, err = analyzer.NewProvider(ctx,
			o.cfg.LLM.Provider,
			o.cfg.LLM.APIKey,
			o.cfg.LLM.Model,
			o.cfg.LLM.Endpoint,
			o.cfg.LLM.Timeout,
		)
		if err != nil {
			return nil, fmt.Errorf("create provider: %w", err)
		}
	}
	return analyzer.WithRetry(provider, o.cfg.LLM.Retries), nil
}

// StageOptions converts the configured stage profiles into analyzer options.
func StageOptions(cfg *config.Config) []analyzer.Option {
	profile := func(s config.StageConfig) analyzer.Profile {
		return analyzer.Profile{
			Model:       cfg.StageModel(s),
			Temperature: s.Temperature,
			MaxTokens:   s.MaxTokens,
		}
	}
	return []analyzer.Option{
		analyzer.WithExtractionProfile(profile(cfg.Stages.Extraction)),
		analyzer.WithReasoningProfile(profile(cfg.Stages.Reasoning)),
	}
}

// fail records a stage failure. The raw generation text is kept when the
// response could not be parsed.
func (o *Orchestrator) fail(writer *output.Writer, meta *output.RunMeta, err error) error {
	var malformed *analyzer.MalformedResponseError
	if errors.As(err, &malformed) && malformed.Raw != "" {
		o.save(writer, func(w *output.Writer) error { return w.SaveRaw(malformed.Stage, malformed.Raw) })
	}
	meta.Error = err.Error()
	if writer != nil {
		o.finish(writer, meta)
		o.progress("Partial results saved to: %s", writer.OutputDir())
	}
	return err
}

func (o *Orchestrator) finish(writer *output.Writer, meta *output.RunMeta) {
	completed := o.now()
	meta.CompletedAt = completed.UTC()
	meta.Duration = completed.Sub(meta.StartedAt).Round(time.Millisecond).String()
	o.save(writer, func(w *output.Writer) error { return w.SaveMeta(*meta) })
	o.save(writer, func(w *output.Writer) error { return w.SaveManifest(meta.SourceFile) })
}

// save runs fn against writer. Write failures are logged, not fatal.
func (o *Orchestrator) save(writer *output.Writer, fn func(*output.Writer) error) {
	if writer == nil {
		return
	}
	if err := fn(writer); err != nil {
		o.log.Warn("save output", "error", err)
	}
}

func (o *Orchestrator) progress(format string, args ...interface{}) {
	fmt.Fprintf(o.stderr, "[*] "+format+"\n", args...)
}
