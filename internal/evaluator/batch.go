package evaluator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/iyulab/forensic-mapper/internal/logging"
)

// Case is one predicted/truth document pair of a batch.
type Case struct {
	Name  string `yaml:"name" json:"name"`
	Pred  string `yaml:"pred" json:"pred"`
	Truth string `yaml:"truth" json:"truth"`
}

// Manifest lists the cases of a batch evaluation.
type Manifest struct {
	Cases []Case `yaml:"cases"`
}

// LoadManifest reads a YAML batch manifest. Relative document paths are
// resolved against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest yaml: %w", err)
	}
	if len(m.Cases) == 0 {
		return nil, fmt.Errorf("manifest %s has no cases", path)
	}

	base := filepath.Dir(path)
	for i := range m.Cases {
		c := &m.Cases[i]
		if c.Pred == "" || c.Truth == "" {
			return nil, fmt.Errorf("manifest case %d (%s): pred and truth are required", i, c.Name)
		}
		if c.Name == "" {
			c.Name = filepath.Base(c.Pred)
		}
		if !filepath.IsAbs(c.Pred) {
			c.Pred = filepath.Join(base, c.Pred)
		}
		if !filepath.IsAbs(c.Truth) {
			c.Truth = filepath.Join(base, c.Truth)
		}
	}
	return &m, nil
}

// CaseResult is the score of one batch case.
type CaseResult struct {
	Name   string `json:"name"`
	Result Result `json:"result"`
}

// BatchResult holds per-case scores in manifest order and their macro average.
type BatchResult struct {
	Cases   []CaseResult `json:"cases"`
	Average Averages     `json:"average"`
}

// Averages is the unweighted mean of each score across cases.
type Averages struct {
	Precision       float64 `json:"precision"`
	Recall          float64 `json:"recall"`
	F1              float64 `json:"f1"`
	MappingAccuracy float64 `json:"mapping_accuracy"`
}

// EvaluateBatch scores every case with up to workers cases in flight.
// The first document that fails to load cancels the remaining cases and is
// returned as an *InputLoadError.
func EvaluateBatch(ctx context.Context, cases []Case, workers int) (*BatchResult, error) {
	if workers < 1 {
		workers = 1
	}
	log := logging.New("evaluator")

	results := make([]CaseResult, len(cases))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range cases {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			pred, err := LoadDocument(c.Pred)
			if err != nil {
				return err
			}
			truth, err := LoadDocument(c.Truth)
			if err != nil {
				return err
			}
			r := Score(pred, truth)
			log.Debug("case scored", "case", c.Name, "f1", r.F1, "mapping_accuracy", r.MappingAccuracy)
			results[i] = CaseResult{Name: c.Name, Result: r}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &BatchResult{Cases: results, Average: average(results)}, nil
}

func average(results []CaseResult) Averages {
	var avg Averages
	if len(results) == 0 {
		return avg
	}
	for _, r := range results {
		avg.Precision += r.Result.Precision
		avg.Recall += r.Result.Recall
		avg.F1 += r.Result.F1
		avg.MappingAccuracy += r.Result.MappingAccuracy
	}
	n := float64(len(results))
	avg.Precision /= n
	avg.Recall /= n
	avg.F1 /= n
	avg.MappingAccuracy /= n
	return avg
}
