// Package sigma evaluates Sigma detection rules against extracted artifacts.
package sigma

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	sigmalib "github.com/bradleyjkemp/sigma-go"
	"github.com/bradleyjkemp/sigma-go/evaluator"

	"github.com/iyulab/forensic-mapper/internal/artifact"
)

//go:embed rules
var embeddedRules embed.FS

// Engine evaluates Sigma rules against artifact events.
type Engine struct {
	rules []evaluator.RuleEvaluator
}

// NewDefault creates an Engine loaded with the built-in embedded Sigma rules.
func NewDefault() (*Engine, error) {
	sub, err := fs.Sub(embeddedRules, "rules")
	if err != nil {
		return nil, err
	}
	return New(sub)
}

// New creates an Engine by loading Sigma rules from the given FS.
// All .yml/.yaml files are parsed as Sigma rules.
func New(rulesFS fs.FS) (*Engine, error) {
	var rules []evaluator.RuleEvaluator

	err := fs.WalkDir(rulesFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := filepath.Ext(path)
		if ext != ".yml" && ext != ".yaml" {
			return nil
		}
		data, err := fs.ReadFile(rulesFS, path)
		if err != nil {
			return err
		}
		rule, err := sigmalib.ParseRule(data)
		if err != nil {
			return fmt.Errorf("parse rule %s: %w", path, err)
		}
		rules = append(rules, *evaluator.ForRule(rule))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Engine{rules: rules}, nil
}

// Len reports how many rules the engine holds.
func (e *Engine) Len() int { return len(e.rules) }

// MatchAll evaluates every rule against each artifact and returns the hits.
// A rule with a logsource.category only applies to artifacts whose
// normalized type equals it. Artifacts without a usable key are skipped.
func (e *Engine) MatchAll(ctx context.Context, artifacts []artifact.Artifact) []Match {
	var matches []Match
	for _, a := range artifacts {
		key, ok := artifact.KeyOf(a)
		if !ok {
			continue
		}
		matches = append(matches, e.matchArtifact(ctx, key, toEvent(key, a))...)
	}
	return matches
}

// matchArtifact evaluates rules against a single artifact event. Each rule
// matches an artifact at most once.
func (e *Engine) matchArtifact(ctx context.Context, key artifact.Key, event map[string]interface{}) []Match {
	var matches []Match
	for _, ev := range e.rules {
		cat := ev.Rule.Logsource.Category
		if cat != "" && cat != key.Type {
			continue
		}

		res, err := ev.Matches(ctx, event)
		if err != nil || !res.Match {
			continue
		}
		matches = append(matches, Match{
			Artifact:  key,
			RuleTitle: ev.Rule.Title,
			RuleID:    ev.Rule.ID,
			Level:     ev.Rule.Level,
			Tags:      ev.Rule.Tags,
			Event:     event,
		})
	}
	return matches
}

// toEvent flattens an artifact into a Sigma event. Properties are copied
// first so they cannot shadow the core fields.
func toEvent(key artifact.Key, a artifact.Artifact) map[string]interface{} {
	event := make(map[string]interface{}, len(a.Properties)+4)
	for k, v := range a.Properties {
		event[k] = v
	}
	event["type"] = key.Type
	event["value"] = key.Value
	event["context"] = a.Context
	event["confidence"] = a.Confidence
	return event
}

// SortByLevel orders matches from most to least severe, keeping input order
// within a level.
func SortByLevel(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return levelRank(matches[i].Level) > levelRank(matches[j].Level)
	})
}

func levelRank(level string) int {
	switch level {
	case "critical":
		return 4
	case "high":
		return 3
	case "medium":
		return 2
	case "low":
		return 1
	}
	return 0
}
