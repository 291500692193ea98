package sigma

import "github.com/iyulab/forensic-mapper/internal/artifact"

// Match records a Sigma rule hit against an extracted artifact.
type Match struct {
	Artifact  artifact.Key           `json:"artifact"`
	RuleTitle string                 `json:"rule_title"`
	RuleID    string                 `json:"rule_id,omitempty"`
	Level     string                 `json:"level"` // informational | low | medium | high | critical
	Tags      []string               `json:"tags,omitempty"`
	Event     map[string]interface{} `json:"event"` // matched event for evidence
}
