package artifact

import (
	"fmt"
	"sort"
	"strings"
)

// BuildKillChainMapping groups the reasoning chains' artifacts by attack phase.
//
// A chain's phase comes from its final mapping, falling back to the first
// timeline entry that lists the chain's artifact ID. Chains with neither are
// left out. Groups follow the timeline's chronological order; phases the
// timeline does not mention come last, in the order they were first seen.
func BuildKillChainMapping(r *ReasoningResult) []PhaseGroup {
	if r == nil {
		return nil
	}

	timelinePhase := make(map[string]string)
	phaseOrder := make(map[string]int)
	for _, e := range r.AttackTimeline {
		if strings.TrimSpace(e.Phase) == "" {
			continue
		}
		if o, ok := phaseOrder[e.Phase]; !ok || e.ChronologicalOrder < o {
			phaseOrder[e.Phase] = e.ChronologicalOrder
		}
		for _, id := range e.Artifacts {
			if _, seen := timelinePhase[id]; !seen && id != "" {
				timelinePhase[id] = e.Phase
			}
		}
	}

	var groups []PhaseGroup
	index := make(map[string]int)
	for _, c := range r.ReasoningChains {
		phase := c.FinalMapping.Phase
		if strings.TrimSpace(phase) == "" {
			phase = timelinePhase[c.ArtifactID]
		}
		if strings.TrimSpace(phase) == "" {
			continue
		}
		i, ok := index[phase]
		if !ok {
			i = len(groups)
			index[phase] = i
			groups = append(groups, PhaseGroup{Phase: phase})
		}
		groups[i].Artifacts = append(groups[i].Artifacts, c.Artifact)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		oi, iok := phaseOrder[groups[i].Phase]
		oj, jok := phaseOrder[groups[j].Phase]
		switch {
		case iok && jok:
			return oi < oj
		case iok:
			return true
		default:
			return false
		}
	})
	return groups
}

// CheckTimeline reports integrity problems in a reasoning result: timeline
// entries referencing artifact IDs that have no reasoning chain, and
// chronological positions claimed by more than one entry. The warnings are
// informational and never affect scoring.
func CheckTimeline(r *ReasoningResult) []string {
	if r == nil {
		return nil
	}
	known := make(map[string]bool, len(r.ReasoningChains))
	for _, c := range r.ReasoningChains {
		if c.ArtifactID != "" {
			known[c.ArtifactID] = true
		}
	}

	var warnings []string
	orders := make(map[int]string)
	for _, e := range r.AttackTimeline {
		for _, id := range e.Artifacts {
			if !known[id] {
				warnings = append(warnings, fmt.Sprintf("timeline phase %q references unknown artifact %q", e.Phase, id))
			}
		}
		if prev, dup := orders[e.ChronologicalOrder]; dup {
			warnings = append(warnings, fmt.Sprintf("phases %q and %q share chronological order %d", prev, e.Phase, e.ChronologicalOrder))
			continue
		}
		orders[e.ChronologicalOrder] = e.Phase
	}
	return warnings
}
