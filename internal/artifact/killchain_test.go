package artifact

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleReasoning() *ReasoningResult {
	return &ReasoningResult{
		ReasoningChains: []ReasoningChain{
			{
				ArtifactID:   "a3",
				Artifact:     Artifact{Type: "domain", Value: "evil.com"},
				FinalMapping: FinalMapping{Phase: "Exfiltration"},
			},
			{
				ArtifactID:   "a1",
				Artifact:     Artifact{Type: "ip", Value: "10.0.0.1"},
				FinalMapping: FinalMapping{Phase: "Initial Access"},
			},
			{
				ArtifactID: "a2",
				Artifact:   Artifact{Type: "hash", Value: "abc123"},
			},
			{
				ArtifactID: "a4",
				Artifact:   Artifact{Type: "tool", Value: "netcat"},
			},
		},
		AttackTimeline: []TimelineEntry{
			{Phase: "Exfiltration", ChronologicalOrder: 3, Artifacts: []string{"a3"}},
			{Phase: "Initial Access", ChronologicalOrder: 1, Artifacts: []string{"a1"}},
			{Phase: "Execution", ChronologicalOrder: 2, Artifacts: []string{"a2"}},
		},
	}
}

func TestBuildKillChainMapping(t *testing.T) {
	got := BuildKillChainMapping(sampleReasoning())
	want := []PhaseGroup{
		{Phase: "Initial Access", Artifacts: []Artifact{{Type: "ip", Value: "10.0.0.1"}}},
		{Phase: "Execution", Artifacts: []Artifact{{Type: "hash", Value: "abc123"}}},
		{Phase: "Exfiltration", Artifacts: []Artifact{{Type: "domain", Value: "evil.com"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mapping mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildKillChainMapping_UntimedPhasesLast(t *testing.T) {
	r := &ReasoningResult{
		ReasoningChains: []ReasoningChain{
			{ArtifactID: "x", Artifact: Artifact{Type: "user", Value: "svc_backup"}, FinalMapping: FinalMapping{Phase: "Privilege Escalation"}},
			{ArtifactID: "y", Artifact: Artifact{Type: "ip", Value: "1.2.3.4"}, FinalMapping: FinalMapping{Phase: "Command and Control"}},
			{ArtifactID: "z", Artifact: Artifact{Type: "ip", Value: "5.6.7.8"}, FinalMapping: FinalMapping{Phase: "Privilege Escalation"}},
		},
		AttackTimeline: []TimelineEntry{
			{Phase: "Command and Control", ChronologicalOrder: 4},
		},
	}
	got := BuildKillChainMapping(r)
	if len(got) != 2 {
		t.Fatalf("groups = %d, want 2", len(got))
	}
	if got[0].Phase != "Command and Control" || got[1].Phase != "Privilege Escalation" {
		t.Errorf("order = [%s, %s]", got[0].Phase, got[1].Phase)
	}
	if len(got[1].Artifacts) != 2 {
		t.Errorf("Privilege Escalation artifacts = %d, want 2", len(got[1].Artifacts))
	}
}

func TestBuildKillChainMapping_Nil(t *testing.T) {
	if got := BuildKillChainMapping(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestBuildKillChainMapping_FeedsPhaseMap(t *testing.T) {
	m := NewPhaseMap(BuildKillChainMapping(sampleReasoning()))
	if m[Key{Type: "hash", Value: "abc123"}] != "Execution" {
		t.Errorf("hash phase = %q, want Execution (from timeline fallback)", m[Key{Type: "hash", Value: "abc123"}])
	}
	if _, ok := m[Key{Type: "tool", Value: "netcat"}]; ok {
		t.Error("unmapped artifact should not appear in phase map")
	}
}

func TestCheckTimeline(t *testing.T) {
	r := sampleReasoning()
	r.AttackTimeline = append(r.AttackTimeline, TimelineEntry{
		Phase: "Impact", ChronologicalOrder: 3, Artifacts: []string{"a9"},
	})

	warnings := CheckTimeline(r)
	if len(warnings) != 2 {
		t.Fatalf("warnings = %d, want 2: %v", len(warnings), warnings)
	}
	joined := strings.Join(warnings, "\n")
	if !strings.Contains(joined, `"a9"`) {
		t.Errorf("missing unknown artifact warning: %s", joined)
	}
	if !strings.Contains(joined, "chronological order 3") {
		t.Errorf("missing duplicate order warning: %s", joined)
	}
}

func TestCheckTimeline_Clean(t *testing.T) {
	if w := CheckTimeline(sampleReasoning()); len(w) != 0 {
		t.Errorf("expected no warnings, got %v", w)
	}
}
