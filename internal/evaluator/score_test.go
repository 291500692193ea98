package evaluator

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/iyulab/forensic-mapper/internal/artifact"
)

func mustDoc(t *testing.T, s string) Document {
	t.Helper()
	var d Document
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return d
}

func keySet(pairs ...string) artifact.Set {
	s := make(artifact.Set)
	for i := 0; i+1 < len(pairs); i += 2 {
		k, _ := artifact.NewKey(pairs[i], pairs[i+1])
		s.Add(k)
	}
	return s
}

func key(t, v string) artifact.Key {
	k, _ := artifact.NewKey(t, v)
	return k
}

func TestPrecisionRecallF1(t *testing.T) {
	s := keySet("hash", "abc123", "ip", "10.0.0.1")
	tests := []struct {
		name        string
		pred, truth artifact.Set
		p, r, f     float64
	}{
		{"identical", s, s, 1, 1, 1},
		{"empty prediction", keySet(), s, 0, 0, 0},
		{"empty truth", s, keySet(), 0, 0, 0},
		{"both empty", keySet(), keySet(), 0, 0, 0},
		{"half overlap", s, keySet("hash", "abc123", "domain", "evil.com"), 0.5, 0.5, 0.5},
		{"subset", keySet("hash", "abc123"), s, 1, 0.5, 2.0 / 3.0},
		{"disjoint", keySet("ip", "1.1.1.1"), keySet("ip", "2.2.2.2"), 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, r, f := PrecisionRecallF1(tt.pred, tt.truth)
			if !approx(p, tt.p) || !approx(r, tt.r) || !approx(f, tt.f) {
				t.Errorf("got (%.3f, %.3f, %.3f), want (%.3f, %.3f, %.3f)", p, r, f, tt.p, tt.r, tt.f)
			}
		})
	}
}

func TestPrecisionRecallF1_SwapSymmetry(t *testing.T) {
	pairs := [][2]artifact.Set{
		{keySet("hash", "a", "ip", "b", "domain", "c"), keySet("hash", "a")},
		{keySet("hash", "a"), keySet("ip", "b")},
		{keySet(), keySet("ip", "b")},
		{keySet("a", "1", "b", "2"), keySet("b", "2", "c", "3", "d", "4")},
	}
	for i, pr := range pairs {
		p1, r1, f1 := PrecisionRecallF1(pr[0], pr[1])
		p2, r2, f2 := PrecisionRecallF1(pr[1], pr[0])
		if !approx(p1, r2) || !approx(r1, p2) || !approx(f1, f2) {
			t.Errorf("case %d: (%v,%v,%v) vs swapped (%v,%v,%v)", i, p1, r1, f1, p2, r2, f2)
		}
	}
}

func TestMappingAccuracy(t *testing.T) {
	m := artifact.PhaseMap{key("hash", "abc"): "Exfiltration", key("ip", "1.2.3.4"): "Initial Access"}
	tests := []struct {
		name        string
		pred, truth artifact.PhaseMap
		want        float64
	}{
		{"identical", m, m, 1},
		{"disjoint keys", artifact.PhaseMap{key("ip", "9.9.9.9"): "Execution"}, m, 0},
		{"empty prediction", artifact.PhaseMap{}, m, 0},
		{"empty truth", m, artifact.PhaseMap{}, 0},
		{"half correct", artifact.PhaseMap{key("hash", "abc"): "Exfiltration", key("ip", "1.2.3.4"): "Execution"}, m, 0.5},
		{"case sensitive", artifact.PhaseMap{key("hash", "abc"): "exfiltration"}, m, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MappingAccuracy(tt.pred, tt.truth); !approx(got, tt.want) {
				t.Errorf("MappingAccuracy = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToArtifactSet(t *testing.T) {
	doc := mustDoc(t, `{"artifacts":{"artifacts":[
		{"type":" IP ","value":" 10.0.0.1 "},
		{"type":"ip","value":"10.0.0.1"},
		{"type":"hash","value":"ABC123"},
		{"type":"","value":"orphan"},
		{"type":"domain"},
		{"type":7,"value":"numeric-type"},
		"not an object"
	]}}`)
	got := ToArtifactSet(doc).Keys()
	want := []artifact.Key{{Type: "hash", Value: "ABC123"}, {Type: "ip", Value: "10.0.0.1"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ToArtifactSet mismatch (-want +got):\n%s", diff)
	}
}

func TestToArtifactSet_DegradesToEmpty(t *testing.T) {
	for _, s := range []string{
		`{}`,
		`{"artifacts":[]}`,
		`{"artifacts":{"artifacts":"nope"}}`,
		`{"artifacts":{"other":[]}}`,
		`{"artifacts":null}`,
	} {
		if got := ToArtifactSet(mustDoc(t, s)); len(got) != 0 {
			t.Errorf("%s: got %v, want empty", s, got)
		}
	}
	if got := ToArtifactSet(nil); len(got) != 0 {
		t.Errorf("nil document: got %v", got)
	}
}

func TestToPhaseMap_LastWriteWins(t *testing.T) {
	doc := mustDoc(t, `{"kill_chain_analysis":{"kill_chain_mapping":[
		{"phase":"Initial Access","artifacts":[{"type":"ip","value":"1.2.3.4"}]},
		{"phase":"Persistence","artifacts":[{"type":"IP","value":"1.2.3.4 "}]}
	]}}`)
	got := ToPhaseMap(doc)
	if len(got) != 1 || got[key("ip", "1.2.3.4")] != "Persistence" {
		t.Errorf("ToPhaseMap = %v, want ip:1.2.3.4 -> Persistence", got)
	}
}

func TestToPhaseMap_SkipsIncompleteEntries(t *testing.T) {
	doc := mustDoc(t, `{"kill_chain_analysis":{"kill_chain_mapping":[
		{"artifacts":[{"type":"ip","value":"1.1.1.1"}]},
		{"phase":"","artifacts":[{"type":"ip","value":"2.2.2.2"}]},
		{"phase":3,"artifacts":[{"type":"ip","value":"3.3.3.3"}]},
		{"phase":"Execution","artifacts":[{"type":"process"},{"value":"x"},{"type":"process","value":"evil.exe"}]},
		{"phase":"Execution","artifacts":"bad"},
		"bad group"
	]}}`)
	want := artifact.PhaseMap{key("process", "evil.exe"): "Execution"}
	if diff := cmp.Diff(want, ToPhaseMap(doc)); diff != "" {
		t.Errorf("ToPhaseMap mismatch (-want +got):\n%s", diff)
	}
}

func TestScore_ArtifactScenario(t *testing.T) {
	pred := mustDoc(t, `{"artifacts":{"artifacts":[{"type":"hash","value":"abc123"},{"type":"ip","value":"10.0.0.1"}]}}`)
	truth := mustDoc(t, `{"artifacts":{"artifacts":[{"type":"hash","value":"abc123"},{"type":"domain","value":"evil.com"}]}}`)

	r := Score(pred, truth)
	if !approx(r.Precision, 0.5) || !approx(r.Recall, 0.5) || !approx(r.F1, 0.5) {
		t.Errorf("scores = %.3f/%.3f/%.3f, want 0.5/0.5/0.5", r.Precision, r.Recall, r.F1)
	}
	wantDetails := Details{
		TruePositives:  1,
		FalsePositives: 1,
		FalseNegatives: 1,
		Missed:         []artifact.Key{{Type: "domain", Value: "evil.com"}},
		Spurious:       []artifact.Key{{Type: "ip", Value: "10.0.0.1"}},
	}
	if diff := cmp.Diff(wantDetails, r.Details); diff != "" {
		t.Errorf("details mismatch (-want +got):\n%s", diff)
	}
	if r.MappingAccuracy != 0 {
		t.Errorf("mapping accuracy without kill chains = %v, want 0", r.MappingAccuracy)
	}
}

func TestScore_MappingScenario(t *testing.T) {
	pred := mustDoc(t, `{"kill_chain_analysis":{"kill_chain_mapping":[
		{"phase":"Exfiltration","artifacts":[{"type":"hash","value":"abc123"}]},
		{"phase":"Initial Access","artifacts":[{"type":"ip","value":"10.0.0.1"}]}
	]}}`)
	truth := mustDoc(t, `{"kill_chain_analysis":{"kill_chain_mapping":[
		{"phase":"Exfiltration","artifacts":[{"type":"hash","value":"abc123"}]}
	]}}`)

	r := Score(pred, truth)
	if r.MappingAccuracy != 1.0 {
		t.Errorf("mapping accuracy = %v, want 1.0", r.MappingAccuracy)
	}
	if r.Details.SharedMappings != 1 || r.Details.CorrectMappings != 1 {
		t.Errorf("details = %+v", r.Details)
	}
}

func TestScore_Mismatch(t *testing.T) {
	pred := mustDoc(t, `{"kill_chain_analysis":{"kill_chain_mapping":[{"phase":"Execution","artifacts":[{"type":"hash","value":"abc"}]}]}}`)
	truth := mustDoc(t, `{"kill_chain_analysis":{"kill_chain_mapping":[{"phase":"Persistence","artifacts":[{"type":"hash","value":"abc"}]}]}}`)

	r := Score(pred, truth)
	want := []PhaseMismatch{{Artifact: key("hash", "abc"), Predicted: "Execution", Truth: "Persistence"}}
	if diff := cmp.Diff(want, r.Details.Mismatched); diff != "" {
		t.Errorf("mismatches (-want +got):\n%s", diff)
	}
	if r.MappingAccuracy != 0 {
		t.Errorf("mapping accuracy = %v", r.MappingAccuracy)
	}
}

func TestScore_Idempotent(t *testing.T) {
	doc := mustDoc(t, `{
		"artifacts":{"artifacts":[{"type":"hash","value":"abc"},{"type":"ip","value":"1.2.3.4"}]},
		"kill_chain_analysis":{"kill_chain_mapping":[{"phase":"Execution","artifacts":[{"type":"hash","value":"abc"}]}]}
	}`)
	r := Score(doc, doc)
	if r.Precision != 1 || r.Recall != 1 || r.F1 != 1 || r.MappingAccuracy != 1 {
		t.Errorf("self-score = %+v", r)
	}
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
