package analyzer

import (
	"errors"
	"testing"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantA   int
		wantErr bool
	}{
		{"bare object", `{"a":1}`, 1, false},
		{"surrounding whitespace", "\n\t {\"a\":2}  \n", 2, false},
		{"fenced", "Here you go:\n```json\n{\"a\":1}\n```\n", 1, false},
		{"first fence wins", "```json\n{\"a\":3}\n```\nand\n```json\n{\"a\":4}\n```", 3, false},
		{"prose only", "not json at all", 0, true},
		{"empty fence", "```json\n```", 0, true},
		{"unterminated fence", "```json\n{\"a\":1}", 0, true},
		{"array", `[1,2,3]`, 0, true},
		{"null", `null`, 0, true},
		{"empty", ``, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				A int `json:"a"`
			}
			err := ParseResponse(tt.raw, &v)
			if tt.wantErr {
				var malformed *MalformedResponseError
				if !errors.As(err, &malformed) {
					t.Fatalf("expected *MalformedResponseError, got %v", err)
				}
				if malformed.Raw != tt.raw {
					t.Errorf("raw = %q, want %q", malformed.Raw, tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.A != tt.wantA {
				t.Errorf("a = %d, want %d", v.A, tt.wantA)
			}
		})
	}
}

func TestParseResponse_ToleratesTypeMismatch(t *testing.T) {
	var v struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	err := ParseResponse(`{"name":"x","count":"seven"}`, &v)
	if err != nil {
		t.Fatalf("type mismatch should not be fatal: %v", err)
	}
	if v.Name != "x" || v.Count != 0 {
		t.Errorf("got %+v", v)
	}
}

func TestMalformedResponseError_Message(t *testing.T) {
	err := &MalformedResponseError{Stage: StageReasoning, Err: errors.New("bad")}
	if err.Error() != "reasoning: malformed response: bad" {
		t.Errorf("Error() = %q", err.Error())
	}
	err.Stage = ""
	if err.Error() != "malformed response: bad" {
		t.Errorf("Error() = %q", err.Error())
	}
}
