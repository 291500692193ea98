package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	jsonFenceOpen = "```json"
	fenceClose    = "```"
)

// ParseResponse decodes a JSON object from generated text into v.
//
// The whole trimmed text is tried first. If that fails and the text contains a
// "```json" fence, the content between the first such marker and the next
// closing fence is tried. When both fail the result is a
// *MalformedResponseError carrying the first parse error and the raw text.
//
// Fields whose JSON type does not match v are left at their zero value; only
// text that is not a JSON object counts as malformed.
func ParseResponse(raw string, v interface{}) error {
	err := decodeObject(strings.TrimSpace(raw), v)
	if err == nil {
		return nil
	}

	if fenced, ok := extractJSONFence(raw); ok {
		if decodeObject(fenced, v) == nil {
			return nil
		}
	}

	return &MalformedResponseError{Raw: raw, Err: err}
}

// extractJSONFence returns the trimmed text between the first "```json"
// marker and the next closing fence after it.
func extractJSONFence(raw string) (string, bool) {
	start := strings.Index(raw, jsonFenceOpen)
	if start < 0 {
		return "", false
	}
	start += len(jsonFenceOpen)
	end := strings.Index(raw[start:], fenceClose)
	if end <= 0 {
		return "", false
	}
	return strings.TrimSpace(raw[start : start+end]), true
}

func decodeObject(text string, v interface{}) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return err
	}
	if probe == nil {
		return fmt.Errorf("response is JSON null, want an object")
	}

	err := json.Unmarshal([]byte(text), v)
	var typeErr *json.UnmarshalTypeError
	if err != nil && !errors.As(err, &typeErr) {
		return err
	}
	return nil
}
