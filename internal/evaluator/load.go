package evaluator

import (
	"encoding/json"
	"fmt"
	"os"
)

// InputLoadError reports a document that could not be read or is not a JSON
// object. Evaluation stops on it with no partial score.
type InputLoadError struct {
	Path string
	Err  error
}

func (e *InputLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *InputLoadError) Unwrap() error { return e.Err }

// LoadDocument reads and decodes the JSON document at path.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &InputLoadError{Path: path, Err: err}
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, &InputLoadError{Path: path, Err: err}
	}
	return doc, nil
}

// ParseDocument decodes data as a JSON object.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("document is null, want a JSON object")
	}
	return doc, nil
}
