package analyzer

import "fmt"

// Stage names used in errors and logs.
const (
	StageExtraction = "extraction"
	StageReasoning  = "reasoning"
)

// GenerationError reports that the generation capability itself failed
// (transport, auth, quota, timeout). Stages never retry it.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: generation failed: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// MalformedResponseError reports that no recovery strategy could parse the
// generated text. Raw holds the full response for operator diagnosis.
type MalformedResponseError struct {
	Stage string
	Raw   string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("malformed response: %v", e.Err)
	}
	return fmt.Sprintf("%s: malformed response: %v", e.Stage, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
