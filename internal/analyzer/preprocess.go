package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PreprocessResult holds the prepared report text along with cleanup metrics.
type PreprocessResult struct {
	Text         string
	InvalidBytes int // bytes dropped because they were not valid UTF-8
	ControlChars int // control characters removed (tabs and newlines are kept)
}

// Preprocess turns raw report bytes into prompt-safe text. Invalid UTF-8 is
// dropped, line endings are normalized to \n and control characters other than
// tab and newline are removed. Everything else is passed through verbatim.
func Preprocess(data []byte) PreprocessResult {
	var res PreprocessResult
	var sb strings.Builder
	sb.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]

		switch {
		case r == utf8.RuneError && size <= 1:
			res.InvalidBytes += size
		case r == '\r':
			if len(data) > 0 && data[0] == '\n' {
				continue
			}
			sb.WriteByte('\n')
		case r == '\n' || r == '\t':
			sb.WriteRune(r)
		case unicode.IsControl(r):
			res.ControlChars++
		default:
			sb.WriteRune(r)
		}
	}

	res.Text = sb.String()
	return res
}
