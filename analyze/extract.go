package analyze

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxExcerptLen bounds how much of a malformed reply is carried in an
// ExtractError for diagnosis.
const maxExcerptLen = 500

// ExtractError indicates no parseable JSON payload could be recovered from a
// model reply. It carries the parser's complaint and a bounded excerpt of the
// offending text; the reply is never silently replaced with an empty payload.
type ExtractError struct {
	Err     error
	Excerpt string
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("failed to parse model response as JSON: %v\nResponse: %s", e.Err, e.Excerpt)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// ExtractPayload locates and parses the JSON object embedded in a free-text
// model reply. Priority order: a ```json fenced block, then any fenced block,
// then the whole trimmed reply.
func ExtractPayload(text string) (map[string]any, error) {
	candidate := fencedInterior(text, "```json")
	if candidate == "" {
		candidate = fencedInterior(text, "```")
	}
	if candidate == "" {
		candidate = strings.TrimSpace(text)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, &ExtractError{Err: err, Excerpt: excerpt(text, maxExcerptLen)}
	}
	// A literal "null" decodes without error but leaves the map nil.
	if payload == nil {
		return nil, &ExtractError{Err: fmt.Errorf("response is not a JSON object"), Excerpt: excerpt(text, maxExcerptLen)}
	}
	return payload, nil
}

// fencedInterior returns the trimmed interior of the first fenced block opened
// by the given marker, or "" if no such block exists.
func fencedInterior(text, marker string) string {
	start := strings.Index(text, marker)
	if start < 0 {
		return ""
	}
	start += len(marker)
	end := strings.Index(text[start:], "```")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(text[start : start+end])
}

func excerpt(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
