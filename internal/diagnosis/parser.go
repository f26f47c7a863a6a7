package diagnosis

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ParseError is the terminal failure after every extraction tier has been
// exhausted. Individual tier misses are absorbed, not reported.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "diagnosis: " + e.Reason
}

// ReasonUnrecognizedFormat is the only reason Parse emits: no tier produced
// a schema-valid record
const ReasonUnrecognizedFormat = "unrecognized-format"

var fencedBlockRE = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// Parse extracts a validated Record from a free-form model reply. The model
// is only weakly constrained to emit JSON, so extraction runs strict to
// lenient and the first tier yielding a schema-valid record wins:
//
//  1. the whole reply as JSON
//  2. the interior of a fenced code block
//  3. the first '{' through the last '}' span
//
// A tier that decodes but fails validation is skipped rather than coerced.
func Parse(raw string) (*Record, error) {
	for _, extract := range []func(string) (string, bool){
		extractWhole,
		extractFenced,
		extractBraceSpan,
	} {
		candidate, ok := extract(raw)
		if !ok {
			continue
		}
		if rec, ok := decodeCandidate(candidate); ok {
			return rec, nil
		}
	}
	return nil, &ParseError{Reason: ReasonUnrecognizedFormat}
}

func decodeCandidate(candidate string) (*Record, bool) {
	var rec Record
	if err := json.Unmarshal([]byte(candidate), &rec); err != nil {
		return nil, false
	}
	if err := rec.Validate(); err != nil {
		return nil, false
	}
	return &rec, true
}

func extractWhole(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	return s, true
}

func extractFenced(raw string) (string, bool) {
	m := fencedBlockRE.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	inner := strings.TrimSpace(m[1])
	if inner == "" {
		return "", false
	}
	return inner, true
}

func extractBraceSpan(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}
