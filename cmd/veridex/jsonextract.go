// cmd/veridex/jsonextract.go
package main

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Models are asked to return a single JSON object but routinely wrap it in
// prose or fenced code blocks. Extraction is an ordered chain of strategies;
// the first one that yields a parsable object wins.

type extractStrategy struct {
	name    string
	extract func(string) (string, bool)
}

var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

var extractStrategies = []extractStrategy{
	{
		name: "fenced_block",
		extract: func(text string) (string, bool) {
			m := fencedJSONPattern.FindStringSubmatch(text)
			if m == nil {
				return "", false
			}
			return m[1], true
		},
	},
	{
		name: "bare_object",
		extract: func(text string) (string, bool) {
			trimmed := strings.TrimSpace(text)
			if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
				return trimmed, true
			}
			return "", false
		},
	},
	{
		name: "balanced_object",
		extract: func(text string) (string, bool) {
			return firstBalancedObject(text)
		},
	},
}

// ExtractJSON locates the JSON object in a model response and unmarshals it
// into v. Returns the name of the strategy that succeeded.
func ExtractJSON(text string, v interface{}) (string, error) {
	var lastErr error
	for _, s := range extractStrategies {
		candidate, ok := s.extract(text)
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(candidate), v); err != nil {
			lastErr = err
			continue
		}
		return s.name, nil
	}
	if lastErr == nil {
		lastErr = NewReasoningError(ErrReasoningParse, "no JSON object found in model response", nil)
	}
	return "", NewReasoningError(ErrReasoningParse, "could not extract JSON from model response", lastErr)
}

// firstBalancedObject scans for the first brace-balanced object in the text,
// skipping braces inside string literals.
func firstBalancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
