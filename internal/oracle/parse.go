// Package oracle holds the call and response-parsing helpers shared by the
// URL classifier and the property evaluator.
package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ParseError reports an oracle response that did not contain the expected
// JSON shape.
type ParseError struct {
	Want string // "object" or "array"
	Raw  string
	Err  error
}

func (e *ParseError) Error() string {
	raw := truncate(e.Raw, 200)
	if e.Err != nil {
		return fmt.Sprintf("oracle: parse %s: %v (response: %q)", e.Want, e.Err, raw)
	}
	return fmt.Sprintf("oracle: no JSON %s in response %q", e.Want, raw)
}

func (e *ParseError) Unwrap() error { return e.Err }

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// CleanJSON strips Markdown code fences and any surrounding prose, keeping
// the text between the first open and the last close delimiter. It returns
// "" when no such span exists.
func CleanJSON(text string, open, close byte) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Drop a language tag such as "json" on the fence line.
		if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.ContainsAny(text[:nl], "{[") {
			text = text[nl+1:]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}

// DecodeObject parses the JSON object embedded in text into T.
func DecodeObject[T any](text string) (T, error) {
	var out T
	body := CleanJSON(text, '{', '}')
	if body == "" {
		return out, &ParseError{Want: "object", Raw: text}
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return out, &ParseError{Want: "object", Raw: text, Err: err}
	}
	return out, nil
}

// DecodeArray parses the JSON array embedded in text into []T.
func DecodeArray[T any](text string) ([]T, error) {
	body := CleanJSON(text, '[', ']')
	if body == "" {
		return nil, &ParseError{Want: "array", Raw: text}
	}
	var out []T
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, &ParseError{Want: "array", Raw: text, Err: err}
	}
	return out, nil
}
