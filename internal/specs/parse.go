package specs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// Extract pulls a JSON object out of free-form meta-agent output. It tries
// the whole text, then each fenced code block in order, then the outermost
// brace-delimited span.
func Extract(text string) ([]byte, error) {
	content := strings.TrimSpace(text)
	if isObject(content) {
		return []byte(content), nil
	}

	for _, m := range jsonBlockRegex.FindAllStringSubmatch(content, -1) {
		if cleaned := strings.TrimSpace(m[1]); isObject(cleaned) {
			return []byte(cleaned), nil
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		if candidate := content[start : end+1]; isObject(candidate) {
			return []byte(candidate), nil
		}
	}

	return nil, fmt.Errorf("%w: no JSON object found in response", ErrParse)
}

// ParseText extracts and decodes a specification from meta-agent output.
func ParseText(text string) (*Document, error) {
	data, err := Extract(text)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func isObject(s string) bool {
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}

// Canonical re-encodes d as compact JSON with snake_case keys.
func Canonical(d *Document) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(d); err != nil {
		return nil, fmt.Errorf("encode specification: %w", err)
	}
	return json.RawMessage(bytes.TrimSpace(buf.Bytes())), nil
}
