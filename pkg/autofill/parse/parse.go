// Package parse turns a model's semi-structured reply into a field value map.
package parse

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/entrhq/formpilot/pkg/autofill/field"
)

var (
	fencePattern = regexp.MustCompile("(?s)```[ \t]*(?:json|JSON)?[ \t]*\\r?\\n?(.*?)```")
	linePattern  = regexp.MustCompile(`^["'` + "`" + `]?([^"'` + "`" + `:=]+?)["'` + "`" + `]?\s*[:=]\s*(.*?)\s*,?$`)
	bulletPrefix = regexp.MustCompile(`^(?:[-*+]|\d+[.)])\s+`)
)

// Parse extracts identifier → value pairs from text. Strategies are tried in
// order and the first that yields entries wins:
//
//  1. a fenced code block, optionally tagged json, holding a JSON object
//  2. the whole text when it is a JSON object
//  3. "key: value" or "key = value" lines
//
// It returns nil when nothing could be extracted. Parse never panics.
func Parse(text string) (out field.ValueMap) {
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()

	if m := fromFence(text); len(m) > 0 {
		return m
	}
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		if m := fromJSON(trimmed); len(m) > 0 {
			return m
		}
	}
	if m := fromLines(text); len(m) > 0 {
		return m
	}
	return nil
}

func fromFence(text string) field.ValueMap {
	for _, match := range fencePattern.FindAllStringSubmatch(text, -1) {
		if m := fromJSON(strings.TrimSpace(match[1])); len(m) > 0 {
			return m
		}
	}
	return nil
}

// fromJSON decodes a JSON object, stringifying non-string values: numbers
// and booleans keep their JSON text, null becomes "", nested arrays and
// objects are compacted.
func fromJSON(s string) field.ValueMap {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil
	}
	out := make(field.ValueMap, len(raw))
	for k, v := range raw {
		out[k] = stringify(v)
	}
	return out
}

func stringify(v json.RawMessage) string {
	trimmed := bytes.TrimSpace(v)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		return ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
		return string(trimmed)
	case trimmed[0] == '{' || trimmed[0] == '[':
		var b bytes.Buffer
		if err := json.Compact(&b, trimmed); err == nil {
			return b.String()
		}
		return string(trimmed)
	default:
		return string(trimmed)
	}
}

func fromLines(text string) field.ValueMap {
	out := field.ValueMap{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "```") {
			continue
		}
		line = bulletPrefix.ReplaceAllString(line, "")

		m := linePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key := strings.Trim(strings.TrimSpace(m[1]), "*")
		if key == "" {
			continue
		}
		out[key] = unquote(m[2])
	}
	return out
}

func unquote(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			if s, err := strconv.Unquote(`"` + strings.ReplaceAll(v[1:len(v)-1], `"`, `\"`) + `"`); err == nil {
				return s
			}
			return v[1 : len(v)-1]
		}
	}
	return v
}
