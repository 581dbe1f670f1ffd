package utils

import "strings"

// ExtractJSON strips markdown code fences and surrounding prose from a model
// answer, returning the outermost JSON object or array.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	if raw == "" || raw[0] == '{' || raw[0] == '[' {
		return raw
	}

	open := strings.IndexAny(raw, "{[")
	if open == -1 {
		return raw
	}
	closer := "}"
	if raw[open] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(raw, closer)
	if end < open {
		return raw
	}
	return raw[open : end+1]
}
