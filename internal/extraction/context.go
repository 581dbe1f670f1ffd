package extraction

import (
	"strings"
	"unicode/utf8"
)

// DefaultContextLength caps the general context taken from a document.
const DefaultContextLength = 1500

// GeneralContext returns project-level text to send alongside the role
// requirements: the units preceding the first structural segment, or the
// head of the document for the other strategies. It is empty when the
// result already is the full document.
func GeneralContext(in Input, res Result, limit int) string {
	if limit <= 0 {
		limit = DefaultContextLength
	}

	var text string
	switch res.Strategy {
	case StrategyDocument:
		return ""
	case StrategyStructural:
		if len(res.Segments) > 0 && res.Segments[0].Start > 0 && res.Segments[0].Start <= len(in.Units) {
			parts := make([]string, 0, res.Segments[0].Start)
			for _, u := range in.Units[:res.Segments[0].Start] {
				parts = append(parts, u.Text)
			}
			text = strings.Join(parts, "\n")
		}
	default:
		text = in.Text
	}

	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return strings.TrimSpace(string([]rune(text)[:limit]))
}
