// Package score recovers scores from oracle output, either from a structured
// JSON report or from free-form narrative text.
package score

import (
	"errors"
	"math"
	"regexp"
	"strconv"
)

// ErrUnparseable is returned when no score can be located in a report.
var ErrUnparseable = errors.New("score not found in report")

// outOf optionally captures the scale a labelled score is written on.
const (
	number = `([0-9]+(?:\.[0-9]+)?)`
	outOf  = `(?:\s*/\s*` + number + `)?`
)

var narrativePatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{name: "final_score", re: regexp.MustCompile(`(?i)final\s+(?:weighted\s+)?score\s*[:\-]?\s*` + number + outOf)},
	{name: "overall_score", re: regexp.MustCompile(`(?i)overall\s+(?:weighted\s+)?score\s*[:\-]?\s*` + number + outOf)},
	{name: "out_of_100", re: regexp.MustCompile(number + `\s*/\s*(100)(?:\.0+)?\b`)},
}

// Narrative is the outcome of ParseNarrative. Value is meaningful only when
// Found is true. OutOf is the written denominator, zero when there was none.
type Narrative struct {
	Value   float64
	OutOf   float64
	Found   bool
	Pattern string
}

// Percent maps the value onto 0-100 using the denominator when one was
// written ("0.82 / 1.00", "1 / 100") and Percent otherwise.
func (n Narrative) Percent() float64 {
	if n.OutOf > 0 {
		return math.Max(0, math.Min(100, n.Value/n.OutOf*100))
	}
	return Percent(n.Value)
}

// ParseNarrative searches text for a labelled final score, then an overall
// score, then a generic "N / 100". The number is returned on the scale it was
// written in.
func ParseNarrative(text string) Narrative {
	for _, p := range narrativePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		out := Narrative{Value: v, Found: true, Pattern: p.name}
		if len(m) > 2 && m[2] != "" {
			out.OutOf, _ = strconv.ParseFloat(m[2], 64)
		}
		return out
	}
	return Narrative{}
}
