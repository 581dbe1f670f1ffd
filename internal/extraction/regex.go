package extraction

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/spigell/cv-assessor/internal/document"
	"github.com/spigell/cv-assessor/internal/role"
	"github.com/spigell/cv-assessor/internal/segment"
)

const (
	regexTimeout = 2 * time.Second

	markerCore = `(?:key[\s\-]*experts?|ke|experts?)[\s\-]*(?:no\.?\s*|#\s*)?`
	notNegated = `(?<!non[\s\-]+(?:key[\s\-]*)?)\b`
)

// lineOpening skips the bullet, numbering or bracket a line may open with.
const lineOpening = `(?:` + segment.ListPrefixExpr + `)*[(\[*]*`

type regexStrategy struct {
	toggle
	minLength int
}

// NewRegex creates the strategy that scans the whitespace-flattened document
// with a lookahead-bounded pattern. Line breaks survive flattening so that a
// role only opens or closes a section at the start of a line.
func NewRegex(minLength int) Strategy {
	return &regexStrategy{minLength: minLength}
}

func (s *regexStrategy) Name() string { return StrategyRegex }

func (s *regexStrategy) Validate(in Input, _ Deps) error {
	if strings.TrimSpace(in.Text) == "" {
		return errors.New("document has no text")
	}
	if len(in.Role.Aliases) == 0 {
		return errors.New("role query is empty")
	}
	return nil
}

// Apply returns one segment per match. Start and End are rune offsets into
// the flattened text rather than unit indexes.
func (s *regexStrategy) Apply(_ context.Context, _ Deps, in Input) ([]segment.Segment, string, error) {
	re, err := rolePattern(in.Role)
	if err != nil {
		return nil, "", err
	}

	flat := flatten(in.Text)
	minLength := segment.Options{MinLength: s.minLength}.Min()

	var segments []segment.Segment
	m, err := re.FindStringMatch(flat)
	for m != nil && err == nil {
		text := strings.Join(strings.Fields(m.String()), " ")
		if len([]rune(text)) >= minLength {
			segments = append(segments, segment.Segment{
				Units: []document.Unit{{Text: text, Order: len(segments)}},
				Start: m.Index,
				End:   m.Index + m.Length,
			})
		}
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return nil, "", fmt.Errorf("match role pattern: %w", err)
	}

	return segments, segment.Join(segments), nil
}

func (s *regexStrategy) Status() Status {
	return Status{
		Name:    s.Name(),
		Enabled: s.IsEnabled(),
		Reason:  s.reason,
		Details: map[string]string{"timeout": regexTimeout.String()},
	}
}

// flatten collapses whitespace inside each line and drops blank lines.
func flatten(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// rolePattern builds `target ... (?=other role|terminal section|end)`, with
// every alternative anchored to the start of a line.
func rolePattern(id role.Identifier) (*regexp2.Regexp, error) {
	var start, other string
	if id.Number != nil {
		n := strconv.Itoa(*id.Number)
		start = markerCore + n + `(?!\d)`
		other = markerCore + `(?!` + n + `(?!\d))\d+\b`
	} else {
		words := strings.Fields(id.Normalized)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		start = strings.Join(words, `\s+`) + `\b`
		other = markerCore + `\d+\b`
	}
	start = `(?<=^|\n)` + lineOpening + notNegated + start
	other = `\n` + lineOpening + notNegated + other
	terminal := `\n(?:[0-9ivx]+[.)]\s*)?` + segment.TerminalExpr() + `\b`

	pattern := start + `[\s\S]*?(?=` + other + `|` + terminal + `|$)`
	re, err := regexp2.Compile(pattern, regexp2.IgnoreCase)
	if err != nil {
		return nil, fmt.Errorf("compile role pattern: %w", err)
	}
	re.MatchTimeout = regexTimeout
	return re, nil
}
