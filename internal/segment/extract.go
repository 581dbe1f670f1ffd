package segment

import (
	"strings"
	"unicode/utf8"

	"github.com/spigell/cv-assessor/internal/document"
)

// DefaultMinLength is the shortest segment, in runes, that survives extraction.
const DefaultMinLength = 40

// Separator joins segments in the extracted text.
var Separator = "\n\n" + strings.Repeat("-", 40) + "\n\n"

// Segment is one contiguous run of units attributed to the target role.
type Segment struct {
	Units []document.Unit
	Start int
	// End is the index of the unit that closed the segment, or the stream length.
	End int
}

// Text joins the unit texts with newlines.
func (s Segment) Text() string {
	parts := make([]string, 0, len(s.Units))
	for _, u := range s.Units {
		parts = append(parts, u.Text)
	}
	return strings.Join(parts, "\n")
}

type Options struct {
	// MinLength overrides DefaultMinLength when positive.
	MinLength int
}

// Min returns the effective minimum segment length.
func (o Options) Min() int {
	if o.MinLength > 0 {
		return o.MinLength
	}
	return DefaultMinLength
}

type state int

const (
	searching state = iota
	capturing
)

// Extract walks the units and returns every segment belonging to the role
// the classifier targets. Boundary units are never part of a segment.
func Extract(units []document.Unit, classifier Classifier, opts Options) []Segment {
	var (
		segments []Segment
		current  Segment
		st       = searching
	)

	closeSegment := func(end int) {
		current.End = end
		if utf8.RuneCountInString(current.Text()) >= opts.Min() {
			segments = append(segments, current)
		}
		current = Segment{}
		st = searching
	}

	for i, unit := range units {
		kind := classifier.Classify(unit)

		switch st {
		case searching:
			if kind == MatchesTarget {
				current = Segment{Units: []document.Unit{unit}, Start: i}
				st = capturing
			}
		case capturing:
			switch kind {
			case Continuation, MatchesTarget:
				current.Units = append(current.Units, unit)
			case MatchesOtherRole, TerminalSection:
				closeSegment(i)
			}
		}
	}

	if st == capturing {
		closeSegment(len(units))
	}

	return segments
}

// Join concatenates segment texts with Separator.
func Join(segments []Segment) string {
	texts := make([]string, 0, len(segments))
	for _, s := range segments {
		texts = append(texts, s.Text())
	}
	return strings.Join(texts, Separator)
}
