// Package document turns converted documents into an ordered stream of
// structural units (paragraphs and table rows) carrying style metadata.
package document

import (
	"errors"
	"strings"
)

// ErrUnreadable is returned when a document cannot be converted to text.
var ErrUnreadable = errors.New("document unreadable")

// Run is a span of paragraph text sharing one set of character properties.
type Run struct {
	Text string
	Bold bool
}

// Paragraph is a single paragraph as produced by a converter. Position is the
// index of the paragraph among the body elements of the source document and
// is used to interleave paragraphs with tables.
type Paragraph struct {
	Runs     []Run
	Style    string
	Position int
}

// Text returns the concatenated text of all runs.
func (p Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Table is a table as produced by a converter: rows of cell texts.
type Table struct {
	Rows     [][]string
	Position int
}

// Source is a read-only view over a converted document.
type Source interface {
	Name() string
	Paragraphs() []Paragraph
	Tables() []Table
	// HasStyles reports whether runs carry real character formatting.
	// Plain-text sources return false.
	HasStyles() bool
}

// Unit is one normalised paragraph or table row.
type Unit struct {
	Text     string
	Bold     bool
	TableRow bool
	Order    int
}

// Text flattens the source into one newline separated string, in the same
// order Normalize produces units.
func Text(src Source) string {
	units := Normalize(src)
	lines := make([]string, 0, len(units))
	for _, u := range units {
		lines = append(lines, u.Text)
	}
	return strings.Join(lines, "\n")
}
