package document

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CellSeparator joins the cells of a table row into one unit.
const CellSeparator = " | "

type block struct {
	position int
	seq      int
	para     *Paragraph
	row      []string
}

// Normalize converts the source into units in document order.
//
// Paragraphs and table rows are interleaved by their body Position. When the
// source does not report positions (all zero) tables are appended after the
// paragraphs. Empty units are dropped and Order is reassigned densely.
func Normalize(src Source) []Unit {
	if src == nil {
		return nil
	}

	paragraphs := src.Paragraphs()
	tables := src.Tables()

	positioned := false
	for _, p := range paragraphs {
		if p.Position != 0 {
			positioned = true
			break
		}
	}
	if !positioned {
		for _, t := range tables {
			if t.Position != 0 {
				positioned = true
				break
			}
		}
	}

	blocks := make([]block, 0, len(paragraphs)+len(tables))
	seq := 0
	for i := range paragraphs {
		blocks = append(blocks, block{position: paragraphs[i].Position, seq: seq, para: &paragraphs[i]})
		seq++
	}
	for ti, t := range tables {
		pos := t.Position
		if !positioned {
			pos = len(paragraphs) + ti
		}
		for _, row := range t.Rows {
			blocks = append(blocks, block{position: pos, seq: seq, row: row})
			seq++
		}
	}

	if positioned {
		sort.SliceStable(blocks, func(i, j int) bool {
			if blocks[i].position != blocks[j].position {
				return blocks[i].position < blocks[j].position
			}
			return blocks[i].seq < blocks[j].seq
		})
	}

	units := make([]Unit, 0, len(blocks))
	for _, b := range blocks {
		var u Unit
		if b.para != nil {
			u = Unit{Text: CleanText(b.para.Text()), Bold: isBold(*b.para)}
		} else {
			u = Unit{Text: joinCells(b.row), TableRow: true}
		}
		if u.Text == "" {
			continue
		}
		u.Order = len(units)
		units = append(units, u)
	}

	return units
}

// isBold reports whether most non-empty runs are bold. Heading and title
// paragraph styles count as bold.
func isBold(p Paragraph) bool {
	style := strings.ToLower(strings.TrimSpace(p.Style))
	if strings.HasPrefix(style, "heading") || strings.HasPrefix(style, "title") {
		return true
	}

	total, bold := 0, 0
	for _, r := range p.Runs {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		total++
		if r.Bold {
			bold++
		}
	}
	return total > 0 && 2*bold > total
}

func joinCells(row []string) string {
	cells := make([]string, 0, len(row))
	for _, c := range row {
		c = CleanText(c)
		if c == "" {
			continue
		}
		cells = append(cells, c)
	}
	return strings.Join(cells, CellSeparator)
}

// CleanText applies NFC normalisation, maps every whitespace variant
// (including non-breaking spaces) to a single space and trims the result.
// Zero-width characters are removed.
func CleanText(s string) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case r == '\u200b' || r == '\u200c' || r == '\u200d' || r == '\ufeff':
			continue
		case unicode.IsSpace(r):
			space = true
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
