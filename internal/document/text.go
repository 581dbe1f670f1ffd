package document

import "strings"

// NewText builds an unstyled source from plain text. Every non-blank line
// becomes one paragraph.
func NewText(name, text string) *Doc {
	doc := &Doc{name: name}
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		doc.paragraphs = append(doc.paragraphs, Paragraph{
			Runs:     []Run{{Text: line}},
			Position: i,
		})
	}
	return doc
}

// NewStyled builds a source from already converted paragraphs and tables.
// It is used by converters living outside this package and by tests.
func NewStyled(name string, paragraphs []Paragraph, tables []Table) *Doc {
	return &Doc{name: name, paragraphs: paragraphs, tables: tables, styled: true}
}
