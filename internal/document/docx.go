package document

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// Doc is an in-memory converted document.
type Doc struct {
	name       string
	paragraphs []Paragraph
	tables     []Table
	styled     bool
}

func (d *Doc) Name() string { return d.name }
func (d *Doc) Paragraphs() []Paragraph { return d.paragraphs }
func (d *Doc) Tables() []Table { return d.tables }
func (d *Doc) HasStyles() bool { return d.styled }

// ReadDOCX reads paragraphs, bold runs and tables from an Office Open XML
// document.
func ReadDOCX(path string) (*Doc, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != docxBody {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", docxBody, err)
		}
		defer rc.Close()
		return parseDocumentXML(path, rc)
	}

	return nil, fmt.Errorf("%s not found in archive", docxBody)
}

// docxParser walks WordprocessingML tokens. Body level paragraphs and tables
// receive increasing positions; text inside table cells (including nested
// tables) is flattened into the enclosing top-level cell.
type docxParser struct {
	doc *Doc

	position   int
	tableDepth int

	para    *Paragraph
	inRun   bool
	inRunPr bool
	inText  bool
	run     Run

	table *Table
	row   []string
	cell  strings.Builder
}

func parseDocumentXML(name string, r io.Reader) (*Doc, error) {
	p := &docxParser{doc: &Doc{name: name, styled: true}}
	dec := xml.NewDecoder(r)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", docxBody, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			p.start(t)
		case xml.EndElement:
			p.end(t)
		case xml.CharData:
			if p.inText {
				p.text(string(t))
			}
		}
	}

	return p.doc, nil
}

func (p *docxParser) start(t xml.StartElement) {
	switch t.Name.Local {
	case "tbl":
		p.tableDepth++
		if p.tableDepth == 1 {
			p.table = &Table{Position: p.position}
			p.position++
		}
	case "tr":
		if p.tableDepth == 1 {
			p.row = nil
		}
	case "tc":
		if p.tableDepth == 1 {
			p.cell.Reset()
		}
	case "p":
		if p.tableDepth == 0 {
			p.para = &Paragraph{Position: p.position}
			p.position++
		}
	case "pStyle":
		if p.para != nil {
			p.para.Style = attr(t, "val")
		}
	case "r":
		p.inRun = true
		p.run = Run{}
	case "rPr":
		if p.inRun {
			p.inRunPr = true
		}
	case "b":
		if p.inRunPr {
			switch strings.ToLower(attr(t, "val")) {
			case "0", "false", "off":
				p.run.Bold = false
			default:
				p.run.Bold = true
			}
		}
	case "t":
		p.inText = p.inRun
	case "tab":
		if p.inRun {
			p.text("\t")
		}
	case "br", "cr":
		if p.inRun {
			p.text(" ")
		}
	}
}

func (p *docxParser) end(t xml.EndElement) {
	switch t.Name.Local {
	case "t":
		p.inText = false
	case "rPr":
		p.inRunPr = false
	case "r":
		if p.inRun && p.para != nil && p.tableDepth == 0 {
			p.para.Runs = append(p.para.Runs, p.run)
		}
		p.inRun = false
	case "p":
		if p.tableDepth == 0 && p.para != nil {
			p.doc.paragraphs = append(p.doc.paragraphs, *p.para)
			p.para = nil
		} else if p.tableDepth > 0 {
			p.cell.WriteByte(' ')
		}
	case "tc":
		if p.tableDepth == 1 {
			p.row = append(p.row, strings.TrimSpace(p.cell.String()))
		}
	case "tr":
		if p.tableDepth == 1 && p.table != nil {
			p.table.Rows = append(p.table.Rows, p.row)
			p.row = nil
		}
	case "tbl":
		if p.tableDepth == 1 && p.table != nil {
			p.doc.tables = append(p.doc.tables, *p.table)
			p.table = nil
		}
		if p.tableDepth > 0 {
			p.tableDepth--
		}
	}
}

func (p *docxParser) text(s string) {
	if p.tableDepth > 0 {
		p.cell.WriteString(s)
		return
	}
	p.run.Text += s
}

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
