// Package export writes assessment runs to xlsx workbooks and JSON files.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/cv-assessor/internal/assessment"
)

const (
	summarySheet  = "Summary"
	rankingSheet  = "Ranking"
	detailsSheet  = "Details"
	criteriaSheet = "Criteria"

	headerColor = "4472C4"
)

// fitColors maps fit levels onto row fills.
var fitColors = map[string]string{
	"Excellent": "C6EFCE",
	"Good":      "FFEB9C",
	"Fair":      "FFC7CE",
	"Poor":      "FF9999",
}

var border = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// XLSXPath appends the .xlsx extension when it is missing and cleans the path.
func XLSXPath(path string) string {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	return filepath.Clean(path)
}

// WriteXLSX saves the run as a workbook and returns the path written.
func WriteXLSX(run assessment.Run, path string) (string, error) {
	path = XLSXPath(path)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return "", fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{rankingSheet, detailsSheet, criteriaSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return "", fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return "", fmt.Errorf("create header style: %w", err)
	}

	w := &workbook{f: f, header: header, fills: map[string]int{}}
	steps := []struct {
		name  string
		write func(assessment.Run) error
	}{
		{name: summarySheet, write: w.summary},
		{name: rankingSheet, write: w.ranking},
		{name: detailsSheet, write: w.details},
		{name: criteriaSheet, write: w.criteria},
	}
	for _, step := range steps {
		if err := step.write(run); err != nil {
			return "", fmt.Errorf("write %s sheet: %w", strings.ToLower(step.name), err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

type workbook struct {
	f      *excelize.File
	header int
	fills  map[string]int
}

func (w *workbook) summary(run assessment.Run) error {
	sheet := summarySheet
	if err := w.f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return err
	}
	if err := w.f.SetColWidth(sheet, "B", "B", 60); err != nil {
		return err
	}

	counts := map[assessment.Status]int{}
	for _, rec := range run.Records {
		counts[rec.Status]++
	}

	rows := [][]any{
		{"Run", run.ID},
		{"Role", run.Role},
		{"Extraction strategy", run.Strategy},
		{"Low confidence extraction", run.LowConfidence},
		{"Started", run.StartedAt.Format("2006-01-02 15:04:05")},
		{"Finished", run.FinishedAt.Format("2006-01-02 15:04:05")},
		{"Candidates", run.Total},
		{"Scored", counts[assessment.StatusScored]},
		{"Unparsed", counts[assessment.StatusUnparsed]},
		{"Oracle failed", counts[assessment.StatusOracleFailed]},
		{"Unreadable", counts[assessment.StatusUnreadable]},
	}
	for i, row := range rows {
		if err := w.row(sheet, i+1, row); err != nil {
			return err
		}
	}

	label, err := w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, "A1", fmt.Sprintf("A%d", len(rows)), label)
}

func (w *workbook) ranking(run assessment.Run) error {
	sheet := rankingSheet
	headers := []any{"Rank", "Candidate", "Score", "Fit level", "Status", "Score source", "Recommendation", "Error"}
	widths := []float64{8, 30, 10, 12, 14, 14, 18, 50}
	if err := w.headers(sheet, headers, widths); err != nil {
		return err
	}

	for i, rec := range run.Records {
		row := i + 2
		var scoreCell any
		if rec.Score != nil {
			scoreCell = *rec.Score
		}
		var rank any
		if rec.Rank > 0 {
			rank = rec.Rank
		}
		recommendation := ""
		if rec.Report != nil {
			recommendation = rec.Report.Recommendation
		}

		values := []any{rank, rec.CandidateID, scoreCell, rec.FitLevel, string(rec.Status), string(rec.ScoreSource), recommendation, rec.Error}
		if err := w.row(sheet, row, values); err != nil {
			return err
		}
		if err := w.fill(sheet, row, len(values), rec.FitLevel); err != nil {
			return err
		}
	}

	if len(run.Records) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(headers), len(run.Records)+1)
		if err := w.f.AutoFilter(sheet, "A1:"+last, nil); err != nil {
			return err
		}
	}
	return w.freeze(sheet)
}

func (w *workbook) details(run assessment.Run) error {
	sheet := detailsSheet
	headers := []any{"Rank", "Candidate", "Section", "Content"}
	if err := w.headers(sheet, headers, []float64{8, 30, 24, 90}); err != nil {
		return err
	}

	wrap, err := w.f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    border,
	})
	if err != nil {
		return err
	}

	row := 2
	for _, rec := range run.Records {
		for _, section := range sections(rec) {
			if err := w.row(sheet, row, []any{rec.Rank, rec.CandidateID, section.name, section.content}); err != nil {
				return err
			}
			if err := w.f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row), wrap); err != nil {
				return err
			}
			row++
		}
	}
	return w.freeze(sheet)
}

func (w *workbook) criteria(run assessment.Run) error {
	sheet := criteriaSheet
	if err := w.headers(sheet, []any{"Criterion", "Weight", "Rationale"}, []float64{30, 10, 80}); err != nil {
		return err
	}
	for i, c := range run.Criteria.Criteria {
		if err := w.row(sheet, i+2, []any{c.Name, c.Weight, c.Rationale}); err != nil {
			return err
		}
	}
	return nil
}

type section struct {
	name, content string
}

// sections flattens a record into labelled text blocks. Records without a
// decoded report keep their raw oracle answer.
func sections(rec assessment.Record) []section {
	if rec.Report == nil {
		content := rec.RawReport
		if content == "" {
			content = rec.Error
		}
		return []section{{name: "Raw report", content: content}}
	}

	r := rec.Report
	var out []section
	add := func(name, content string) {
		if strings.TrimSpace(content) != "" {
			out = append(out, section{name: name, content: content})
		}
	}
	list := func(items []string) string {
		return strings.Join(items, "\n")
	}

	add("Executive summary", r.ExecutiveSummary)
	for _, c := range r.Criteria {
		add(fmt.Sprintf("%s (%.1f)", c.Name, c.Score), c.Explanation)
	}
	add("Strengths", list(r.Strengths))
	add("Weaknesses", list(r.Weaknesses))
	add("Missing requirements", list(r.MissingRequirements))
	add("Red flags", list(r.RedFlags))
	add("Recommendation", strings.TrimSpace(r.Recommendation+"\n"+r.RecommendationReasoning))
	add("Interview focus areas", list(r.InterviewFocusAreas))
	add("Why this score", r.WhyThisScore)
	return out
}

func (w *workbook) headers(sheet string, headers []any, widths []float64) error {
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := w.f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	if err := w.row(sheet, 1, headers); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, "A1", last, w.header)
}

func (w *workbook) row(sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &values)
}

func (w *workbook) fill(sheet string, row, cols int, fit string) error {
	color, ok := fitColors[fit]
	if !ok {
		return nil
	}
	style, ok := w.fills[color]
	if !ok {
		var err error
		style, err = w.f.NewStyle(&excelize.Style{
			Fill:   excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Border: border,
		})
		if err != nil {
			return err
		}
		w.fills[color] = style
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), last, style)
}

func (w *workbook) freeze(sheet string) error {
	return w.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
