package segment

import (
	"regexp"
	"strings"
)

// MarkerExpr matches a numbered role marker ("Key Expert 1", "KE-2", "Expert No. 3")
// and captures the number. It is valid for both regexp and regexp2.
const MarkerExpr = `\b(?:key[\s\-]*experts?|ke|experts?)[\s\-]*(?:no\.?\s*|#\s*)?(\d+)\b`

// ListPrefixExpr matches one bullet or list number ahead of a unit's text.
// It is valid for both regexp and regexp2.
const ListPrefixExpr = "[\\-\\*\u2022\u2023\u25AA\u25CF\u00B7]\\s*|" +
	`\(?[0-9]{1,3}(?:\.[0-9]{1,3})*[.)]?\s+|\(?[a-z][.)]\s+`

// TerminalTerms closes a role section when it heads a unit.
var TerminalTerms = []string{
	"annex",
	"annexes",
	"appendix",
	"general conditions",
	"special conditions",
	"terms and conditions",
	"non-key expert",
	"non-key experts",
	"non key expert",
	"non key experts",
	"reimbursement",
	"reimbursable",
	"deliverables",
	"incidental expenditure",
}

var descriptionTerms = []string{
	"qualification",
	"qualifications",
	"experience",
	"responsibility",
	"responsibilities",
	"skills",
	"skill",
	"education",
	"competence",
	"competences",
	"competencies",
	"duties",
	"tasks",
	"profile",
	"requirements",
}

var (
	markerPattern      = regexp.MustCompile(`(?i)` + MarkerExpr)
	terminalPattern    = regexp.MustCompile(`(?i)\b` + TerminalExpr() + `\b`)
	terminalPrefix     = regexp.MustCompile(`(?i)^(?:[0-9ivx]+[.)]\s*)?` + TerminalExpr() + `\b`)
	descriptionPattern = regexp.MustCompile(`(?i)\b(?:` + strings.Join(descriptionTerms, "|") + `)\b`)
	listPrefix         = regexp.MustCompile(`(?i)^(?:` + ListPrefixExpr + `)+`)
)

// TerminalExpr returns the terminal vocabulary as a regex alternation group.
func TerminalExpr() string {
	terms := make([]string, 0, len(TerminalTerms))
	for _, term := range TerminalTerms {
		term = regexp.QuoteMeta(term)
		terms = append(terms, strings.ReplaceAll(term, " ", `\s+`))
	}
	return `(?:` + strings.Join(terms, "|") + `)`
}
