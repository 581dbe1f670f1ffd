package assessment

import (
	"fmt"
	"strings"

	"github.com/spigell/cv-assessor/internal/criteria"
)

// BuildRequirements assembles the block sent to the oracle with every
// candidate. The criteria come first so they survive input truncation.
func BuildRequirements(roleText, generalContext string, table criteria.Table) string {
	var b strings.Builder

	if len(table.Criteria) > 0 {
		b.WriteString("## Evaluation criteria (weights total 100)\n")
		for _, c := range table.Criteria {
			fmt.Fprintf(&b, "- %s (weight %.1f)", c.Name, c.Weight)
			if c.Rationale != "" {
				b.WriteString(": " + c.Rationale)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Role requirements\n")
	b.WriteString(strings.TrimSpace(roleText))
	b.WriteString("\n")

	if ctx := strings.TrimSpace(generalContext); ctx != "" {
		b.WriteString("\n## General context\n")
		b.WriteString(ctx)
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}
