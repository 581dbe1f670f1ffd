// Package role turns a free-text role query such as "Key Expert 1" or "KE1"
// into an identifier the segmenter can match against document text.
package role

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	numberPattern = regexp.MustCompile(`(key\s*expert|ke|expert)\s*(\d+)`)
	parentheses   = strings.NewReplacer("(", " ", ")", " ", "[", " ", "]", " ")
)

// Identifier is the resolved form of a role query.
type Identifier struct {
	Raw        string
	Normalized string
	// Number is nil for name-based roles such as "Team Leader".
	Number  *int
	Aliases []string
}

// NumberBased reports whether the role is matched by its number.
func (id Identifier) NumberBased() bool {
	return id.Number != nil
}

// String returns the canonical label used in logs and prompts.
func (id Identifier) String() string {
	if id.Number != nil {
		return "Key Expert " + strconv.Itoa(*id.Number)
	}
	return strings.TrimSpace(id.Raw)
}

// Resolve normalizes the query and extracts the role number when present.
func Resolve(query string) Identifier {
	normalized := Normalize(query)
	id := Identifier{Raw: query, Normalized: normalized}

	match := numberPattern.FindStringSubmatch(normalized)
	if match == nil {
		if normalized != "" {
			id.Aliases = []string{normalized}
		}
		return id
	}

	n, err := strconv.Atoi(match[2])
	if err != nil {
		id.Aliases = []string{normalized}
		return id
	}
	id.Number = &n
	id.Aliases = aliases(n)
	return id
}

// Normalize lower-cases the text, drops brackets and collapses whitespace.
func Normalize(text string) string {
	text = parentheses.Replace(strings.ToLower(text))
	return strings.Join(strings.Fields(text), " ")
}

func aliases(n int) []string {
	num := strconv.Itoa(n)
	set := map[string]struct{}{
		"key expert " + num: {},
		"ke " + num:         {},
		"ke" + num:          {},
		"expert " + num:     {},
	}

	out := make([]string, 0, len(set))
	for alias := range set {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}
