// Package segment isolates the parts of a normalized document that describe
// one role.
package segment

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spigell/cv-assessor/internal/document"
	"github.com/spigell/cv-assessor/internal/role"
)

// headingWords is the word count below which a unit may act as a heading.
const headingWords = 15

// Kind is the classification of a single unit.
type Kind int

const (
	Continuation Kind = iota
	MatchesTarget
	MatchesOtherRole
	TerminalSection
)

func (k Kind) String() string {
	switch k {
	case MatchesTarget:
		return "matches_target"
	case MatchesOtherRole:
		return "matches_other_role"
	case TerminalSection:
		return "terminal_section"
	default:
		return "continuation"
	}
}

// Classifier decides how a unit affects the capture of a role section.
type Classifier interface {
	Classify(unit document.Unit) Kind
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(document.Unit) Kind

func (f ClassifierFunc) Classify(unit document.Unit) Kind { return f(unit) }

// RoleClassifier classifies units against a resolved role identifier.
type RoleClassifier struct {
	role role.Identifier
}

func NewRoleClassifier(id role.Identifier) *RoleClassifier {
	return &RoleClassifier{role: id}
}

func (c *RoleClassifier) Classify(unit document.Unit) Kind {
	text := unit.Text
	if strings.TrimSpace(text) == "" {
		return Continuation
	}

	short := wordCount(text) < headingWords
	marker, opens := openingMarker(text)

	if c.matchesTarget(text, short, marker, opens) {
		return MatchesTarget
	}
	if opens {
		return MatchesOtherRole
	}

	heading := unit.Bold && short
	if heading && descriptionPattern.MatchString(text) {
		return Continuation
	}
	if heading && terminalPattern.MatchString(text) {
		return TerminalSection
	}
	if short && terminalPrefix.MatchString(stripListPrefix(text)) {
		return TerminalSection
	}

	return Continuation
}

// matchesTarget reports whether the unit opens the target role. A role named
// only in passing ("reports to Key Expert 1") never does.
func (c *RoleClassifier) matchesTarget(text string, short bool, marker int, opens bool) bool {
	if c.role.Number != nil {
		return opens && marker == *c.role.Number
	}

	if c.role.Normalized == "" {
		return false
	}
	body := role.Normalize(stripListPrefix(text))
	if startsWithName(body, c.role.Normalized) {
		return true
	}
	// "Key Expert 1 (Team Leader)" names the role right after its marker.
	return opens && short && strings.Contains(body, c.role.Normalized)
}

// openingMarker returns the number of the role marker the unit starts with,
// after any list numbering or bullet.
func openingMarker(text string) (int, bool) {
	body := strings.TrimLeft(stripListPrefix(text), " \t([*")
	loc := markerPattern.FindStringSubmatchIndex(body)
	if loc == nil || loc[0] != 0 {
		return 0, false
	}
	n, err := strconv.Atoi(body[loc[2]:loc[3]])
	if err != nil {
		return 0, false
	}
	return n, true
}

func startsWithName(body, name string) bool {
	if !strings.HasPrefix(body, name) {
		return false
	}
	next, _ := utf8.DecodeRuneInString(body[len(name):])
	return next == utf8.RuneError || !unicode.IsLetter(next) && !unicode.IsDigit(next)
}

func stripListPrefix(text string) string {
	return text[len(listPrefix.FindString(text)):]
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
