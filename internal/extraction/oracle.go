package extraction

import (
	"context"
	"errors"
	"strings"

	"github.com/spigell/cv-assessor/internal/ai"
	"github.com/spigell/cv-assessor/internal/document"
	"github.com/spigell/cv-assessor/internal/segment"
)

// errorMarkers count only as the whole answer or as a label ("Error: ...").
var errorMarkers = []string{
	strings.ToLower(ai.RoleNotFoundMarker),
	"not found",
	"error",
	"none",
	"n/a",
}

// refusals open a sentence in which the model declines to answer.
var refusals = []string{
	"i cannot ",
	"i can't ",
	"i am unable ",
}

type oracleStrategy struct {
	toggle
}

// NewOracle creates the strategy that asks the oracle for the role passage
// and accepts its answer verbatim.
func NewOracle() Strategy {
	return &oracleStrategy{}
}

func (s *oracleStrategy) Name() string { return StrategyOracle }

func (s *oracleStrategy) Validate(in Input, deps Deps) error {
	if deps.Oracle == nil {
		return errors.New("oracle is not configured")
	}
	if strings.TrimSpace(in.Text) == "" {
		return errors.New("document has no text")
	}
	return nil
}

func (s *oracleStrategy) Apply(ctx context.Context, deps Deps, in Input) ([]segment.Segment, string, error) {
	out, err := deps.Oracle.ExtractRole(ctx, in.Text, in.Role.String())
	if err != nil {
		return nil, "", err
	}

	out = strings.TrimSpace(out)
	if IsErrorMarker(out) {
		return nil, "", nil
	}

	return []segment.Segment{{Units: []document.Unit{{Text: out}}}}, out, nil
}

func (s *oracleStrategy) Status() Status {
	return Status{Name: s.Name(), Enabled: s.IsEnabled(), Reason: s.reason}
}

// IsErrorMarker reports whether an oracle answer means "nothing found".
func IsErrorMarker(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return true
	}
	if strings.Contains(lower, strings.ToLower(ai.RoleNotFoundMarker)) {
		return true
	}
	for _, marker := range errorMarkers {
		rest, ok := strings.CutPrefix(lower, marker)
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		if strings.Trim(rest, ".!") == "" || strings.HasPrefix(rest, ":") {
			return true
		}
	}
	for _, refusal := range refusals {
		if strings.HasPrefix(lower, refusal) {
			return true
		}
	}
	return false
}
