package extraction

import (
	"context"
	"errors"
	"strconv"

	"github.com/spigell/cv-assessor/internal/segment"
)

type structuralStrategy struct {
	toggle
	minLength int
}

// NewStructural creates the strategy that walks styled units with the segment state machine.
func NewStructural(minLength int) Strategy {
	return &structuralStrategy{minLength: minLength}
}

func (s *structuralStrategy) Name() string { return StrategyStructural }

func (s *structuralStrategy) Validate(in Input, _ Deps) error {
	if in.Source == nil || !in.Source.HasStyles() {
		return errors.New("source carries no style information")
	}
	if len(in.Units) == 0 {
		return errors.New("document has no text")
	}
	return nil
}

func (s *structuralStrategy) Apply(_ context.Context, _ Deps, in Input) ([]segment.Segment, string, error) {
	segments := segment.Extract(in.Units, segment.NewRoleClassifier(in.Role), segment.Options{MinLength: s.minLength})
	return segments, segment.Join(segments), nil
}

func (s *structuralStrategy) Status() Status {
	return Status{
		Name:    s.Name(),
		Enabled: s.IsEnabled(),
		Reason:  s.reason,
		Details: map[string]string{"min_length": strconv.Itoa(segment.Options{MinLength: s.minLength}.Min())},
	}
}
