// Package criteria builds the weighted criteria table candidates are scored
// against.
package criteria

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Modes select how much of the table the role-specific criteria own.
const (
	ModeRole    = "role"
	ModeGeneral = "general"
)

const (
	// GeneralContextName is the complementary criterion added in role mode.
	GeneralContextName = "General context"
	// GeneralContextWeight is its fixed weight.
	GeneralContextWeight = 20.0
	// Tolerance is the allowed absolute drift of a weight sum from its target.
	Tolerance = 2.0

	tableTotal = 100.0
	epsilon    = 1e-9
)

var (
	ErrEmpty         = errors.New("no criteria")
	ErrInvalidWeight = errors.New("invalid criterion weight")
	ErrUnknownMode   = errors.New("unknown criteria mode")
)

type Criterion struct {
	Name      string  `yaml:"name" json:"name" mapstructure:"name"`
	Weight    float64 `yaml:"weight" json:"weight" mapstructure:"weight"`
	Rationale string  `yaml:"rationale,omitempty" json:"rationale,omitempty" mapstructure:"rationale"`
}

// Table is a finalized criteria list whose weights total 100.
type Table struct {
	Mode     string
	Criteria []Criterion
}

// Total returns the sum of the weights.
func (t Table) Total() float64 {
	return sum(t.Criteria)
}

// Defaults mirror a classic CV screening grid and are used when neither a
// criteria file nor the oracle supplies one.
func Defaults() []Criterion {
	return []Criterion{
		{Name: "Experience", Weight: 40, Rationale: "Relevant professional experience and track record"},
		{Name: "Skills", Weight: 30, Rationale: "Technical and soft skills named in the requirements"},
		{Name: "Education", Weight: 20, Rationale: "Degrees and certifications"},
		{Name: "Cultural fit", Weight: 10, Rationale: "Languages, regional exposure and working context"},
	}
}

// TargetTotal returns the weight total the mode's own criteria must reach.
func TargetTotal(mode string) (float64, error) {
	switch normalizeMode(mode) {
	case ModeRole:
		return tableTotal - GeneralContextWeight, nil
	case ModeGeneral:
		return tableTotal, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// Rescale returns a copy of list whose weights sum to total. Sums within
// Tolerance of total are left unchanged; anything else is multiplied by
// total/sum.
func Rescale(list []Criterion, total float64) ([]Criterion, error) {
	if err := validate(list); err != nil {
		return nil, err
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: target total %v", ErrInvalidWeight, total)
	}

	out := make([]Criterion, len(list))
	copy(out, list)

	s := sum(out)
	if math.Abs(s-total) <= Tolerance {
		return out, nil
	}

	factor := total / s
	for i := range out {
		out[i].Weight *= factor
	}
	return out, nil
}

// Finalize turns a proposed list into a table totalling exactly 100. In role
// mode the list is scaled to 80 and GeneralContextName is appended with 20.
// Drift left inside the tolerance is absorbed by the heaviest criterion.
func Finalize(mode string, list []Criterion) (Table, error) {
	mode = normalizeMode(mode)
	target, err := TargetTotal(mode)
	if err != nil {
		return Table{}, err
	}

	own := make([]Criterion, 0, len(list))
	for _, c := range list {
		c.Name = strings.TrimSpace(c.Name)
		c.Rationale = strings.TrimSpace(c.Rationale)
		if mode == ModeRole && strings.EqualFold(c.Name, GeneralContextName) {
			continue
		}
		own = append(own, c)
	}

	scaled, err := Rescale(own, target)
	if err != nil {
		return Table{}, err
	}

	if residual := target - sum(scaled); math.Abs(residual) > epsilon {
		scaled[heaviest(scaled)].Weight += residual
	}

	if mode == ModeRole {
		scaled = append(scaled, Criterion{
			Name:      GeneralContextName,
			Weight:    GeneralContextWeight,
			Rationale: "Overall suitability beyond the role-specific requirements",
		})
	}

	return Table{Mode: mode, Criteria: scaled}, nil
}

// Aggregate computes the composite score (0-100) from per-criterion scores.
// Names match case-insensitively; criteria without a score are left out and
// the remaining weights are renormalized. ok is false when nothing matched.
func Aggregate(table Table, scores map[string]float64) (float64, bool) {
	byName := make(map[string]float64, len(scores))
	for name, score := range scores {
		if math.IsNaN(score) {
			continue
		}
		byName[key(name)] = clamp(score)
	}

	var weighted, weights float64
	for _, c := range table.Criteria {
		score, ok := byName[key(c.Name)]
		if !ok || c.Weight <= 0 {
			continue
		}
		weighted += c.Weight * score
		weights += c.Weight
	}
	if weights == 0 {
		return 0, false
	}
	return weighted / weights, true
}

func validate(list []Criterion) error {
	if len(list) == 0 {
		return ErrEmpty
	}
	for _, c := range list {
		if c.Weight < 0 || math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) {
			return fmt.Errorf("%w: %q has weight %v", ErrInvalidWeight, c.Name, c.Weight)
		}
	}
	if sum(list) == 0 {
		return fmt.Errorf("%w: weights sum to zero", ErrInvalidWeight)
	}
	return nil
}

func sum(list []Criterion) float64 {
	var s float64
	for _, c := range list {
		s += c.Weight
	}
	return s
}

func heaviest(list []Criterion) int {
	idx := 0
	for i, c := range list {
		if c.Weight > list[idx].Weight {
			idx = i
		}
	}
	return idx
}

func clamp(score float64) float64 {
	return math.Max(0, math.Min(100, score))
}

func key(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func normalizeMode(mode string) string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		return ModeRole
	}
	return mode
}
