// Package extraction isolates the requirements of one role from a tender
// document by trying a fixed chain of strategies.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/cv-assessor/internal/ai"
	"github.com/spigell/cv-assessor/internal/document"
	"github.com/spigell/cv-assessor/internal/logger"
	"github.com/spigell/cv-assessor/internal/role"
	"github.com/spigell/cv-assessor/internal/segment"
)

// ErrRoleNotFound is reported when no strategy located the role.
var ErrRoleNotFound = errors.New("role not found in document")

// Strategy names, in the order the chain tries them.
const (
	StrategyStructural = "structural"
	StrategyRegex      = "regex"
	StrategyOracle     = "oracle"
	// StrategyDocument marks the full-document fallback.
	StrategyDocument = "document"
	// StrategyOverride marks text supplied by the operator.
	StrategyOverride = "override"
)

// Strategy is one way of locating the role inside a document.
type Strategy interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	// Validate reports why the strategy cannot run for this input.
	Validate(in Input, deps Deps) error
	Apply(ctx context.Context, deps Deps, in Input) ([]segment.Segment, string, error)
}

// Deps aggregates dependencies shared across strategies.
type Deps struct {
	Logger *zap.Logger
	Oracle ai.Oracle
}

// Config controls the chain.
type Config struct {
	Disabled  []string
	MinLength int
}

// Input is everything a strategy may look at.
type Input struct {
	Source document.Source
	Units  []document.Unit
	Text   string
	Role   role.Identifier
}

// NewInput normalizes the source once for all strategies.
func NewInput(src document.Source, query string) Input {
	units := document.Normalize(src)
	texts := make([]string, 0, len(units))
	for _, u := range units {
		texts = append(texts, u.Text)
	}
	return Input{
		Source: src,
		Units:  units,
		Text:   strings.Join(texts, "\n"),
		Role:   role.Resolve(query),
	}
}

// Attempt records what one strategy did.
type Attempt struct {
	Strategy string
	Outcome  string
	Reason   string
	Segments int
	Length   int
}

// Attempt outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeEmpty    = "empty"
	OutcomeFailed   = "failed"
	OutcomeSkipped  = "skipped"
	OutcomeDisabled = "disabled"
)

// Result is the immutable outcome of an extraction.
type Result struct {
	Role          role.Identifier
	Segments      []segment.Segment
	Strategy      string
	Text          string
	LowConfidence bool
	Attempts      []Attempt

	err error
}

// Err returns ErrRoleNotFound when the result fell back to the full document.
func (r Result) Err() error {
	return r.err
}

// Override returns a copy of r carrying operator supplied text.
func Override(r Result, text string) Result {
	attempts := make([]Attempt, len(r.Attempts), len(r.Attempts)+1)
	copy(attempts, r.Attempts)
	text = strings.TrimSpace(text)

	return Result{
		Role:     r.Role,
		Strategy: StrategyOverride,
		Text:     text,
		Attempts: append(attempts, Attempt{
			Strategy: StrategyOverride,
			Outcome:  OutcomeAccepted,
			Length:   utf8.RuneCountInString(text),
		}),
	}
}

// Chain runs strategies in order until one produces text.
type Chain struct {
	strategies []Strategy
	deps       Deps
	minLength  int
}

// DefaultStrategies returns the strategies in priority order.
func DefaultStrategies(minLength int) []Strategy {
	return []Strategy{
		NewStructural(minLength),
		NewRegex(minLength),
		NewOracle(),
	}
}

func New(cfg Config, deps Deps, strategies ...Strategy) *Chain {
	if len(strategies) == 0 {
		strategies = DefaultStrategies(cfg.MinLength)
	}
	for _, name := range cfg.Disabled {
		DisableByName(strategies, strings.TrimSpace(name), "disabled in configuration")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Chain{strategies: strategies, deps: deps, minLength: cfg.MinLength}
}

// DisableByName marks a strategy as disabled while keeping it in the chain.
func DisableByName(strategies []Strategy, name, reason string) {
	for _, s := range strategies {
		if s.Name() == name {
			s.Disable(reason)
		}
	}
}

// Extract runs the chain. When every strategy comes back empty the full
// document is returned with LowConfidence set and Err reporting ErrRoleNotFound.
// The returned error is non-nil only when ctx is done.
func (c *Chain) Extract(ctx context.Context, in Input) (Result, error) {
	log := c.deps.Logger.With(zap.String(logger.FieldRole, in.Role.String()))
	attempts := make([]Attempt, 0, len(c.strategies)+1)

	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		attempt := Attempt{Strategy: s.Name()}
		if !s.IsEnabled() {
			attempt.Outcome = OutcomeDisabled
			attempts = append(attempts, attempt)
			log.Debug("extraction strategy disabled", logger.Strategy(s.Name()))
			continue
		}
		if err := s.Validate(in, c.deps); err != nil {
			attempt.Outcome = OutcomeSkipped
			attempt.Reason = err.Error()
			attempts = append(attempts, attempt)
			log.Debug("extraction strategy skipped", logger.Strategy(s.Name()), zap.Error(err))
			continue
		}

		segments, text, err := s.Apply(ctx, c.deps, in)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, ctxErr
			}
			attempt.Outcome = OutcomeFailed
			attempt.Reason = err.Error()
			attempts = append(attempts, attempt)
			log.Warn("extraction strategy failed", logger.Strategy(s.Name()), zap.Error(err))
			continue
		}

		text = strings.TrimSpace(text)
		attempt.Segments = len(segments)
		attempt.Length = utf8.RuneCountInString(text)
		if text == "" {
			attempt.Outcome = OutcomeEmpty
			attempts = append(attempts, attempt)
			log.Info("extraction strategy found nothing", logger.Strategy(s.Name()))
			continue
		}

		attempt.Outcome = OutcomeAccepted
		attempts = append(attempts, attempt)
		log.Info("role requirements extracted",
			logger.Strategy(s.Name()),
			zap.Int("segments", len(segments)),
			zap.Int("length", attempt.Length),
		)
		return Result{
			Role:     in.Role,
			Segments: segments,
			Strategy: s.Name(),
			Text:     text,
			Attempts: attempts,
		}, nil
	}

	log.Warn("no strategy located the role, using the full document")
	attempts = append(attempts, Attempt{
		Strategy: StrategyDocument,
		Outcome:  OutcomeAccepted,
		Length:   utf8.RuneCountInString(in.Text),
	})
	return Result{
		Role:          in.Role,
		Strategy:      StrategyDocument,
		Text:          in.Text,
		LowConfidence: true,
		Attempts:      attempts,
		err:           fmt.Errorf("%w: %s", ErrRoleNotFound, in.Role),
	}, nil
}

// Describe returns status entries for the chain's strategies.
func (c *Chain) Describe() []Status {
	return Describe(c.strategies)
}
