package ai

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/cv-assessor/internal/utils"
)

const (
	// MaxRequirementsRunes caps the requirements block sent with each assessment.
	MaxRequirementsRunes = 4000
	// MaxCandidateRunes caps the CV text sent with each assessment.
	MaxCandidateRunes = 5000
	// MaxDocumentRunes caps the tender text sent for role extraction.
	MaxDocumentRunes = 120000

	defaultMaxLogLength = 200
)

// RoleNotFoundMarker is what the extraction prompt asks the model to answer
// when the role is absent.
const RoleNotFoundMarker = "ROLE NOT FOUND"

const (
	assessSystem   = "You are an expert HR professional evaluating candidates for consultancy tenders. Always answer with the requested JSON. Include both what the candidate HAS and what they DO NOT HAVE."
	extractSystem  = "You extract passages from procurement documents. You never invent text."
	criteriaSystem = "You design weighted evaluation grids for expert recruitment. Always answer with the requested JSON."
)

var (
	//go:embed prompts/assess.md
	assessTemplate string
	//go:embed prompts/extract.md
	extractTemplate string
	//go:embed prompts/criteria.md
	criteriaTemplate string
)

// Generator produces a completion for a system instruction and a user message.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// Oracle is the scoring and extraction collaborator. Every method returns the
// model output as is; parsing belongs to the caller.
type Oracle interface {
	Assess(ctx context.Context, requirements, candidate string) (string, error)
	ExtractRole(ctx context.Context, document, role string) (string, error)
	ProposeCriteria(ctx context.Context, requirements string, total float64) (string, error)
}

// Assistant implements Oracle on top of a Generator with embedded prompts.
type Assistant struct {
	generator Generator
	logger    *zap.Logger
	maxLogLen int
}

func NewAssistant(generator Generator, logger *zap.Logger, maxLogLength int) *Assistant {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Assistant{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (a *Assistant) Assess(ctx context.Context, requirements, candidate string) (string, error) {
	if strings.TrimSpace(requirements) == "" {
		return "", errors.New("requirements are required")
	}
	if strings.TrimSpace(candidate) == "" {
		return "", errors.New("candidate text is required")
	}

	prompt := render(assessTemplate, map[string]string{
		"REQUIREMENTS": clip(requirements, MaxRequirementsRunes),
		"CANDIDATE":    clip(candidate, MaxCandidateRunes),
	})
	return a.generate(ctx, "assess", assessSystem, prompt)
}

func (a *Assistant) ExtractRole(ctx context.Context, document, role string) (string, error) {
	if strings.TrimSpace(document) == "" {
		return "", errors.New("document text is required")
	}
	if strings.TrimSpace(role) == "" {
		return "", errors.New("role is required")
	}

	prompt := render(extractTemplate, map[string]string{
		"ROLE":     strings.TrimSpace(role),
		"DOCUMENT": clip(document, MaxDocumentRunes),
	})
	return a.generate(ctx, "extract_role", extractSystem, prompt)
}

func (a *Assistant) ProposeCriteria(ctx context.Context, requirements string, total float64) (string, error) {
	if strings.TrimSpace(requirements) == "" {
		return "", errors.New("requirements are required")
	}
	if total <= 0 {
		return "", fmt.Errorf("invalid weight total %v", total)
	}

	prompt := render(criteriaTemplate, map[string]string{
		"REQUIREMENTS": clip(requirements, MaxRequirementsRunes),
		"TOTAL":        strconv.FormatFloat(total, 'f', -1, 64),
	})
	return a.generate(ctx, "propose_criteria", criteriaSystem, prompt)
}

func (a *Assistant) generate(ctx context.Context, task, system, prompt string) (string, error) {
	if a == nil || a.generator == nil {
		return "", errors.New("ai generator is not configured")
	}

	a.logger.Debug("generate content request",
		zap.String("task", task),
		zap.String("ai_model", a.generator.Model()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, system, prompt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", task, err)
	}

	a.logger.Debug("generate content response",
		zap.String("task", task),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	return raw, nil
}

func render(template string, values map[string]string) string {
	for key, value := range values {
		template = strings.ReplaceAll(template, "{{"+key+"}}", value)
	}
	return template
}

// clip keeps the first limit runes of s.
func clip(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
