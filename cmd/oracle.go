package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-assessor/internal/ai"
	"github.com/spigell/cv-assessor/internal/ai/gemini"
	"github.com/spigell/cv-assessor/internal/ai/vertex"
	"github.com/spigell/cv-assessor/internal/secrets"
)

const (
	geminiKeyEnv  = "GEMINI_API_KEY"
	vertexProjEnv = "GOOGLE_CLOUD_PROJECT"
)

// newOracle builds the configured provider. The returned closer is never nil.
func newOracle(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Oracle, func() error, error) {
	noop := func() error { return nil }
	if cfg == nil {
		cfg = &AIConfig{}
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	switch provider {
	case "", gemini.Provider:
		gc := cfg.Gemini
		if gc == nil {
			gc = &GeminiConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: gc.APIKey,
			File:  gc.APIKeyFile,
			Env:   geminiKeyEnv,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("%w (set ai.gemini.api-key-file or %s)", err, geminiKeyEnv)
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, gc.Model, gc.MaxRetries,
			logger.With(zap.Int("ai_retry_attempts", gc.MaxRetries)))
		if err != nil {
			return nil, noop, err
		}
		return ai.NewAssistant(generator, logger, gc.MaxLogLength), noop, nil

	case vertex.Provider:
		vc := cfg.Vertex
		if vc == nil {
			vc = &VertexConfig{}
		}

		project, err := secrets.Load(secrets.Source{
			Name:  "vertex project",
			Value: vc.Project,
			Env:   vertexProjEnv,
		})
		if err != nil {
			return nil, noop, err
		}

		generator, err := vertex.NewGenerator(ctx, project, vc.Location, vc.Model, logger)
		if err != nil {
			return nil, noop, err
		}
		return ai.NewAssistant(generator, logger, 0), generator.Close, nil

	default:
		return nil, noop, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}
