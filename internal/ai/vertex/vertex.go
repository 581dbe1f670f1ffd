// Package vertex provides a Generator backed by Gemini models on Vertex AI.
package vertex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"go.uber.org/zap"

	"github.com/spigell/cv-assessor/internal/logger"
)

const (
	Provider = "vertex"

	defaultModel    = "gemini-2.5-flash"
	defaultLocation = "us-central1"
	temperature     = 0.2
)

type contentModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Generator calls a Vertex AI generative model. A model handle is built per
// call so the system instruction never leaks between concurrent requests.
type Generator struct {
	client   *genai.Client
	newModel func(system string) contentModel
	model    string
	logger   *zap.Logger
}

func NewGenerator(ctx context.Context, project, location, model string, log *zap.Logger) (*Generator, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return nil, errors.New("vertex project is required")
	}
	if location = strings.TrimSpace(location); location == "" {
		location = defaultLocation
	}
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, project, location)
	if err != nil {
		return nil, fmt.Errorf("create vertex ai client: %w", err)
	}

	g := &Generator{
		client: client,
		model:  model,
		logger: logger.WithCommonFields(log, Provider, model),
	}
	g.newModel = func(system string) contentModel {
		m := client.GenerativeModel(model)
		m.SetTemperature(temperature)
		if system != "" {
			m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
		}
		return m
	}
	return g, nil
}

func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	if g == nil || g.newModel == nil {
		return "", errors.New("vertex generator is not initialized")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	resp, err := g.newModel(strings.TrimSpace(system)).GenerateContent(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	output := responseText(resp)
	if output == "" {
		return "", errors.New("vertex ai returned empty response")
	}

	g.logger.Debug("vertex response received")
	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Generator) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			text, ok := part.(genai.Text)
			if !ok {
				continue
			}
			trimmed := strings.TrimSpace(string(text))
			if trimmed == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(trimmed)
		}
	}
	return strings.TrimSpace(builder.String())
}
