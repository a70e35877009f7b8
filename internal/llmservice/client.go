package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"

	"docs-agent/internal/config"
)

const defaultTemperature = 0.2

// New builds the answer-generation backend for the configured provider.
// Exactly two providers are supported; anything else is a construction
// error the caller treats as fatal.
func New(ctx context.Context, cfg *config.LLMConfig) (llms.Model, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		llm, err := googleai.New(ctx,
			googleai.WithAPIKey(cfg.Key),
			googleai.WithDefaultModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
		}
		return llm, nil
	case config.ProviderOpenRouter:
		llm, err := openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openrouter client: %w", err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER=%s", cfg.Provider)
	}
}

// Generate runs a single prompt against the backend. Errors propagate to
// the caller unchanged; there is no retry or mode fallback here.
func Generate(ctx context.Context, llm llms.Model, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, llm, prompt, llms.WithTemperature(defaultTemperature))
}
