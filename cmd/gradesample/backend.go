package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grader/internal/config"
	"github.com/noah-isme/gema-grader/pkg/ai"
)

func newBackend(ctx context.Context, cfg config.Config, logger zerolog.Logger) (ai.Backend, error) {
	switch cfg.Provider {
	case config.ProviderBedrock:
		return ai.NewAnthropicBackend(ctx, ai.AnthropicConfig{
			Transport: ai.TransportBedrock,
			Region:    cfg.AWSRegion,
			Logger:    logger,
		})
	case config.ProviderVertex:
		return ai.NewAnthropicBackend(ctx, ai.AnthropicConfig{
			Transport: ai.TransportVertex,
			Region:    cfg.VertexRegion,
			ProjectID: cfg.VertexProject,
			Logger:    logger,
		})
	case config.ProviderAnthropic:
		return ai.NewAnthropicBackend(ctx, ai.AnthropicConfig{
			Transport: ai.TransportDirect,
			APIKey:    cfg.AnthropicAPIKey,
			Logger:    logger,
		})
	case config.ProviderOpenAI:
		return ai.NewOpenAIBackend(ai.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Logger:  logger,
		})
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}
