package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grader/internal/models"
	"github.com/noah-isme/gema-grader/internal/repository"
)

// recordResult appends result to the log, reads it back, and returns the most
// recent results for the same model and prompt version.
func recordResult(ctx context.Context, repo repository.GradingResultRepository, result models.GradingResult, logger zerolog.Logger) ([]models.GradingResult, error) {
	if err := repo.Create(ctx, &result); err != nil {
		return nil, fmt.Errorf("failed to record grading result: %w", err)
	}

	stored, err := repo.GetByRequestID(ctx, result.RequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back grading result %s: %w", result.RequestID, err)
	}
	logger.Info().Str("request_id", stored.RequestID).Uint("id", stored.ID).Msg("grading result recorded")

	history, err := repo.List(ctx, repository.GradingResultFilter{
		ModelID:       &stored.ModelID,
		PromptVersion: &stored.PromptVersion,
		Limit:         historyLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent results: %w", err)
	}
	return history, nil
}
