package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/noah-isme/gema-grader/internal/config"
	"github.com/noah-isme/gema-grader/internal/database"
	"github.com/noah-isme/gema-grader/internal/models"
	"github.com/noah-isme/gema-grader/internal/observability"
	"github.com/noah-isme/gema-grader/internal/repository"
	"github.com/noah-isme/gema-grader/internal/service"
)

const (
	defaultSamplePath = "data/samples/example_submission.json"
	resultPath        = "data/results/test_grading_result.json"
	metricsJob        = "gema_grader_sample"
	historyLimit      = 5
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, os.Stdout).With().Str("app", cfg.AppName).Logger()

	samplePath := defaultSamplePath
	if len(os.Args) > 1 {
		samplePath = os.Args[1]
	}

	catalog, err := config.LoadCatalog(cfg.ConfigDir)
	if err != nil {
		return fmt.Errorf("failed to load grading catalog: %w", err)
	}

	sample, submission, err := loadSample(samplePath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := newBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create %s backend: %w", cfg.Provider, err)
	}

	engine := service.NewGradingEngine(catalog, backend, logger)

	if cfg.MetricsPushURL != "" {
		defer func() {
			if err := observability.PushMetrics(context.Background(), cfg.MetricsPushURL, metricsJob); err != nil {
				logger.Warn().Err(err).Msg("failed to push metrics")
			}
		}()
	}

	logger.Info().
		Str("assignment_id", sample.AssignmentID).
		Str("provider", cfg.Provider).
		Str("sample", samplePath).
		Msg("grading sample submission")

	callCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	result, err := engine.Grade(callCtx, service.GradeRequest{
		Submission:    submission,
		PromptVersion: sample.PromptVersion,
	})
	if err != nil {
		return fmt.Errorf("grading failed: %w", err)
	}

	printResult(result)

	if err := writeResult(resultPath, result); err != nil {
		logger.Error().Err(err).Msg("failed to save result")
	} else {
		logger.Info().Str("path", resultPath).Msg("result saved")
	}

	if cfg.DatabaseURL == "" {
		return nil
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	history, err := recordResult(ctx, repository.NewGradingResultRepository(db), result, logger)
	if err != nil {
		return err
	}
	printHistory(history)
	return nil
}

func printResult(result models.GradingResult) {
	fmt.Printf("\nGrade: %g/%g\n", result.Grade, result.TotalPoints)
	fmt.Printf("\nFeedback:\n%s\n", result.Feedback)
	printList("Strengths", result.Strengths)
	printList("Areas for Improvement", result.Improvements)
	fmt.Println()
	fmt.Printf("Model: %s (%s)\n", result.ModelName, result.ModelID)
	fmt.Printf("Prompt Version: %s\n", result.PromptVersion)
	fmt.Printf("Temperature: %g\n", result.Temperature)
	fmt.Printf("Tokens: %d in, %d out, %d total\n", result.InputTokens, result.OutputTokens, result.TotalTokens)
	fmt.Printf("Cost: $%.4f\n", result.CostUSD)
	fmt.Printf("Graded At: %s\n", result.GradedAt.Format(time.RFC3339))
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, item := range items {
		fmt.Printf("  • %s\n", item)
	}
}

func printHistory(history []models.GradingResult) {
	if len(history) == 0 {
		return
	}
	fmt.Printf("\nRecent results for this model and prompt version:\n")
	for _, r := range history {
		fmt.Printf("  %s  %g/%g  $%.4f  %s\n", r.GradedAt.Format(time.RFC3339), r.Grade, r.TotalPoints, r.CostUSD, r.RequestID)
	}
}

func writeResult(path string, result models.GradingResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}
