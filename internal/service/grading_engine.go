package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/gema-grader/internal/models"
	"github.com/noah-isme/gema-grader/internal/observability"
	"github.com/noah-isme/gema-grader/internal/prompt"
	"github.com/noah-isme/gema-grader/pkg/ai"
)

// ErrInvalidGradeRequest indicates an override outside the accepted range.
var ErrInvalidGradeRequest = errors.New("invalid grade request")

// GradeRequest is one grading call with optional overrides of the catalog defaults.
type GradeRequest struct {
	Submission    models.Submission
	PromptVersion string
	ModelID       string
	Temperature   *float64
	MaxTokens     int
}

// GradingEngine renders the prompt, invokes the model and parses the grade.
type GradingEngine interface {
	Grade(ctx context.Context, req GradeRequest) (models.GradingResult, error)
	GradeSubmission(ctx context.Context, question, rubric, studentResponse, promptVersion string) (models.GradingResult, error)
}

type gradingEngine struct {
	catalog  *models.Catalog
	renderer *prompt.Renderer
	backend  ai.Backend
	pricing  models.PricingTable
	logger   zerolog.Logger
	now      func() time.Time
	newID    func() string
}

// NewGradingEngine constructs the engine over an immutable catalog and an inference backend.
func NewGradingEngine(catalog *models.Catalog, backend ai.Backend, logger zerolog.Logger) GradingEngine {
	return &gradingEngine{
		catalog:  catalog,
		renderer: prompt.NewRenderer(catalog),
		backend:  backend,
		pricing:  catalog.Pricing(),
		logger:   logger.With().Str("component", "grading_engine").Logger(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (e *gradingEngine) GradeSubmission(ctx context.Context, question, rubric, studentResponse, promptVersion string) (models.GradingResult, error) {
	return e.Grade(ctx, GradeRequest{
		Submission: models.Submission{
			Question:        question,
			Rubric:          rubric,
			StudentResponse: studentResponse,
		},
		PromptVersion: promptVersion,
	})
}

func (e *gradingEngine) Grade(ctx context.Context, req GradeRequest) (result models.GradingResult, err error) {
	defaults := e.catalog.Defaults()

	version := strings.TrimSpace(req.PromptVersion)
	if version == "" {
		version = defaults.DefaultPromptVersion
	}
	modelID := strings.TrimSpace(req.ModelID)
	if modelID == "" {
		modelID = defaults.DefaultModel
	}
	temperature := defaults.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := defaults.MaxTokens
	if req.MaxTokens != 0 {
		maxTokens = req.MaxTokens
	}

	tracer := otel.Tracer("github.com/noah-isme/gema-grader/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.grade_submission")
	span.SetAttributes(
		attribute.String("grading.prompt_version", version),
		attribute.String("grading.model", modelID),
	)
	defer span.End()

	start := e.now()
	defer func() {
		outcome := outcomeLabel(err)
		observability.GradingRequests().WithLabelValues(version, outcome).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
			e.logger.Warn().Err(err).Str("prompt_version", version).Str("model", modelID).Str("outcome", outcome).Msg("grading failed")
			return
		}
		observability.GradingLatency().WithLabelValues(modelID).Observe(e.now().Sub(start).Seconds())
		observability.GradingCost().WithLabelValues(modelID).Add(result.CostUSD)
	}()

	if temperature < 0 || temperature > 1 {
		return models.GradingResult{}, fmt.Errorf("%w: temperature %.2f outside [0,1]", ErrInvalidGradeRequest, temperature)
	}
	if maxTokens <= 0 {
		return models.GradingResult{}, fmt.Errorf("%w: max tokens must be positive", ErrInvalidGradeRequest)
	}

	rendered, err := e.renderer.Render(version, req.Submission)
	if err != nil {
		return models.GradingResult{}, err
	}

	// Refuse before spending tokens on a call whose cost cannot be accounted.
	if _, ok := e.pricing[modelID]; !ok {
		return models.GradingResult{}, &UnknownModelPricingError{ModelID: modelID}
	}

	e.logger.Info().
		Str("model", modelID).
		Str("prompt_version", rendered.Version).
		Float64("temperature", temperature).
		Msg("grading submission")

	resp, err := e.backend.Invoke(ctx, ai.Request{
		Model:       modelID,
		System:      rendered.System,
		Prompt:      rendered.User,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return models.GradingResult{}, err
	}

	result, err = ParseResponse(resp.Text, modelID, resp.InputTokens, resp.OutputTokens, e.pricing)
	if err != nil {
		return models.GradingResult{}, err
	}

	model, _ := e.catalog.Model(modelID)
	result.RequestID = e.newID()
	result.PromptVersion = rendered.Version
	result.ModelName = model.Name
	result.Temperature = temperature
	result.MaxTokens = maxTokens
	result.GradedAt = e.now().UTC()

	span.SetAttributes(
		attribute.Float64("grading.grade", result.Grade),
		attribute.Float64("grading.cost_usd", result.CostUSD),
	)

	e.logger.Info().
		Str("request_id", result.RequestID).
		Float64("grade", result.Grade).
		Float64("total_points", result.TotalPoints).
		Int64("total_tokens", result.TotalTokens).
		Float64("cost_usd", result.CostUSD).
		Msg("grading complete")

	return result, nil
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, prompt.ErrTemplateNotFound):
		return "template_not_found"
	case errors.Is(err, prompt.ErrInvalidSubmission), errors.Is(err, ErrInvalidGradeRequest):
		return "invalid_request"
	case errors.Is(err, ErrUnknownModelPricing):
		return "unknown_pricing"
	case errors.Is(err, ErrResponseParse):
		return "parse_error"
	case ai.KindOf(err) != nil:
		return ai.KindLabel(ai.KindOf(err))
	default:
		return "error"
	}
}
