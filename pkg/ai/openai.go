package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const providerOpenAI = "openai"

// OpenAIConfig defines configuration options for the OpenAI-compatible backend.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// OpenAIBackend invokes any OpenAI-compatible chat completion endpoint.
type OpenAIBackend struct {
	client *openai.Client
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIBackend builds a new backend using the provided configuration.
func NewOpenAIBackend(cfg OpenAIConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, &InvokeError{Kind: ErrAuthentication, Provider: providerOpenAI, Err: errors.New("openai api key is required")}
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	}

	return &OpenAIBackend{
		client: openai.NewClientWithConfig(config),
		tracer: otel.Tracer(tracerName),
		logger: cfg.Logger.With().Str("component", "openai_backend").Logger(),
	}, nil
}

// Invoke sends the chat completion request and returns the first choice.
func (b *OpenAIBackend) Invoke(parent context.Context, req Request) (resp Response, err error) {
	ctx, span := b.tracer.Start(parent, "openai.invoke", trace.WithAttributes(
		attribute.String("ai.provider", providerOpenAI),
		attribute.String("ai.model", req.Model),
		attribute.Int("ai.max_tokens", req.MaxTokens),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		finish(span, providerOpenAI, req.Model, start, resp, err)
	}()

	// A zero temperature is dropped by omitempty and the API would fall back to 1.
	temperature := float32(req.Temperature)
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	completion, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: temperature,
		Messages:    messages,
	})
	if err != nil {
		return Response{}, b.classify(req.Model, err)
	}

	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return Response{}, &InvokeError{
			Kind:     ErrTransport,
			Provider: providerOpenAI,
			Model:    req.Model,
			Err:      errors.New("no completion content returned"),
		}
	}

	resp = Response{
		Text:         completion.Choices[0].Message.Content,
		Model:        req.Model,
		InputTokens:  int64(completion.Usage.PromptTokens),
		OutputTokens: int64(completion.Usage.CompletionTokens),
	}

	b.logger.Info().
		Str("model", req.Model).
		Int64("input_tokens", resp.InputTokens).
		Int64("output_tokens", resp.OutputTokens).
		Msg("model invocation succeeded")

	return resp, nil
}

func (b *OpenAIBackend) classify(model string, err error) error {
	invokeErr := &InvokeError{Kind: ErrTransport, Provider: providerOpenAI, Model: model, Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		invokeErr.StatusCode = apiErr.HTTPStatusCode
		invokeErr.Kind = classifyStatus(apiErr.HTTPStatusCode, fmt.Sprintf("%v %s", apiErr.Code, apiErr.Message))
	case errors.As(err, &reqErr):
		invokeErr.StatusCode = reqErr.HTTPStatusCode
		invokeErr.Kind = classifyStatus(reqErr.HTTPStatusCode, reqErr.Error())
	}
	return invokeErr
}
