package ai

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/noah-isme/gema-grader/pkg/ai"

var (
	invokeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "invoke_duration_seconds",
		Help:      "Duration of model invocation requests",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
	}, []string{"provider", "model"})

	invokeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "invoke_failures_total",
		Help:      "Number of model invocation failures by kind",
	}, []string{"provider", "model", "kind"})

	invokeTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "tokens_total",
		Help:      "Tokens consumed by model invocations",
	}, []string{"provider", "model", "direction"})
)

// finish records metrics and span status for one invocation.
func finish(span trace.Span, provider, model string, start time.Time, resp Response, err error) {
	invokeDuration.WithLabelValues(provider, model).Observe(time.Since(start).Seconds())

	if err != nil {
		kind := ErrTransport
		var invokeErr *InvokeError
		if errors.As(err, &invokeErr) && invokeErr.Kind != nil {
			kind = invokeErr.Kind
		}
		invokeFailures.WithLabelValues(provider, model, KindLabel(kind)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, KindLabel(kind))
		return
	}

	invokeTokens.WithLabelValues(provider, model, "input").Add(float64(resp.InputTokens))
	invokeTokens.WithLabelValues(provider, model, "output").Add(float64(resp.OutputTokens))
	span.SetAttributes(
		attribute.Int64("ai.input_tokens", resp.InputTokens),
		attribute.Int64("ai.output_tokens", resp.OutputTokens),
	)
}
