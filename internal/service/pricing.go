package service

import (
	"errors"
	"fmt"

	"github.com/noah-isme/gema-grader/internal/models"
)

// ErrUnknownModelPricing indicates the pricing table has no entry for a model.
var ErrUnknownModelPricing = errors.New("unknown model pricing")

// UnknownModelPricingError names the model that could not be priced.
type UnknownModelPricingError struct {
	ModelID string
}

func (e *UnknownModelPricingError) Error() string {
	return fmt.Sprintf("no pricing entry for model %q", e.ModelID)
}

// Is makes every UnknownModelPricingError match ErrUnknownModelPricing.
func (e *UnknownModelPricingError) Is(target error) bool {
	return target == ErrUnknownModelPricing
}

// ComputeCost prices a single invocation in USD from per-1K token rates.
func ComputeCost(pricing models.PricingTable, modelID string, inputTokens, outputTokens int64) (float64, error) {
	rate, ok := pricing[modelID]
	if !ok {
		return 0, &UnknownModelPricingError{ModelID: modelID}
	}
	return float64(inputTokens)/1000*rate.InputPer1K + float64(outputTokens)/1000*rate.OutputPer1K, nil
}
