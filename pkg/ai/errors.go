package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Failure kinds surfaced by every backend. Match them with errors.Is.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrInvalidModel   = errors.New("invalid model")
	ErrRateLimit      = errors.New("rate limited")
	ErrTransport      = errors.New("transport failure")
)

// InvokeError carries the failure kind together with the underlying SDK error.
type InvokeError struct {
	Kind       error
	Provider   string
	Model      string
	StatusCode int
	Err        error
}

func (e *InvokeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s invoke %s: %v", e.Provider, e.Model, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the SDK error.
func (e *InvokeError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the failure kind of err, or nil when err is not an invocation failure.
func KindOf(err error) error {
	for _, kind := range []error{ErrAuthentication, ErrInvalidModel, ErrRateLimit, ErrTransport} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// KindLabel is the metric and log label of a failure kind.
func KindLabel(kind error) string {
	switch kind {
	case ErrAuthentication:
		return "authentication"
	case ErrInvalidModel:
		return "invalid_model"
	case ErrRateLimit:
		return "rate_limit"
	default:
		return "transport"
	}
}

// classifyStatus maps an HTTP status and error message onto a failure kind.
func classifyStatus(status int, message string) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrAuthentication
	case status == http.StatusTooManyRequests:
		return ErrRateLimit
	case status == http.StatusNotFound:
		return ErrInvalidModel
	case status == http.StatusBadRequest && mentionsInvalidModel(message):
		return ErrInvalidModel
	default:
		return ErrTransport
	}
}

// Bedrock answers unknown model ids with a 400 ValidationException rather than a 404.
func mentionsInvalidModel(message string) bool {
	lower := strings.ToLower(message)
	for _, marker := range []string{"model identifier is invalid", "invalid model", "model_not_found", "does not exist"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
