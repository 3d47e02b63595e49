package ai

import "context"

// Request is a single grading prompt sent to an inference endpoint.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Response is the raw completion and the token usage reported by the endpoint.
type Response struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Backend performs one synchronous model invocation. Implementations never retry;
// failures are returned as *InvokeError classified by kind.
type Backend interface {
	Invoke(ctx context.Context, req Request) (Response, error)
}
