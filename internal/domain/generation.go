package domain

import "context"

// Generator is the text-generation model contract.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// GenerationHealthChecker verifies generation provider availability.
type GenerationHealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// GenerationRequest is one call to the generation model boundary.
type GenerationRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// GenerationResult carries the completion text and token usage.
type GenerationResult struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}
