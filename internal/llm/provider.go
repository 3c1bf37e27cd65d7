package llm

import (
	"context"

	"github.com/bookowl/bookowl/internal/model"
)

// Provider defines the interface for generative model backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate produces a completion for the assembled prompt
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest contains the input for answer generation
type GenerateRequest struct {
	// Prompt is the full instruction+context+question unit
	Prompt string

	// Model overrides the configured model when set
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature controls sampling; the pipeline keeps it low for
	// focused, context-bound answers
	Temperature float32
}

// GenerateResponse contains the model's output
type GenerateResponse struct {
	// Text is the generated answer
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// systemPrompt anchors every provider call to the grounding policy
const systemPrompt = "You are a helpful assistant that answers questions about books strictly from the supplied context."

// wrapErr tags a provider failure as a SynthesisError so the breaker and
// the pipeline can classify it without string matching.
func wrapErr(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &model.SynthesisError{Provider: provider, Err: err}
}
