package llm

import (
	"fmt"
	"strings"

	"github.com/bookowl/bookowl/internal/model"
)

// NewProvider creates a generative model provider based on configuration
func NewProvider(config model.LLMConfig) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}
