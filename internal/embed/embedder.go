package embed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bookowl/bookowl/internal/model"
)

// Embedder converts text into a fixed-dimension numeric vector
type Embedder interface {
	// Name returns the embedder name
	Name() string

	// Dimension returns the deployment-wide vector dimension D
	Dimension() int

	// Embed returns the embedding for the given text. The returned vector
	// always has exactly Dimension() elements; a backend returning a
	// different size is a hard error, never coerced.
	Embed(ctx context.Context, text string) ([]float64, error)
}

// embedSleepFunc is the sleep function used between retries (injectable for tests)
var embedSleepFunc = time.Sleep

// retryDelay returns the backoff before the given retry attempt
func retryDelay(attempt int) time.Duration {
	return time.Duration(attempt+1) * 500 * time.Millisecond
}

// NewEmbedder creates an embedding client based on configuration
func NewEmbedder(config model.EmbeddingConfig) (Embedder, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIEmbedder(config)

	case "ollama":
		return NewOllamaEmbedder(config)

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// checkDimension rejects vectors that do not match the configured D
func checkDimension(want int, vec []float64) error {
	if len(vec) != want {
		return &model.DimensionError{Want: want, Got: len(vec)}
	}
	return nil
}
