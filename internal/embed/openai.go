package embed

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookowl/bookowl/internal/model"
	"github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder produces embeddings through OpenAI's embeddings API
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimension  int
	maxRetries int
}

// NewOpenAIEmbedder creates a new OpenAI embedding client
func NewOpenAIEmbedder(config model.EmbeddingConfig) (*OpenAIEmbedder, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	mdl := config.Model
	if mdl == "" {
		mdl = string(openai.SmallEmbedding3)
	}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      mdl,
		dimension:  config.Dimension,
		maxRetries: config.MaxRetries,
	}, nil
}

// Name returns the embedder name
func (e *OpenAIEmbedder) Name() string { return "openai" }

// Dimension returns the configured vector dimension
func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

// Embed returns the embedding for the given text, retrying transient
// failures with backoff before surfacing an EmbeddingError.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, &model.EmbeddingError{Provider: e.Name(), Err: fmt.Errorf("empty input")}
	}

	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &model.EmbeddingError{Provider: e.Name(), Err: ctx.Err()}
			default:
			}
			embedSleepFunc(retryDelay(attempt - 1))
		}

		resp, err := e.client.CreateEmbeddings(ctx, req)
		if err != nil {
			lastErr = err
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			continue
		}
		if len(resp.Data) == 0 {
			lastErr = fmt.Errorf("no embedding in response")
			continue
		}

		vec := make([]float64, len(resp.Data[0].Embedding))
		for i, v := range resp.Data[0].Embedding {
			vec[i] = float64(v)
		}
		if err := checkDimension(e.dimension, vec); err != nil {
			return nil, &model.EmbeddingError{Provider: e.Name(), Err: err}
		}
		return vec, nil
	}

	return nil, &model.EmbeddingError{Provider: e.Name(), Err: lastErr}
}
