package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bookowl/bookowl/internal/model"
)

// OllamaEmbedder produces embeddings through a local Ollama instance
type OllamaEmbedder struct {
	baseURL    string
	model      string
	dimension  int
	maxRetries int
	httpClient *http.Client
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewOllamaEmbedder creates a new Ollama embedding client
func NewOllamaEmbedder(config model.EmbeddingConfig) (*OllamaEmbedder, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	mdl := config.Model
	if mdl == "" {
		mdl = "nomic-embed-text"
	}

	return &OllamaEmbedder{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      mdl,
		dimension:  config.Dimension,
		maxRetries: config.MaxRetries,
		httpClient: &http.Client{},
	}, nil
}

// Name returns the embedder name
func (e *OllamaEmbedder) Name() string { return "ollama" }

// Dimension returns the configured vector dimension
func (e *OllamaEmbedder) Dimension() int { return e.dimension }

// Embed returns the embedding for the given text
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, &model.EmbeddingError{Provider: e.Name(), Err: fmt.Errorf("empty input")}
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, &model.EmbeddingError{Provider: e.Name(), Err: fmt.Errorf("marshal request: %w", err)}
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			embedSleepFunc(retryDelay(attempt - 1))
		}

		vec, err := e.embedOnce(ctx, body)
		if err != nil {
			lastErr = err
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			continue
		}
		if err := checkDimension(e.dimension, vec); err != nil {
			return nil, &model.EmbeddingError{Provider: e.Name(), Err: err}
		}
		return vec, nil
	}

	return nil, &model.EmbeddingError{Provider: e.Name(), Err: lastErr}
}

func (e *OllamaEmbedder) embedOnce(ctx context.Context, body []byte) ([]float64, error) {
	url := fmt.Sprintf("%s/api/embeddings", e.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var out ollamaEmbedResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return out.Embedding, nil
}
