package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bookowl/bookowl/internal/model"
)

func silenceRetrySleep(t *testing.T) {
	t.Helper()
	restore := embedSleepFunc
	embedSleepFunc = func(time.Duration) {}
	t.Cleanup(func() { embedSleepFunc = restore })
}

func ollamaServer(t *testing.T, embedding []float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Bad request body: %v", err)
		}
		if req.Prompt == "" {
			t.Error("Expected a prompt in the request")
		}
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: embedding})
	}))
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	server := ollamaServer(t, []float64{0.1, 0.2, 0.3})
	defer server.Close()

	e, err := NewOllamaEmbedder(model.EmbeddingConfig{
		BaseURL:   server.URL,
		Dimension: 3,
	})
	if err != nil {
		t.Fatalf("NewOllamaEmbedder failed: %v", err)
	}

	vec, err := e.Embed(context.Background(), "some question")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("Unexpected embedding: %v", vec)
	}
}

func TestOllamaEmbedder_EmptyInput(t *testing.T) {
	e, err := NewOllamaEmbedder(model.EmbeddingConfig{Dimension: 3})
	if err != nil {
		t.Fatalf("NewOllamaEmbedder failed: %v", err)
	}

	_, err = e.Embed(context.Background(), "")
	var embErr *model.EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("Expected EmbeddingError for empty input, got %v", err)
	}
}

func TestOllamaEmbedder_DimensionMismatch(t *testing.T) {
	server := ollamaServer(t, []float64{0.1, 0.2})
	defer server.Close()

	e, err := NewOllamaEmbedder(model.EmbeddingConfig{
		BaseURL:   server.URL,
		Dimension: 3,
	})
	if err != nil {
		t.Fatalf("NewOllamaEmbedder failed: %v", err)
	}

	_, err = e.Embed(context.Background(), "some question")
	var dimErr *model.DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("Expected DimensionError, got %v", err)
	}
	if dimErr.Want != 3 || dimErr.Got != 2 {
		t.Errorf("Unexpected dimensions: want %d got %d", dimErr.Want, dimErr.Got)
	}
}

func TestOllamaEmbedder_RetriesTransientFailures(t *testing.T) {
	silenceRetrySleep(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float64{1, 2, 3}})
	}))
	defer server.Close()

	e, err := NewOllamaEmbedder(model.EmbeddingConfig{
		BaseURL:    server.URL,
		Dimension:  3,
		MaxRetries: 3,
	})
	if err != nil {
		t.Fatalf("NewOllamaEmbedder failed: %v", err)
	}

	vec, err := e.Embed(context.Background(), "some question")
	if err != nil {
		t.Fatalf("Embed failed after transient errors: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("Unexpected embedding: %v", vec)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestOllamaEmbedder_ExhaustsRetries(t *testing.T) {
	silenceRetrySleep(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	e, err := NewOllamaEmbedder(model.EmbeddingConfig{
		BaseURL:    server.URL,
		Dimension:  3,
		MaxRetries: 2,
	})
	if err != nil {
		t.Fatalf("NewOllamaEmbedder failed: %v", err)
	}

	_, err = e.Embed(context.Background(), "some question")
	var embErr *model.EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("Expected EmbeddingError, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 attempts (1 initial + 2 retries), got %d", got)
	}
}
