package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"embedding", &EmbeddingError{Provider: "openai", Err: cause}, "embedding (openai)"},
		{"retrieval", &RetrievalError{Book: "Iliad", Err: cause}, `retrieval (book "Iliad")`},
		{"synthesis", &SynthesisError{Provider: "ollama", Err: cause}, "synthesis (ollama)"},
		{"filter config", &FilterConfigError{Rule: "bad", Err: cause}, `filter rule "bad"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.err.Error(), tt.want) {
				t.Errorf("Expected %q in %q", tt.want, tt.err.Error())
			}
			if !errors.Is(tt.err, cause) {
				t.Error("Expected errors.Is to find the wrapped cause")
			}
		})
	}
}

func TestDimensionError(t *testing.T) {
	err := &DimensionError{Want: 1536, Got: 768}
	if !strings.Contains(err.Error(), "1536") || !strings.Contains(err.Error(), "768") {
		t.Errorf("Expected both dimensions in message: %v", err)
	}

	wrapped := fmt.Errorf("put chunk: %w", err)
	var dimErr *DimensionError
	if !errors.As(wrapped, &dimErr) {
		t.Error("Expected errors.As to unwrap DimensionError")
	}
}
