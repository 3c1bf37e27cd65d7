package model

import (
	"errors"
	"fmt"
)

// Validation sentinels - surfaced before any pipeline step runs
var (
	ErrEmptyQuestion  = errors.New("question must not be empty")
	ErrEmptyBookTitle = errors.New("book title must not be empty")
)

// EmbeddingError indicates the embedding service failed (timeout, rate
// limit, malformed input). Retried with backoff before escalating.
type EmbeddingError struct {
	Provider string
	Err      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding (%s): %v", e.Provider, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// RetrievalError indicates the chunk repository was unavailable.
// Distinct from an empty result, which is a valid outcome.
type RetrievalError struct {
	Book string
	Err  error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval (book %q): %v", e.Book, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// SynthesisError indicates the generative model call failed. Absorbed by
// the circuit breaker; never reaches the caller.
type SynthesisError struct {
	Provider string
	Err      error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis (%s): %v", e.Provider, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// FilterConfigError indicates an invalid content filter rule set.
// Fatal at process initialization, never raised at request time.
type FilterConfigError struct {
	Rule string
	Err  error
}

func (e *FilterConfigError) Error() string {
	return fmt.Sprintf("filter rule %q: %v", e.Rule, e.Err)
}

func (e *FilterConfigError) Unwrap() error { return e.Err }

// DimensionError indicates an embedding whose dimension does not match
// the deployment-wide constant. Never silently coerced.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
}
