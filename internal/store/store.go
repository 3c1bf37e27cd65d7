package store

import (
	"context"

	"github.com/bookowl/bookowl/internal/model"
)

// Repository stores indexed chunks and retrieves them by similarity.
// Implementations must be safe for concurrent reads.
type Repository interface {
	// Put stores a chunk. The embedding dimension is checked against the
	// repository's fixed dimension; a mismatch is a hard error.
	Put(ctx context.Context, chunk model.Chunk) error

	// QuerySimilar returns up to topK chunks of the given book ordered by
	// descending cosine similarity, ties broken by ascending sequence
	// number. An empty result for an unknown book is a valid outcome,
	// not an error.
	QuerySimilar(ctx context.Context, bookTitle string, embedding []float64, topK int) ([]model.SearchResult, error)

	// Books returns the distinct book titles present in the repository.
	Books(ctx context.Context) ([]string, error)

	// Count returns the number of chunks stored for a book.
	Count(ctx context.Context, bookTitle string) (int, error)
}
