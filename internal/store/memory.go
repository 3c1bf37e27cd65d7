package store

import (
	"context"
	"sort"
	"sync"

	"github.com/bookowl/bookowl/internal/model"
)

// MemoryStore is an in-memory brute-force repository. Chunks are grouped
// by book title; similarity search is a linear scan, which is fine at the
// scale of individual books.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	books     map[string][]model.Chunk
}

// NewMemoryStore creates a repository with a fixed embedding dimension
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		dimension: dimension,
		books:     make(map[string][]model.Chunk),
	}
}

// Put stores a chunk after checking its embedding dimension
func (s *MemoryStore) Put(_ context.Context, chunk model.Chunk) error {
	if len(chunk.Embedding) != s.dimension {
		return &model.DimensionError{Want: s.dimension, Got: len(chunk.Embedding)}
	}
	if chunk.Metadata == nil {
		chunk.Metadata = map[string]string{}
	}
	chunk.Metadata["book_title"] = chunk.BookTitle

	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[chunk.BookTitle] = append(s.books[chunk.BookTitle], chunk)
	return nil
}

// QuerySimilar scans the book's chunks and returns the topK by cosine
// similarity, ties broken by ascending sequence number.
func (s *MemoryStore) QuerySimilar(_ context.Context, bookTitle string, embedding []float64, topK int) ([]model.SearchResult, error) {
	if len(embedding) != s.dimension {
		return nil, &model.DimensionError{Want: s.dimension, Got: len(embedding)}
	}
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := s.books[bookTitle]
	if len(chunks) == 0 {
		// Unknown book is a valid empty result, not an error
		return []model.SearchResult{}, nil
	}

	results := make([]model.SearchResult, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, model.SearchResult{
			Chunk:         c,
			SemanticScore: CosineSimilarity(embedding, c.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].SemanticScore != results[j].SemanticScore {
			return results[i].SemanticScore > results[j].SemanticScore
		}
		return results[i].Chunk.SequenceNumber < results[j].Chunk.SequenceNumber
	})

	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

// Books returns the distinct book titles, sorted for determinism
func (s *MemoryStore) Books(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	titles := make([]string, 0, len(s.books))
	for title := range s.books {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles, nil
}

// Count returns the number of chunks stored for a book
func (s *MemoryStore) Count(_ context.Context, bookTitle string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books[bookTitle]), nil
}
