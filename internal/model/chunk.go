package model

// Chunk represents an indexed passage of book text
type Chunk struct {
	BookTitle      string            `json:"book_title"`         // Grouping key
	SequenceNumber int               `json:"sequence_number"`    // Stable ordering within a book
	Text           string            `json:"text"`               // Passage text
	Embedding      []float64         `json:"embedding"`          // Fixed-dimension vector
	Metadata       map[string]string `json:"metadata,omitempty"` // Always includes book_title
}

// Query is the ephemeral per-request question representation
type Query struct {
	Question  string    `json:"question"`
	BookTitle string    `json:"book_title"`
	Embedding []float64 `json:"-"` // Derived, never persisted
}

// SearchResult is a chunk paired with its semantic similarity to a query
type SearchResult struct {
	Chunk         Chunk   `json:"chunk"`
	SemanticScore float64 `json:"semantic_score"` // Cosine similarity, [-1,1]
}

// ScoredChunk carries the full hybrid scoring breakdown for one candidate
type ScoredChunk struct {
	Chunk         Chunk   `json:"chunk"`
	SemanticScore float64 `json:"semantic_score"` // Cosine similarity, [-1,1]
	KeywordScore  float64 `json:"keyword_score"`  // Lexical overlap, [0,1]
	CombinedScore float64 `json:"combined_score"` // Clamped weighted sum, [0,1]
}
