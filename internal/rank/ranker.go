package rank

import (
	"sort"
	"strings"
	"unicode"

	"github.com/bookowl/bookowl/internal/model"
)

// Ranker merges semantic and lexical evidence into a single deterministic
// ranking of candidate chunks.
type Ranker struct {
	semanticWeight float64
	keywordWeight  float64
	topK           int
}

// NewRanker creates a ranker with pre-validated weights (they sum to 1.0,
// checked by Config.Validate at startup).
func NewRanker(cfg model.RetrievalConfig) *Ranker {
	return &Ranker{
		semanticWeight: cfg.SemanticWeight,
		keywordWeight:  cfg.KeywordWeight,
		topK:           cfg.TopK,
	}
}

// Rank scores every candidate against the question and returns the topK by
// combined score descending, ties by semantic score descending, then by
// ascending sequence number. Identical inputs always yield the same order.
func (r *Ranker) Rank(question string, candidates []model.SearchResult) []model.ScoredChunk {
	questionTokens := Tokenize(question)

	scored := make([]model.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		kw := keywordOverlap(questionTokens, c.Chunk.Text)
		scored = append(scored, model.ScoredChunk{
			Chunk:         c.Chunk,
			SemanticScore: c.SemanticScore,
			KeywordScore:  kw,
			CombinedScore: r.Combine(c.SemanticScore, kw),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].CombinedScore != scored[j].CombinedScore {
			return scored[i].CombinedScore > scored[j].CombinedScore
		}
		if scored[i].SemanticScore != scored[j].SemanticScore {
			return scored[i].SemanticScore > scored[j].SemanticScore
		}
		return scored[i].Chunk.SequenceNumber < scored[j].Chunk.SequenceNumber
	})

	if len(scored) > r.topK {
		scored = scored[:r.topK]
	}
	return scored
}

// Combine applies the configured weights and clamps to [0,1]. Cosine
// similarity can be negative, so the clamp matters.
func (r *Ranker) Combine(semantic, keyword float64) float64 {
	combined := r.semanticWeight*semantic + r.keywordWeight*keyword
	if combined < 0 {
		return 0
	}
	if combined > 1 {
		return 1
	}
	return combined
}

// Tokenize lowercases text and splits it into a word set, stripping
// punctuation. Order and multiplicity are discarded.
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		tokens[word] = struct{}{}
	}
	return tokens
}

// keywordOverlap returns |question ∩ chunk| / |question|. A chunk
// containing every query term scores 1.0; no query terms means 0.
func keywordOverlap(questionTokens map[string]struct{}, chunkText string) float64 {
	if len(questionTokens) == 0 {
		return 0
	}
	chunkTokens := Tokenize(chunkText)
	matched := 0
	for token := range questionTokens {
		if _, ok := chunkTokens[token]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(questionTokens))
}
