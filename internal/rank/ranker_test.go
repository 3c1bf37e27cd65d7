package rank

import (
	"math"
	"testing"

	"github.com/bookowl/bookowl/internal/model"
)

func testRanker(topK int) *Ranker {
	return NewRanker(model.RetrievalConfig{
		SemanticWeight: 0.7,
		KeywordWeight:  0.3,
		TopK:           topK,
	})
}

func candidate(seq int, text string, semantic float64) model.SearchResult {
	return model.SearchResult{
		Chunk: model.Chunk{
			BookTitle:      "Book",
			SequenceNumber: seq,
			Text:           text,
		},
		SemanticScore: semantic,
	}
}

func TestCombine_Weights(t *testing.T) {
	r := testRanker(5)

	// 0.7*0.9 + 0.3*1.0 = 0.93
	got := r.Combine(0.9, 1.0)
	if math.Abs(got-0.93) > 1e-9 {
		t.Errorf("Expected 0.93, got %f", got)
	}

	// 0.7*0.3 + 0.3*0.0 = 0.21
	got = r.Combine(0.3, 0.0)
	if math.Abs(got-0.21) > 1e-9 {
		t.Errorf("Expected 0.21, got %f", got)
	}
}

func TestCombine_Clamp(t *testing.T) {
	r := testRanker(5)

	if got := r.Combine(-0.8, 0); got != 0 {
		t.Errorf("Negative combined score must clamp to 0, got %f", got)
	}
	if got := r.Combine(1.0, 1.0); got != 1.0 {
		t.Errorf("Combined score must not exceed 1, got %f", got)
	}
}

func TestRank_KeywordOverridesWeakSemantic(t *testing.T) {
	r := testRanker(2)
	question := "Who trained the dragon rider"

	// High keyword overlap with modest semantic score outranks the reverse
	candidates := []model.SearchResult{
		candidate(0, "completely unrelated passage about weather", 0.82),
		candidate(1, "the dragon rider was trained by who knows whom", 0.60),
	}

	ranked := r.Rank(question, candidates)
	if len(ranked) != 2 {
		t.Fatalf("Expected 2 ranked chunks, got %d", len(ranked))
	}
	if ranked[0].Chunk.SequenceNumber != 1 {
		t.Errorf("Expected keyword-rich chunk first, got sequence %d (combined %f vs %f)",
			ranked[0].Chunk.SequenceNumber, ranked[0].CombinedScore, ranked[1].CombinedScore)
	}
}

func TestRank_TopKTruncates(t *testing.T) {
	r := testRanker(2)

	candidates := []model.SearchResult{
		candidate(0, "a", 0.9),
		candidate(1, "b", 0.8),
		candidate(2, "c", 0.7),
	}

	ranked := r.Rank("question", candidates)
	if len(ranked) != 2 {
		t.Errorf("Expected topK=2 results, got %d", len(ranked))
	}
}

func TestRank_Deterministic(t *testing.T) {
	r := testRanker(3)
	question := "the story"

	// All identical scores, so ordering falls through to sequence number
	candidates := []model.SearchResult{
		candidate(5, "same text", 0.5),
		candidate(1, "same text", 0.5),
		candidate(3, "same text", 0.5),
	}

	for i := 0; i < 10; i++ {
		ranked := r.Rank(question, candidates)
		for pos, want := range []int{1, 3, 5} {
			if ranked[pos].Chunk.SequenceNumber != want {
				t.Fatalf("Run %d position %d: expected sequence %d, got %d",
					i, pos, want, ranked[pos].Chunk.SequenceNumber)
			}
		}
	}
}

func TestRank_EmptyCandidates(t *testing.T) {
	ranked := testRanker(5).Rank("anything", nil)
	if len(ranked) != 0 {
		t.Errorf("Expected empty ranking, got %d", len(ranked))
	}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("Who, exactly, trained WHO?")
	for _, want := range []string{"who", "exactly", "trained"} {
		if _, ok := tokens[want]; !ok {
			t.Errorf("Expected token %q in %v", want, tokens)
		}
	}
	if len(tokens) != 3 {
		t.Errorf("Expected 3 distinct tokens, got %d: %v", len(tokens), tokens)
	}
}

func TestKeywordOverlap(t *testing.T) {
	question := Tokenize("where does the hobbit live")

	if got := keywordOverlap(question, "the hobbit does live where the hill is"); got != 1.0 {
		t.Errorf("Full overlap should be 1.0, got %f", got)
	}
	if got := keywordOverlap(question, "nothing in common here"); got != 0 {
		t.Errorf("No overlap should be 0, got %f", got)
	}
	if got := keywordOverlap(Tokenize(""), "some text"); got != 0 {
		t.Errorf("Empty question should be 0, got %f", got)
	}
}
