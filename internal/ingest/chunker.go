package ingest

import (
	"regexp"
	"strings"

	"github.com/bookowl/bookowl/internal/model"
)

// Chunker splits book text into sentence-based passages with overlap so
// that context spanning a chunk boundary is not lost to retrieval.
type Chunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

// NewChunker creates a chunker from configuration
func NewChunker(cfg model.IngestConfig) *Chunker {
	perChunk := cfg.SentencesPerChunk
	if perChunk <= 0 {
		perChunk = 5
	}
	overlap := cfg.OverlapSentences
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= perChunk {
		overlap = perChunk - 1
	}

	return &Chunker{
		sentencesPerChunk: perChunk,
		overlapSentences:  overlap,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Chunk splits the text into sequentially numbered passages
func (c *Chunker) Chunk(text string) []string {
	matches := c.splitter.FindAllStringIndex(text, -1)
	var sentences []string
	last := 0
	for _, m := range matches {
		sentences = append(sentences, strings.TrimSpace(text[m[0]:m[1]]))
		last = m[1]
	}
	// Text after the final terminator is kept as a sentence of its own,
	// so an unterminated closing paragraph is not dropped
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
	}
	return chunks
}
