package prompt

import (
	"fmt"
	"strings"

	"github.com/bookowl/bookowl/internal/model"
)

// Instruction is the fixed policy block prepended to every prompt
const Instruction = `You are a knowledgeable assistant that answers questions about books based on the provided context.

IMPORTANT INSTRUCTIONS:
1. Answer ONLY using information from the provided context
2. If the answer is not clearly stated in the context, say "I cannot find a clear answer to this question in the provided context"
3. Do not make assumptions or inferences beyond what is explicitly stated
4. Cite sources using their [Source: ...] markers when possible
5. If you find conflicting information in the context, mention this
6. Use respectful, neutral language and avoid biased or stereotyping phrasing
7. Maintain a scholarly tone throughout your response`

// InsufficientAnswer is returned whenever no usable context exists
const InsufficientAnswer = "I cannot find a clear answer to this question in the provided context."

// Prompt is a bounded instruction+context+question unit ready for the model
type Prompt struct {
	Text      string
	Citations []model.Citation // Chunks actually packed, in ranking order
}

// Assembler builds prompts under a fixed character budget
type Assembler struct {
	maxContextChars int
}

// NewAssembler creates an assembler with the configured context budget
func NewAssembler(cfg model.PromptConfig) *Assembler {
	return &Assembler{maxContextChars: cfg.MaxContextChars}
}

// Build greedily packs ranked chunks in order until the budget would be
// exceeded. Chunks are never truncated: one that does not fit whole is
// skipped. Returns (nil, false) when no chunks are supplied - the caller
// short-circuits with the insufficient-information answer instead of
// paying for a model call.
func (a *Assembler) Build(question string, chunks []model.ScoredChunk) (*Prompt, bool) {
	if len(chunks) == 0 {
		return nil, false
	}

	var context strings.Builder
	var citations []model.Citation
	used := 0

	for _, sc := range chunks {
		marker := fmt.Sprintf("[Source: %s, Chunk %d]", sc.Chunk.BookTitle, sc.Chunk.SequenceNumber)
		entry := marker + "\n" + sc.Chunk.Text

		cost := len(entry)
		if context.Len() > 0 {
			// Separator between packed entries counts against the budget too
			cost += len("\n\n")
		}
		if used+cost > a.maxContextChars {
			continue
		}
		if context.Len() > 0 {
			context.WriteString("\n\n")
		}
		context.WriteString(entry)
		used += cost
		citations = append(citations, model.Citation{
			BookTitle:      sc.Chunk.BookTitle,
			SequenceNumber: sc.Chunk.SequenceNumber,
		})
	}

	if len(citations) == 0 {
		// Every chunk was larger than the budget
		return nil, false
	}

	text := fmt.Sprintf("%s\n\nContext:\n%s\n\nQuestion: %s\n\nAnswer:", Instruction, context.String(), question)
	return &Prompt{Text: text, Citations: citations}, true
}

// InsufficientInformation is the fixed answer for the no-context path
func InsufficientInformation() *model.Answer {
	return &model.Answer{
		Text:              InsufficientAnswer,
		Confidence:        model.ConfidenceLow,
		VerificationScore: 0,
		Citations:         []model.Citation{},
	}
}
