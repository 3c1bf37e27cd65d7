package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bookowl/bookowl/internal/embed"
	"github.com/bookowl/bookowl/internal/filter"
	"github.com/bookowl/bookowl/internal/model"
	"github.com/bookowl/bookowl/internal/prompt"
	"github.com/bookowl/bookowl/internal/rank"
	"github.com/bookowl/bookowl/internal/store"
	"github.com/bookowl/bookowl/internal/synth"
	"github.com/bookowl/bookowl/internal/verify"
)

// retrySleepFunc is the sleep function used between retries (injectable for tests)
var retrySleepFunc = time.Sleep

// Pipeline orchestrates one question through embed → retrieve → rank →
// assemble → synthesize → filter → verify. Pipelines for distinct
// requests run concurrently; the breaker and filter counters are the only
// shared mutable state.
type Pipeline struct {
	embedder    embed.Embedder
	repo        store.Repository
	ranker      *rank.Ranker
	filter      *filter.Filter
	assembler   *prompt.Assembler
	synthesizer *synth.Synthesizer
	verifier    *verify.Verifier
	config      *model.Config
}

// New wires a pipeline from pre-built components. The breaker inside the
// synthesizer must be the process-wide instance.
func New(cfg *model.Config, embedder embed.Embedder, repo store.Repository, contentFilter *filter.Filter, synthesizer *synth.Synthesizer) *Pipeline {
	return &Pipeline{
		embedder:    embedder,
		repo:        repo,
		ranker:      rank.NewRanker(cfg.Retrieval),
		filter:      contentFilter,
		assembler:   prompt.NewAssembler(cfg.Prompt),
		synthesizer: synthesizer,
		verifier:    verify.NewVerifier(cfg.Verify),
		config:      cfg,
	}
}

// Ask answers one question about one book. Validation failures surface
// immediately; infrastructure failures surface after bounded retries;
// model failures never surface - they degrade into a fallback answer.
func (p *Pipeline) Ask(ctx context.Context, question, bookTitle string) (*model.Answer, error) {
	state := model.StateReceived
	p.logState(state)

	if strings.TrimSpace(question) == "" {
		return nil, model.ErrEmptyQuestion
	}
	if strings.TrimSpace(bookTitle) == "" {
		return nil, model.ErrEmptyBookTitle
	}

	// Embed the question
	state = model.StateEmbedding
	p.logState(state)
	embedding, err := p.embedWithRetry(ctx, question)
	if err != nil {
		p.logState(model.StateFailed)
		return nil, err
	}

	// Retrieve candidates
	state = model.StateRetrieving
	p.logState(state)
	candidates, err := p.retrieveWithRetry(ctx, bookTitle, embedding)
	if err != nil {
		p.logState(model.StateFailed)
		return nil, err
	}

	// Rank
	state = model.StateRanking
	p.logState(state)
	ranked := p.ranker.Rank(question, candidates)

	// Assemble; zero context short-circuits without a model call
	built, ok := p.assembler.Build(question, ranked)
	if !ok {
		p.logState(model.StateNoContext)
		p.logState(model.StateResponded)
		return prompt.InsufficientInformation(), nil
	}
	state = model.StateAssembling
	p.logState(state)

	// Keep only the chunks that made it into the prompt for verification
	packed := packedChunks(ranked, built.Citations)

	// Synthesize
	state = model.StateSynthesizing
	p.logState(state)
	result, err := p.synthesizer.Synthesize(ctx, built.Text)
	if err != nil {
		// Only caller cancellation reaches here
		return nil, err
	}

	if result.Fallback {
		p.logState(model.StateResponded)
		return &model.Answer{
			Text:              result.Text,
			Confidence:        model.ConfidenceLow,
			VerificationScore: 0,
			Citations:         []model.Citation{},
			Fallback:          true,
		}, nil
	}

	// Filter the generated answer
	state = model.StateFilteringOutput
	p.logState(state)
	filtered, categories, matches := p.filter.Apply(result.Text)
	if matches > 0 && p.config.Output.Verbose {
		fmt.Fprintf(os.Stderr, "content filter replaced %d terms (categories: %s)\n", matches, strings.Join(categories, ", "))
	}

	// Quality floor: a near-empty generation is treated as no answer
	if len(strings.TrimSpace(filtered)) < 10 {
		filtered = prompt.InsufficientAnswer
	}

	// Verify grounding against the chunks actually supplied
	state = model.StateVerifying
	p.logState(state)
	score, confidence := p.verifier.Verify(filtered, packed)
	text := p.verifier.Annotate(filtered, confidence)

	p.logState(model.StateResponded)

	return &model.Answer{
		Text:              text,
		Confidence:        confidence,
		VerificationScore: score,
		Citations:         built.Citations,
	}, nil
}

// embedWithRetry retries transient embedding failures with backoff before
// escalating an EmbeddingError as a fatal pipeline failure.
func (p *Pipeline) embedWithRetry(ctx context.Context, question string) ([]float64, error) {
	var lastErr error
	for attempt := 0; attempt <= p.config.Retrieval.MaxRetries; attempt++ {
		if attempt > 0 {
			retrySleepFunc(backoff(attempt))
		}
		embedding, err := p.embedder.Embed(ctx, question)
		if err == nil {
			return embedding, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	var embErr *model.EmbeddingError
	if errors.As(lastErr, &embErr) {
		return nil, lastErr
	}
	return nil, &model.EmbeddingError{Provider: p.embedder.Name(), Err: lastErr}
}

// retrieveWithRetry retries repository failures. An empty result is
// returned as-is: no context found is a designed response path, not an
// error.
func (p *Pipeline) retrieveWithRetry(ctx context.Context, bookTitle string, embedding []float64) ([]model.SearchResult, error) {
	rctx := ctx
	if p.config.Retrieval.Timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, p.config.Retrieval.Timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; attempt <= p.config.Retrieval.MaxRetries; attempt++ {
		if attempt > 0 {
			retrySleepFunc(backoff(attempt))
		}
		candidates, err := p.repo.QuerySimilar(rctx, bookTitle, embedding, p.config.Retrieval.CandidateK)
		if err == nil {
			return candidates, nil
		}
		lastErr = err
		if rctx.Err() != nil {
			break
		}
	}
	var retErr *model.RetrievalError
	if errors.As(lastErr, &retErr) {
		return nil, lastErr
	}
	return nil, &model.RetrievalError{Book: bookTitle, Err: lastErr}
}

func backoff(attempt int) time.Duration {
	return time.Duration(attempt) * 500 * time.Millisecond
}

// packedChunks filters the ranked list down to the chunks the assembler
// actually packed, preserving ranking order.
func packedChunks(ranked []model.ScoredChunk, citations []model.Citation) []model.ScoredChunk {
	cited := make(map[model.Citation]bool, len(citations))
	for _, c := range citations {
		cited[c] = true
	}

	var out []model.ScoredChunk
	for _, sc := range ranked {
		key := model.Citation{BookTitle: sc.Chunk.BookTitle, SequenceNumber: sc.Chunk.SequenceNumber}
		if cited[key] {
			out = append(out, sc)
		}
	}
	return out
}

func (p *Pipeline) logState(state model.PipelineState) {
	if p.config.Output.Verbose {
		fmt.Fprintf(os.Stderr, "pipeline: %s\n", state)
	}
}
