package ingest

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/bookowl/bookowl/internal/embed"
	"github.com/bookowl/bookowl/internal/filter"
	"github.com/bookowl/bookowl/internal/model"
	"github.com/bookowl/bookowl/internal/store"
	"golang.org/x/time/rate"
)

// Ingestor chunks a book, embeds the chunks with bounded concurrency
// under a rate limit, and stores them with sequential numbering.
type Ingestor struct {
	chunker  *Chunker
	embedder embed.Embedder
	filter   *filter.Filter
	repo     store.Repository
	limiter  *rate.Limiter
	workers  int
	verbose  bool
}

// Summary reports what one ingestion run did
type Summary struct {
	BookTitle     string
	ChunkCount    int
	FilteredTerms int
}

// NewIngestor creates an ingestor from pre-built components
func NewIngestor(cfg *model.Config, embedder embed.Embedder, contentFilter *filter.Filter, repo store.Repository) *Ingestor {
	workers := cfg.Ingest.EmbedWorkers
	if workers <= 0 {
		workers = 4
	}
	rps := cfg.Embedding.RatePerSec
	if rps <= 0 {
		rps = 5
	}

	return &Ingestor{
		chunker:  NewChunker(cfg.Ingest),
		embedder: embedder,
		filter:   contentFilter,
		repo:     repo,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		workers:  workers,
		verbose:  cfg.Output.Verbose,
	}
}

// IngestFile loads, chunks, embeds, and stores one book file
func (ing *Ingestor) IngestFile(ctx context.Context, path, bookTitle string) (*Summary, error) {
	text, err := LoadBook(path)
	if err != nil {
		return nil, err
	}
	return ing.IngestText(ctx, text, bookTitle)
}

// IngestText chunks and indexes raw book text under the given title.
// Chunks are content-filtered before indexing so disallowed terms never
// enter the repository.
func (ing *Ingestor) IngestText(ctx context.Context, text, bookTitle string) (*Summary, error) {
	if bookTitle == "" {
		return nil, model.ErrEmptyBookTitle
	}

	raw := ing.chunker.Chunk(text)
	if len(raw) == 0 {
		return nil, fmt.Errorf("book %q produced no chunks", bookTitle)
	}

	// Sequence numbers continue after any previously indexed chunks so
	// re-ingestion appends rather than colliding
	base, err := ing.repo.Count(ctx, bookTitle)
	if err != nil {
		return nil, &model.RetrievalError{Book: bookTitle, Err: err}
	}

	filteredTerms := 0
	texts := make([]string, len(raw))
	for i, chunkText := range raw {
		filtered, _, matches := ing.filter.Apply(chunkText)
		filteredTerms += matches
		texts[i] = filtered
	}

	embeddings := make([][]float64, len(texts))
	errs := make([]error, len(texts))

	// Bounded concurrency: the semaphore caps in-flight embeds while the
	// shared limiter paces calls to the embedding service
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, ing.workers)

	for i, chunkText := range texts {
		wg.Add(1)
		go func(idx int, t string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			if err := ing.limiter.Wait(ctx); err != nil {
				errs[idx] = err
				return
			}
			embeddings[idx], errs[idx] = ing.embedder.Embed(ctx, t)
		}(i, chunkText)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d: %w", base+i, err)
		}
	}

	// Store sequentially so sequence numbers stay ordered on disk
	for i, chunkText := range texts {
		chunk := model.Chunk{
			BookTitle:      bookTitle,
			SequenceNumber: base + i,
			Text:           chunkText,
			Embedding:      embeddings[i],
			Metadata:       map[string]string{"book_title": bookTitle},
		}
		if err := ing.repo.Put(ctx, chunk); err != nil {
			return nil, fmt.Errorf("store chunk %d: %w", base+i, err)
		}
		if ing.verbose && (i+1)%50 == 0 {
			fmt.Fprintf(os.Stderr, "indexed %d/%d chunks\n", i+1, len(texts))
		}
	}

	return &Summary{
		BookTitle:     bookTitle,
		ChunkCount:    len(texts),
		FilteredTerms: filteredTerms,
	}, nil
}
