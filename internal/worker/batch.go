package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bookowl/bookowl/internal/model"
)

// Asker answers one question about one book
type Asker interface {
	Ask(ctx context.Context, question, bookTitle string) (*model.Answer, error)
}

// QuestionJob answers a single question from a batch
type QuestionJob struct {
	Index     int
	Question  string
	BookTitle string
	Asker     Asker
}

// Execute runs the question through the pipeline
func (j *QuestionJob) Execute(ctx context.Context) Result {
	answer, err := j.Asker.Ask(ctx, j.Question, j.BookTitle)
	return &QuestionResult{
		Index:    j.Index,
		Question: j.Question,
		Answer:   answer,
		Error:    err,
	}
}

// QuestionResult is the outcome of one batch question
type QuestionResult struct {
	Index    int
	Question string
	Answer   *model.Answer
	Error    error
}

// GetError returns the error from the result
func (r *QuestionResult) GetError() error {
	return r.Error
}

// BatchProcessor answers many questions about one book concurrently.
// Each question gets its own pipeline run; the circuit breaker is shared
// across all of them.
type BatchProcessor struct {
	asker       Asker
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(asker Asker, concurrency int) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &BatchProcessor{
		asker:       asker,
		concurrency: concurrency,
	}
}

// Process answers every question and returns results in input order
func (b *BatchProcessor) Process(ctx context.Context, bookTitle string, questions []string) []*QuestionResult {
	if len(questions) == 0 {
		return []*QuestionResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, q := range questions {
		pool.Submit(&QuestionJob{
			Index:     i,
			Question:  q,
			BookTitle: bookTitle,
			Asker:     b.asker,
		})
	}

	results := pool.Wait()

	ordered := make([]*QuestionResult, len(questions))
	for _, r := range results {
		qr, ok := r.(*QuestionResult)
		if !ok {
			continue
		}
		ordered[qr.Index] = qr
	}
	for i, qr := range ordered {
		if qr == nil {
			ordered[i] = &QuestionResult{
				Index:    i,
				Question: questions[i],
				Error:    fmt.Errorf("question was not processed"),
			}
		}
	}
	return ordered
}

// ReadQuestions loads a batch file: one question per line, blank lines
// and #-comments skipped.
func ReadQuestions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open questions file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var questions []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	return questions, nil
}
