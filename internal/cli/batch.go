package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bookowl/bookowl/internal/worker"
	"github.com/spf13/cobra"
)

var (
	batchBook        string
	batchTimeout     time.Duration
	batchConcurrency int
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <questions-file>",
	Short: "Answer a file of questions about one book",
	Long: `Batch reads one question per line (blank lines and #-comments are
skipped) and answers them concurrently against the same book. The
circuit breaker is shared across all questions, so a failing model
service trips once and every remaining question degrades to the
fallback answer instead of hammering the service.

Example:
  bookowl batch questions.txt --book "Ramayana" --concurrency 4`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchBook, "book", "", "book title to query (required)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "overall batch timeout")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "concurrent questions")
	_ = batchCmd.MarkFlagRequired("book")
}

func runBatch(cmd *cobra.Command, args []string) error {
	questions, err := worker.ReadQuestions(args[0])
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("no questions found in %s", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	processor := worker.NewBatchProcessor(p, batchConcurrency)
	results := processor.Process(ctx, batchBook, questions)

	failed := 0
	for _, r := range results {
		fmt.Printf("Q%d: %s\n", r.Index+1, r.Question)
		if r.Error != nil {
			failed++
			fmt.Printf("  ERROR: %v\n\n", r.Error)
			continue
		}
		fmt.Printf("  %s\n", r.Answer.Text)
		fmt.Printf("  [confidence: %s, verification: %.2f]\n\n", r.Answer.Confidence, r.Answer.VerificationScore)
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d/%d questions failed\n", failed, len(results))
	}
	return nil
}
