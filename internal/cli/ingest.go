package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/bookowl/bookowl/internal/ingest"
	"github.com/spf13/cobra"
)

var (
	ingestBook    string
	ingestTimeout time.Duration
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Index a book for question answering",
	Long: `Ingest splits a book into sentence-based chunks, embeds each chunk,
and stores them in the local index. Supported formats: .txt and .html.

Ingested text passes through the content filter, so disallowed terms
never enter the index. Re-ingesting a book appends new chunks.

Example:
  bookowl ingest ramayana.txt --book "Ramayana"`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestBook, "book", "", "book title to index under (required)")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 30*time.Minute, "overall ingestion timeout")
	_ = ingestCmd.MarkFlagRequired("book")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	contentFilter, err := newFilter(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	ingestor := ingest.NewIngestor(cfg, embedder, contentFilter, repo)
	summary, err := ingestor.IngestFile(ctx, path, ingestBook)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Printf("Indexed %d chunks of %q\n", summary.ChunkCount, summary.BookTitle)
	if summary.FilteredTerms > 0 {
		fmt.Printf("Content filter neutralized %d terms during ingestion\n", summary.FilteredTerms)
	}
	return nil
}
