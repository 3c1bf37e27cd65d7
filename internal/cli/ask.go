package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/bookowl/bookowl/internal/llm"
	"github.com/bookowl/bookowl/internal/model"
	"github.com/bookowl/bookowl/internal/pipeline"
	"github.com/bookowl/bookowl/internal/synth"
	"github.com/spf13/cobra"
)

var (
	askBook    string
	askTimeout time.Duration
	askJSON    bool
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question about an indexed book",
	Long: `Ask retrieves the most relevant indexed passages of a book using
hybrid semantic + keyword search, generates an answer grounded in them,
and reports a verification-based confidence label with citations.

Example:
  bookowl ask "Who is Rama?" --book "Ramayana"
  bookowl ask "What happens in the final chapter?" --book "Ramayana" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVar(&askBook, "book", "", "book title to query (required)")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "overall request timeout")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full answer as JSON")
	_ = askCmd.MarkFlagRequired("book")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	answer, err := p.Ask(ctx, question, askBook)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("encode answer: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(answer.Text)
	fmt.Println()
	fmt.Printf("Confidence: %s (verification %.2f)\n", answer.Confidence, answer.VerificationScore)
	if len(answer.Citations) > 0 {
		fmt.Print("Citations:")
		for _, c := range answer.Citations {
			fmt.Printf(" [%s #%d]", c.BookTitle, c.SequenceNumber)
		}
		fmt.Println()
	}
	return nil
}

// buildPipeline assembles the full question pipeline from configuration.
// The circuit breaker created here is the process-wide instance shared by
// every request this process serves.
func buildPipeline(cfg *model.Config) (*pipeline.Pipeline, error) {
	repo, err := openRepository(cfg)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	contentFilter, err := newFilter(cfg)
	if err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		return nil, err
	}

	breaker := synth.NewBreaker(cfg.Breaker)
	synthesizer := synth.NewSynthesizer(provider, breaker, cfg.LLM, cfg.Output.Verbose)

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "pipeline ready: embed=%s llm=%s store=%s\n",
			embedder.Name(), provider.Name(), cfg.Store.Path)
	}

	return pipeline.New(cfg, embedder, repo, contentFilter, synthesizer), nil
}
