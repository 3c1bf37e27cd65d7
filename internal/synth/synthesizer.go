package synth

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bookowl/bookowl/internal/llm"
	"github.com/bookowl/bookowl/internal/model"
	"golang.org/x/time/rate"
)

// FallbackAnswer is returned when the model is unreachable or the breaker
// is open. The pipeline always produces a response; model unreliability
// degrades confidence instead of failing the request.
const FallbackAnswer = "I am temporarily unable to generate an answer. Please try again shortly."

// Result is the synthesizer output
type Result struct {
	Text       string
	Model      string
	TokensUsed int
	Fallback   bool // True when the fallback text was substituted
}

// Synthesizer obtains generated answers through a rate limiter, the
// shared circuit breaker, and a per-call timeout.
type Synthesizer struct {
	provider llm.Provider
	breaker  *Breaker
	limiter  *rate.Limiter
	timeout  time.Duration
	config   model.LLMConfig
	verbose  bool
}

// NewSynthesizer creates a synthesizer around the given provider and
// breaker. The breaker is shared process-wide; the synthesizer itself
// holds no mutable state.
func NewSynthesizer(provider llm.Provider, breaker *Breaker, cfg model.LLMConfig, verbose bool) *Synthesizer {
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 2
	}

	return &Synthesizer{
		provider: provider,
		breaker:  breaker,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		timeout:  cfg.Timeout,
		config:   cfg,
		verbose:  verbose,
	}
}

// Synthesize generates an answer for the prompt. It never returns an
// error for model failures: an open breaker or a failed call yields the
// fallback text. Only caller cancellation aborts it.
func (s *Synthesizer) Synthesize(ctx context.Context, promptText string) (*Result, error) {
	if !s.breaker.Allow() {
		if s.verbose {
			fmt.Fprintf(os.Stderr, "circuit breaker open, returning fallback\n")
		}
		return &Result{Text: FallbackAnswer, Fallback: true}, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		// Caller cancelled while queued; not a provider failure
		s.breaker.Release()
		return nil, err
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.provider.Generate(callCtx, llm.GenerateRequest{
		Prompt:      promptText,
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		if ctx.Err() != nil {
			// Upstream cancellation, not a model failure; hand back any
			// probe this call was holding
			s.breaker.Release()
			return nil, ctx.Err()
		}
		// Timeouts count as failures for breaker purposes
		s.breaker.OnFailure()
		if s.verbose {
			fmt.Fprintf(os.Stderr, "synthesis failed (%s), returning fallback: %v\n", s.provider.Name(), err)
		}
		return &Result{Text: FallbackAnswer, Fallback: true}, nil
	}

	s.breaker.OnSuccess()
	return &Result{
		Text:       resp.Text,
		Model:      resp.Model,
		TokensUsed: resp.TokensUsed,
	}, nil
}

// BreakerState exposes the shared breaker state for diagnostics
func (s *Synthesizer) BreakerState() BreakerState {
	return s.breaker.State()
}
