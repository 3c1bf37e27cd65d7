package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bookowl/bookowl/internal/filter"
	"github.com/bookowl/bookowl/internal/llm"
	"github.com/bookowl/bookowl/internal/model"
	"github.com/bookowl/bookowl/internal/prompt"
	"github.com/bookowl/bookowl/internal/store"
	"github.com/bookowl/bookowl/internal/synth"
	"github.com/bookowl/bookowl/internal/verify"
)

// fakeEmbedder returns a fixed vector, optionally failing the first N calls
type fakeEmbedder struct {
	vector    []float64
	failTimes int
	calls     int
}

func (e *fakeEmbedder) Name() string   { return "fake" }
func (e *fakeEmbedder) Dimension() int { return len(e.vector) }

func (e *fakeEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	e.calls++
	if e.calls <= e.failTimes {
		return nil, &model.EmbeddingError{Provider: "fake", Err: errors.New("transient failure")}
	}
	return e.vector, nil
}

// fakeProvider plays back a canned answer and counts calls
type fakeProvider struct {
	calls int
	fail  bool
	text  string
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Generate(_ context.Context, _ llm.GenerateRequest) (*llm.GenerateResponse, error) {
	p.calls++
	if p.fail {
		return nil, &model.SynthesisError{Provider: "fake", Err: errors.New("backend down")}
	}
	return &llm.GenerateResponse{Text: p.text, Model: "fake-model", TokensUsed: 10}, nil
}

func (p *fakeProvider) IsAvailable(_ context.Context) bool { return true }

// failingRepo always errors, for retry tests
type failingRepo struct {
	calls int
}

func (r *failingRepo) Put(_ context.Context, _ model.Chunk) error { return nil }

func (r *failingRepo) QuerySimilar(_ context.Context, _ string, _ []float64, _ int) ([]model.SearchResult, error) {
	r.calls++
	return nil, errors.New("store unavailable")
}

func (r *failingRepo) Books(_ context.Context) ([]string, error) { return nil, nil }

func (r *failingRepo) Count(_ context.Context, _ string) (int, error) { return 0, nil }

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Embedding.Dimension = 3
	cfg.Retrieval.MaxRetries = 2
	cfg.LLM.RatePerSec = 1000
	return cfg
}

func buildTestPipeline(t *testing.T, cfg *model.Config, embedder *fakeEmbedder, repo store.Repository, provider llm.Provider) *Pipeline {
	t.Helper()

	contentFilter, err := filter.New(filter.DefaultRules())
	if err != nil {
		t.Fatalf("filter.New failed: %v", err)
	}
	breaker := synth.NewBreaker(cfg.Breaker)
	synthesizer := synth.NewSynthesizer(provider, breaker, cfg.LLM, false)

	return New(cfg, embedder, repo, contentFilter, synthesizer)
}

func seedRepo(t *testing.T, repo store.Repository, book string, texts ...string) {
	t.Helper()
	for i, text := range texts {
		err := repo.Put(context.Background(), model.Chunk{
			BookTitle:      book,
			SequenceNumber: i,
			Text:           text,
			Embedding:      []float64{1, 0, 0},
		})
		if err != nil {
			t.Fatalf("seed Put failed: %v", err)
		}
	}
}

func TestAsk_HappyPath(t *testing.T) {
	cfg := testConfig()
	repo := store.NewMemoryStore(3)
	seedRepo(t, repo, "Ramayana",
		"Hanuman leaped across the ocean to Lanka.",
		"Rama was exiled to the forest for fourteen years.",
	)
	embedder := &fakeEmbedder{vector: []float64{1, 0, 0}}
	provider := &fakeProvider{text: "Hanuman leaped across the ocean to reach Lanka."}

	p := buildTestPipeline(t, cfg, embedder, repo, provider)

	answer, err := p.Ask(context.Background(), "How did Hanuman reach Lanka?", "Ramayana")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer.Fallback {
		t.Error("Expected a real answer, got fallback")
	}
	if answer.Text != provider.text {
		t.Errorf("Unexpected answer text: %q", answer.Text)
	}
	if answer.Confidence != model.ConfidenceHigh {
		t.Errorf("Expected high confidence, got %s (score %f)", answer.Confidence, answer.VerificationScore)
	}
	if len(answer.Citations) == 0 {
		t.Error("Expected citations")
	}
	if answer.Citations[0].BookTitle != "Ramayana" {
		t.Errorf("Unexpected citation: %+v", answer.Citations[0])
	}
}

func TestAsk_ValidationErrors(t *testing.T) {
	cfg := testConfig()
	embedder := &fakeEmbedder{vector: []float64{1, 0, 0}}
	provider := &fakeProvider{text: "unused"}
	p := buildTestPipeline(t, cfg, embedder, store.NewMemoryStore(3), provider)
	ctx := context.Background()

	if _, err := p.Ask(ctx, "   ", "Ramayana"); !errors.Is(err, model.ErrEmptyQuestion) {
		t.Errorf("Expected ErrEmptyQuestion, got %v", err)
	}
	if _, err := p.Ask(ctx, "Who is Rama?", ""); !errors.Is(err, model.ErrEmptyBookTitle) {
		t.Errorf("Expected ErrEmptyBookTitle, got %v", err)
	}
	if embedder.calls != 0 {
		t.Errorf("Validation failures must not reach the embedder, got %d calls", embedder.calls)
	}
}

func TestAsk_UnknownBookShortCircuits(t *testing.T) {
	cfg := testConfig()
	embedder := &fakeEmbedder{vector: []float64{1, 0, 0}}
	provider := &fakeProvider{text: "unused"}
	p := buildTestPipeline(t, cfg, embedder, store.NewMemoryStore(3), provider)

	answer, err := p.Ask(context.Background(), "Who is Rama?", "Unknown Book")
	if err != nil {
		t.Fatalf("Empty retrieval must not be an error, got: %v", err)
	}
	if answer.Text != prompt.InsufficientAnswer {
		t.Errorf("Expected the insufficient-information answer, got %q", answer.Text)
	}
	if answer.Confidence != model.ConfidenceLow {
		t.Errorf("Expected low confidence, got %s", answer.Confidence)
	}
	if len(answer.Citations) != 0 {
		t.Errorf("Expected no citations, got %+v", answer.Citations)
	}
	if provider.calls != 0 {
		t.Errorf("No-context path must never call the model, got %d calls", provider.calls)
	}
}

func TestAsk_EmbeddingRetriesThenSucceeds(t *testing.T) {
	restore := retrySleepFunc
	retrySleepFunc = func(time.Duration) {}
	defer func() { retrySleepFunc = restore }()

	cfg := testConfig()
	repo := store.NewMemoryStore(3)
	seedRepo(t, repo, "Ramayana", "Hanuman leaped across the ocean to Lanka.")
	embedder := &fakeEmbedder{vector: []float64{1, 0, 0}, failTimes: 2}
	provider := &fakeProvider{text: "Hanuman leaped across the ocean."}

	p := buildTestPipeline(t, cfg, embedder, repo, provider)

	answer, err := p.Ask(context.Background(), "How did Hanuman travel?", "Ramayana")
	if err != nil {
		t.Fatalf("Ask failed after transient errors: %v", err)
	}
	if embedder.calls != 3 {
		t.Errorf("Expected 3 embed attempts, got %d", embedder.calls)
	}
	if answer.Fallback {
		t.Error("Expected a real answer")
	}
}

func TestAsk_EmbeddingExhaustsRetries(t *testing.T) {
	restore := retrySleepFunc
	retrySleepFunc = func(time.Duration) {}
	defer func() { retrySleepFunc = restore }()

	cfg := testConfig()
	embedder := &fakeEmbedder{vector: []float64{1, 0, 0}, failTimes: 10}
	provider := &fakeProvider{text: "unused"}
	p := buildTestPipeline(t, cfg, embedder, store.NewMemoryStore(3), provider)

	_, err := p.Ask(context.Background(), "Who is Rama?", "Ramayana")
	var embErr *model.EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("Expected EmbeddingError, got %v", err)
	}
	// MaxRetries=2 means one initial attempt plus two retries
	if embedder.calls != 3 {
		t.Errorf("Expected 3 embed attempts, got %d", embedder.calls)
	}
	if provider.calls != 0 {
		t.Error("Failed embedding must never reach the model")
	}
}

func TestAsk_RetrievalFailureSurfacesAfterRetries(t *testing.T) {
	restore := retrySleepFunc
	retrySleepFunc = func(time.Duration) {}
	defer func() { retrySleepFunc = restore }()

	cfg := testConfig()
	repo := &failingRepo{}
	embedder := &fakeEmbedder{vector: []float64{1, 0, 0}}
	provider := &fakeProvider{text: "unused"}
	p := buildTestPipeline(t, cfg, embedder, repo, provider)

	_, err := p.Ask(context.Background(), "Who is Rama?", "Ramayana")
	var retErr *model.RetrievalError
	if !errors.As(err, &retErr) {
		t.Fatalf("Expected RetrievalError, got %v", err)
	}
	if repo.calls != 3 {
		t.Errorf("Expected 3 retrieval attempts, got %d", repo.calls)
	}
}

func TestAsk_ModelFailureDegradesToFallback(t *testing.T) {
	cfg := testConfig()
	repo := store.NewMemoryStore(3)
	seedRepo(t, repo, "Ramayana", "Hanuman leaped across the ocean to Lanka.")
	embedder := &fakeEmbedder{vector: []float64{1, 0, 0}}
	provider := &fakeProvider{fail: true}

	p := buildTestPipeline(t, cfg, embedder, repo, provider)

	answer, err := p.Ask(context.Background(), "How did Hanuman travel?", "Ramayana")
	if err != nil {
		t.Fatalf("Model failure must degrade, not error: %v", err)
	}
	if !answer.Fallback {
		t.Error("Expected fallback answer")
	}
	if answer.Text != synth.FallbackAnswer {
		t.Errorf("Unexpected fallback text: %q", answer.Text)
	}
	if answer.Confidence != model.ConfidenceLow || answer.VerificationScore != 0 {
		t.Errorf("Fallback must be low confidence with zero score, got %s/%f",
			answer.Confidence, answer.VerificationScore)
	}
	if len(answer.Citations) != 0 {
		t.Errorf("Fallback must carry no citations, got %+v", answer.Citations)
	}
}

func TestAsk_FiltersGeneratedAnswer(t *testing.T) {
	cfg := testConfig()
	repo := store.NewMemoryStore(3)
	seedRepo(t, repo, "Book", "The warriors fought and the city burned through the night.")
	embedder := &fakeEmbedder{vector: []float64{1, 0, 0}}
	provider := &fakeProvider{text: "The warriors fought naked through the burning city night."}

	p := buildTestPipeline(t, cfg, embedder, repo, provider)

	answer, err := p.Ask(context.Background(), "What happened to the city?", "Book")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if strings.Contains(answer.Text, "naked") {
		t.Errorf("Filtered term leaked into the answer: %q", answer.Text)
	}
	if !strings.Contains(answer.Text, "unclothed") {
		t.Errorf("Expected replacement in answer: %q", answer.Text)
	}
}

func TestAsk_ShortGenerationBecomesInsufficient(t *testing.T) {
	cfg := testConfig()
	repo := store.NewMemoryStore(3)
	seedRepo(t, repo, "Book", "Some context text for the question.")
	embedder := &fakeEmbedder{vector: []float64{1, 0, 0}}
	provider := &fakeProvider{text: "Yes."}

	p := buildTestPipeline(t, cfg, embedder, repo, provider)

	answer, err := p.Ask(context.Background(), "Is it so?", "Book")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !strings.HasPrefix(answer.Text, prompt.InsufficientAnswer) {
		t.Errorf("Expected the insufficient-information answer, got %q", answer.Text)
	}
}

func TestAsk_LowConfidenceGetsDisclaimer(t *testing.T) {
	cfg := testConfig()
	repo := store.NewMemoryStore(3)
	seedRepo(t, repo, "Book", "Hanuman leaped across the ocean to Lanka.")
	embedder := &fakeEmbedder{vector: []float64{1, 0, 0}}
	// Entirely ungrounded generation
	provider := &fakeProvider{text: "Napoleon invaded Russia during a harsh winter campaign."}

	p := buildTestPipeline(t, cfg, embedder, repo, provider)

	answer, err := p.Ask(context.Background(), "How did Hanuman travel?", "Book")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer.Confidence != model.ConfidenceLow {
		t.Fatalf("Expected low confidence, got %s", answer.Confidence)
	}
	if !strings.HasSuffix(answer.Text, verify.Disclaimer) {
		t.Errorf("Low confidence answer must carry the disclaimer: %q", answer.Text)
	}
}
