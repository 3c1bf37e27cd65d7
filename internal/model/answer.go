package model

// Confidence is the categorical grounding estimate for an answer
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Citation identifies a chunk that was actually included in the prompt
type Citation struct {
	BookTitle      string `json:"book_title"`
	SequenceNumber int    `json:"sequence_number"`
}

// Answer is the caller-facing result of one pipeline run
type Answer struct {
	Text              string     `json:"answer"`
	Confidence        Confidence `json:"confidence"`
	VerificationScore float64    `json:"verification_score"` // Verified claim ratio, [0,1]
	Citations         []Citation `json:"citations"`
	Fallback          bool       `json:"fallback,omitempty"` // True when the model was unreachable
}

// PipelineState tracks the per-request lifecycle for diagnostics
type PipelineState string

const (
	StateReceived        PipelineState = "received"
	StateEmbedding       PipelineState = "embedding"
	StateRetrieving      PipelineState = "retrieving"
	StateRanking         PipelineState = "ranking"
	StateNoContext       PipelineState = "no_context"
	StateAssembling      PipelineState = "assembling"
	StateSynthesizing    PipelineState = "synthesizing"
	StateFilteringOutput PipelineState = "filtering_output"
	StateVerifying       PipelineState = "verifying"
	StateResponded       PipelineState = "responded"
	StateFailed          PipelineState = "failed"
)
