package model

import (
	"fmt"
	"math"
	"time"
)

// Config is the immutable process configuration. Built once at startup
// from defaults, config file, env vars, and flags; validated before the
// first request.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval" mapstructure:"retrieval"`
	Prompt    PromptConfig    `yaml:"prompt" mapstructure:"prompt"`
	Verify    VerifyConfig    `yaml:"verify" mapstructure:"verify"`
	Breaker   BreakerConfig   `yaml:"breaker" mapstructure:"breaker"`
	Filter    FilterConfig    `yaml:"filter" mapstructure:"filter"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
}

// EmbeddingConfig configures the embedding service client
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider" mapstructure:"provider"` // "openai", "ollama"
	Model      string        `yaml:"model" mapstructure:"model"`
	APIKey     string        `yaml:"-" mapstructure:"-"` // Env only, never written to disk
	BaseURL    string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Dimension  int           `yaml:"dimension" mapstructure:"dimension"` // Deployment-wide constant D
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec float64       `yaml:"rate_per_sec" mapstructure:"rate_per_sec"` // Ingestion throttle
}

// LLMConfig configures the generative model client
type LLMConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"` // "openai", "anthropic", "ollama"
	Model       string        `yaml:"model" mapstructure:"model"`
	APIKey      string        `yaml:"-" mapstructure:"-"`
	BaseURL     string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32       `yaml:"temperature" mapstructure:"temperature"`
	RatePerSec  float64       `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`

	// Proxy settings
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// RetrievalConfig configures hybrid ranking
type RetrievalConfig struct {
	TopK           int           `yaml:"top_k" mapstructure:"top_k"`
	CandidateK     int           `yaml:"candidate_k" mapstructure:"candidate_k"` // Repository fan-out before re-ranking
	SemanticWeight float64       `yaml:"semantic_weight" mapstructure:"semantic_weight"`
	KeywordWeight  float64       `yaml:"keyword_weight" mapstructure:"keyword_weight"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries"`
}

// PromptConfig configures context assembly
type PromptConfig struct {
	MaxContextChars int `yaml:"max_context_chars" mapstructure:"max_context_chars"`
}

// VerifyConfig configures answer grounding verification
type VerifyConfig struct {
	MinOverlapTokens int     `yaml:"min_overlap_tokens" mapstructure:"min_overlap_tokens"`
	HighThreshold    float64 `yaml:"high_threshold" mapstructure:"high_threshold"`
	MediumThreshold  float64 `yaml:"medium_threshold" mapstructure:"medium_threshold"`
}

// BreakerConfig configures the synthesizer circuit breaker
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout" mapstructure:"recovery_timeout"`
}

// FilterConfig configures the content filter
type FilterConfig struct {
	RulesPath string `yaml:"rules_path,omitempty" mapstructure:"rules_path"` // Optional YAML rules file; built-ins when empty
}

// StoreConfig configures the chunk repository
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // Index file; pure in-memory when empty
}

// IngestConfig configures book ingestion
type IngestConfig struct {
	SentencesPerChunk int `yaml:"sentences_per_chunk" mapstructure:"sentences_per_chunk"`
	OverlapSentences  int `yaml:"overlap_sentences" mapstructure:"overlap_sentences"`
	EmbedWorkers      int `yaml:"embed_workers" mapstructure:"embed_workers"`
}

// CacheConfig configures the embedding cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir,omitempty" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// OutputConfig configures diagnostics
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			Dimension:  1536,
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RatePerSec: 5,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Timeout:     60 * time.Second,
			MaxTokens:   1000,
			Temperature: 0.3,
			RatePerSec:  2,
		},
		Retrieval: RetrievalConfig{
			TopK:           5,
			CandidateK:     20,
			SemanticWeight: 0.7,
			KeywordWeight:  0.3,
			Timeout:        10 * time.Second,
			MaxRetries:     3,
		},
		Prompt: PromptConfig{
			MaxContextChars: 6000,
		},
		Verify: VerifyConfig{
			MinOverlapTokens: 3,
			HighThreshold:    0.8,
			MediumThreshold:  0.5,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
		},
		Ingest: IngestConfig{
			SentencesPerChunk: 5,
			OverlapSentences:  1,
			EmbedWorkers:      4,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
	}
}

// Validate checks the configuration once at startup. Invalid weights or
// thresholds fail fast here, never at request time.
func (c *Config) Validate() error {
	sum := c.Retrieval.SemanticWeight + c.Retrieval.KeywordWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("retrieval weights must sum to 1.0, got %.3f", sum)
	}
	if c.Retrieval.SemanticWeight < 0 || c.Retrieval.KeywordWeight < 0 {
		return fmt.Errorf("retrieval weights must be non-negative")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Prompt.MaxContextChars <= 0 {
		return fmt.Errorf("prompt max_context_chars must be positive, got %d", c.Prompt.MaxContextChars)
	}
	if c.Breaker.FailureThreshold <= 0 {
		return fmt.Errorf("breaker failure_threshold must be positive, got %d", c.Breaker.FailureThreshold)
	}
	if c.Breaker.RecoveryTimeout <= 0 {
		return fmt.Errorf("breaker recovery_timeout must be positive")
	}
	if c.Verify.HighThreshold < c.Verify.MediumThreshold {
		return fmt.Errorf("verify high_threshold must be >= medium_threshold")
	}
	if c.Verify.MinOverlapTokens <= 0 {
		return fmt.Errorf("verify min_overlap_tokens must be positive")
	}
	return nil
}
