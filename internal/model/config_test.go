package model

import (
	"strings"
	"testing"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Default configuration must validate: %v", err)
	}
}

func TestValidate_WeightsMustSumToOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retrieval.SemanticWeight = 0.7
	cfg.Retrieval.KeywordWeight = 0.4

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected error for weights summing to 1.1, got nil")
	}
	if !strings.Contains(err.Error(), "sum to 1.0") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestValidate_NegativeWeight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retrieval.SemanticWeight = 1.3
	cfg.Retrieval.KeywordWeight = -0.3

	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected error for negative weight, got nil")
	}
}

func TestValidate_Positives(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero top_k", func(c *Config) { c.Retrieval.TopK = 0 }},
		{"zero dimension", func(c *Config) { c.Embedding.Dimension = 0 }},
		{"zero context budget", func(c *Config) { c.Prompt.MaxContextChars = 0 }},
		{"zero failure threshold", func(c *Config) { c.Breaker.FailureThreshold = 0 }},
		{"zero recovery timeout", func(c *Config) { c.Breaker.RecoveryTimeout = 0 }},
		{"zero min overlap", func(c *Config) { c.Verify.MinOverlapTokens = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestValidate_ThresholdOrdering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Verify.HighThreshold = 0.4
	cfg.Verify.MediumThreshold = 0.5

	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected error for high < medium threshold, got nil")
	}
}
