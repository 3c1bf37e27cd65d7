package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bookowl/bookowl/internal/cache"
	"github.com/bookowl/bookowl/internal/embed"
	"github.com/bookowl/bookowl/internal/filter"
	"github.com/bookowl/bookowl/internal/model"
	"github.com/bookowl/bookowl/internal/store"
	"github.com/spf13/viper"
)

// loadConfig merges defaults, the config file, and env vars into a
// validated configuration. API keys come from the environment only.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Output.Verbose = verbose || cfg.Output.Verbose

	switch cfg.Embedding.Provider {
	case "openai":
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.Embedding.BaseURL == "" {
			cfg.Embedding.BaseURL = baseURL
		}
	}

	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	if cfg.Store.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}
		cfg.Store.Path = filepath.Join(home, ".bookowl", "index.jsonl")
	}
	if cfg.Cache.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}
		cfg.Cache.Dir = filepath.Join(home, ".bookowl", "cache")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openRepository opens the persistent chunk index
func openRepository(cfg *model.Config) (store.Repository, error) {
	return store.OpenFileStore(cfg.Store.Path, cfg.Embedding.Dimension)
}

// newEmbedder builds the embedding client, wrapped in the layered cache
// when caching is enabled
func newEmbedder(cfg *model.Config) (embed.Embedder, error) {
	embedder, err := embed.NewEmbedder(cfg.Embedding)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled {
		ttl := cfg.Cache.TTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		layered := cache.NewLayeredCache(ttl, cfg.Cache.Dir, ttl)
		return embed.NewCachedEmbedder(embedder, layered, ttl), nil
	}
	return embedder, nil
}

// newFilter builds the content filter; rule set problems are fatal here,
// at startup, never at request time
func newFilter(cfg *model.Config) (*filter.Filter, error) {
	return filter.FromConfig(cfg.Filter)
}
