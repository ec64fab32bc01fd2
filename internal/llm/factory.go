package llm

import (
	"fmt"
	"strings"
)

// NewClient creates an LLM client for the configured provider. When
// cfg.CacheSize is positive the client is wrapped with a completion cache.
func NewClient(cfg Config) (Client, error) {
	var (
		client Client
		err    error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		client, err = newGeminiClient(cfg)
	case ProviderOpenAI:
		client, err = newOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize > 0 {
		client = NewCachingClient(client, cfg.CacheSize, cfg.CacheTTL, cfg.Provider+"/"+cfg.Model)
	}
	return client, nil
}
