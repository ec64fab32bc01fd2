// Package llm provides text-completion clients for hosted language models.
package llm

import (
	"context"
	"errors"
	"time"
)

// Client sends a single prompt and returns the model's text completion.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds provider selection and tuning for an LLM client.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
	CacheSize   int
	CacheTTL    time.Duration
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

var (
	ErrEmptyCompletion = errors.New("model returned no completion")
	ErrMissingAPIKey   = errors.New("API key is required")
)
