package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// GenerationParams tunes a single generation request.
type GenerationParams struct {
	Temperature *float32
	TopP        *float32
	MaxTokens   *int
	Stop        []string
}

// Client is the standard interface over any text-generation backend.
type Client interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// Options carries provider construction settings resolved from config.
type Options struct {
	Model   string
	BaseURL string
	Timeout time.Duration
}

const defaultTimeout = 2 * time.Minute

func (o Options) timeoutOrDefault() time.Duration {
	if o.Timeout <= 0 {
		return defaultTimeout
	}
	return o.Timeout
}

// New selects a provider implementation by name.
func New(provider string, opts Options) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai":
		return NewOpenAIClient(opts)
	case "groq":
		return NewGroqClient(opts)
	case "ollama":
		return NewOllamaClient(opts)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q (want openai, groq, or ollama)", provider)
	}
}
