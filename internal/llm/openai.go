package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// groqBaseURL is Groq's OpenAI-compatible endpoint; the same chat client
// serves both providers.
const groqBaseURL = "https://api.groq.com/openai/v1"

const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultGroqModel   = "llama-3.1-8b-instant"
)

// OpenAIClient speaks the OpenAI chat-completions API, directly or through
// an OpenAI-compatible endpoint such as Groq.
type OpenAIClient struct {
	client *openai.Client
	model  string
	label  string
}

// NewOpenAIClient reads OPENAI_API_KEY and builds a chat client.
func NewOpenAIClient(opts Options) (*OpenAIClient, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("llm: OPENAI_API_KEY environment variable not set")
	}
	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
		slog.Warn("no openai model configured, using default", "model", model)
	}
	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.timeoutOrDefault()}
	slog.Info("initializing openai client", "model", model)
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), model: model, label: "openai"}, nil
}

// NewGroqClient reads GROQ_API_KEY and builds a chat client against Groq's
// OpenAI-compatible endpoint.
func NewGroqClient(opts Options) (*OpenAIClient, error) {
	apiKey := strings.TrimSpace(os.Getenv("GROQ_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("llm: GROQ_API_KEY environment variable not set")
	}
	model := opts.Model
	if model == "" {
		model = defaultGroqModel
		slog.Warn("no groq model configured, using default", "model", model)
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = groqBaseURL
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.timeoutOrDefault()}
	slog.Info("initializing groq client", "model", model)
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), model: model, label: "groq"}, nil
}

// Generate implements the Client interface.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = *params.MaxTokens
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("chat completion failed", "provider", c.label, "error", err)
		return "", fmt.Errorf("llm: %s chat completion: %w", c.label, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: %s returned no choices", c.label)
	}
	slog.Debug("chat completion received", "provider", c.label, "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}
