package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
)

// OllamaClient calls a local Ollama server's generate endpoint.
type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaClient reads OLLAMA_BASE_URL (or uses opts.BaseURL) and builds a
// non-streaming client.
func NewOllamaClient(opts Options) (*OllamaClient, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("llm: OLLAMA_BASE_URL environment variable not set")
	}
	model := opts.Model
	if model == "" {
		model = os.Getenv("OLLAMA_MODEL")
	}
	if model == "" {
		return nil, fmt.Errorf("llm: no ollama model configured")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	slog.Info("initializing ollama client", "base_url", baseURL, "model", model)
	return &OllamaClient{
		httpClient: &http.Client{Timeout: opts.timeoutOrDefault()},
		baseURL:    baseURL,
		model:      model,
	}, nil
}

// Generate implements the Client interface.
func (c *OllamaClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	options := map[string]any{}
	if params.Temperature != nil {
		options["temperature"] = *params.Temperature
	}
	if params.TopP != nil {
		options["top_p"] = *params.TopP
	}
	if params.MaxTokens != nil {
		options["num_predict"] = *params.MaxTokens
	}
	if len(params.Stop) > 0 {
		options["stop"] = params.Stop
	}

	payload, err := json.Marshal(ollamaGenerateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: options,
	})
	if err != nil {
		return "", fmt.Errorf("llm: encode ollama request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("llm: build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("ollama request failed", "error", err)
		return "", fmt.Errorf("llm: ollama request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var parsed ollamaGenerateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("llm: decode ollama response: %w", err)
	}
	slog.Debug("ollama response received", "model", parsed.Model, "done", parsed.Done)
	return parsed.Response, nil
}
