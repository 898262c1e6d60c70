package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Errorf("expected non-streaming request")
		}
		if req.Model != "test-model" {
			t.Errorf("unexpected model %q", req.Model)
		}
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Model: req.Model, Response: "package main", Done: true})
	}))
	defer server.Close()

	client, err := NewOllamaClient(Options{Model: "test-model", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	out, err := client.Generate(context.Background(), "write a parser", GenerationParams{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "package main" {
		t.Fatalf("unexpected response %q", out)
	}
}

func TestOllamaGenerateErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewOllamaClient(Options{Model: "missing", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Generate(context.Background(), "prompt", GenerationParams{}); err == nil {
		t.Fatalf("expected error for non-200 status")
	} else if !strings.Contains(err.Error(), "404") {
		t.Fatalf("error should carry status: %v", err)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New("gemini", Options{}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
