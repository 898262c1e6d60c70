// internal/synth/synth.go
//
// The synthesizer turns a content summary (and, on repair, the previous
// candidate plus its diagnostic) into a prompt, calls the configured
// provider, and normalizes the reply into candidate source. Provider
// failures never reach the caller: the loop gets a placeholder candidate
// and records a verification failure for that attempt instead.

package synth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kingrea/parseforge/internal/analyze"
	"github.com/kingrea/parseforge/internal/llm"
	"github.com/kingrea/parseforge/internal/verify"
	"gopkg.in/yaml.v3"
)

// PlaceholderSource is the deterministic fallback candidate used when the
// provider call fails. It satisfies the entry-point contract but extracts
// nothing, so the attempt fails at verification rather than crashing.
const PlaceholderSource = `package main

func Parse(path string) ([][]string, error) {
	return [][]string{}, nil
}
`

const contract = `Requirements:
1. Write a single Go file, package main, using only the standard library.
2. Define exactly: func Parse(path string) ([][]string, error)
3. Parse must read the document at path and return the extracted table as
   rows of strings. The FIRST returned row is the header and must match the
   expected columns exactly, in order and case.
4. Render every cell as text exactly as it appears in the expected data;
   use the empty string for missing values.
5. Return an error only when the document itself cannot be read.

Reply with ONLY the Go source, no explanations.`

// Synthesizer wraps a text-generation client with the prompt protocol.
type Synthesizer struct {
	client llm.Client
	params llm.GenerationParams
}

// Option customizes a Synthesizer.
type Option func(*Synthesizer)

// WithParams overrides the generation parameters sent to the provider.
func WithParams(params llm.GenerationParams) Option {
	return func(s *Synthesizer) {
		s.params = params
	}
}

// New builds a synthesizer over the given client.
func New(client llm.Client, opts ...Option) *Synthesizer {
	temperature := float32(0.1)
	s := &Synthesizer{
		client: client,
		params: llm.GenerationParams{Temperature: &temperature},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initial requests a fresh candidate for the target document.
func (s *Synthesizer) Initial(ctx context.Context, summary analyze.ContentSummary, target string) string {
	prompt := fmt.Sprintf(`You are an expert Go developer specializing in document parsing. Write a parser for %s bank statements.

Document content:
%s

Expected table schema (YAML):
%s

%s`, target, summary.Content, renderSchema(summary.Schema), contract)
	return s.generate(ctx, prompt)
}

// Repair requests a corrected candidate. The previous candidate and its
// diagnostic are embedded verbatim; this is the feedback channel that makes
// retries converge in practice.
func (s *Synthesizer) Repair(ctx context.Context, previous string, diag verify.Diagnostic, summary analyze.ContentSummary, target string) string {
	prompt := fmt.Sprintf(`The previous Go parser for %s bank statements failed verification.

Failure diagnostic:
%s

Document content:
%s

Expected table schema (YAML):
%s

Previous source:
%s

Fix the parser so its output matches the expected table exactly.
%s`, target, diag.Render(), summary.Content, renderSchema(summary.Schema), previous, contract)
	return s.generate(ctx, prompt)
}

func (s *Synthesizer) generate(ctx context.Context, prompt string) string {
	if s.client == nil {
		return PlaceholderSource
	}
	reply, err := s.client.Generate(ctx, prompt, s.params)
	if err != nil {
		slog.Warn("provider call failed, substituting placeholder candidate", "error", err)
		return PlaceholderSource
	}
	source := StripFences(reply)
	if strings.TrimSpace(source) == "" {
		slog.Warn("provider returned empty candidate, substituting placeholder")
		return PlaceholderSource
	}
	return source
}

func renderSchema(schema analyze.Schema) string {
	encoded, err := yaml.Marshal(schema)
	if err != nil {
		return fmt.Sprintf("columns: %v", schema.Columns)
	}
	return strings.TrimRight(string(encoded), "\n")
}

// StripFences removes a surrounding markdown code fence, which chat models
// add even when told not to.
func StripFences(reply string) string {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	// Drop the opening fence (possibly carrying a language tag) and the
	// last closing fence, keeping everything between.
	lines = lines[1:]
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			lines = append(lines[:i], lines[i+1:]...)
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
