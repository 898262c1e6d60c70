package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/parseforge/internal/analyze"
	"github.com/kingrea/parseforge/internal/llm"
	"github.com/kingrea/parseforge/internal/sandbox"
	"github.com/kingrea/parseforge/internal/synth"
	"github.com/kingrea/parseforge/internal/verify"
)

// scriptedClient replays canned provider replies and records prompts.
type scriptedClient struct {
	replies []string
	errs    []error
	prompts []string
}

func (c *scriptedClient) Generate(_ context.Context, prompt string, _ llm.GenerationParams) (string, error) {
	i := len(c.prompts)
	c.prompts = append(c.prompts, prompt)
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	return c.replies[i], nil
}

const wrongColumnsCandidate = `package main

import (
	"bufio"
	"os"
	"strings"
)

func Parse(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	rows := [][]string{{"Date", "Value"}}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 2 {
			rows = append(rows, []string{fields[0], fields[1]})
		}
	}
	return rows, scanner.Err()
}`

const correctCandidate = `package main

import (
	"bufio"
	"os"
	"strings"
)

func Parse(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	rows := [][]string{{"Date", "Amount"}}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 2 {
			rows = append(rows, []string{fields[0], fields[1]})
		}
	}
	return rows, scanner.Err()
}`

func loopFixture(t *testing.T) RunRequest {
	t.Helper()
	dir := t.TempDir()
	doc := filepath.Join(dir, "acme_sample.txt")
	csv := filepath.Join(dir, "acme_sample.csv")
	if err := os.WriteFile(doc, []byte("2024-01-01 100\n2024-01-02 50\n"), 0644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	if err := os.WriteFile(csv, []byte("Date,Amount\n2024-01-01,100\n2024-01-02,50\n"), 0644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return RunRequest{Target: "acme", DocPath: doc, TablePath: csv, Budget: 3}
}

// Full loop: first candidate misnames a column, the repair prompt carries
// the diagnostic, and the corrected candidate verifies on attempt two.
func TestLoopRepairsSchemaMismatch(t *testing.T) {
	client := &scriptedClient{replies: []string{wrongColumnsCandidate, correctCandidate}}
	r := newRunner(t, AnalyzerFunc(analyze.Summarize), synth.New(client), sandbox.New(0))

	state, err := r.Run(context.Background(), loopFixture(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if state.Attempt != 2 || !state.Success {
		t.Fatalf("expected success on attempt 2, got %+v", state)
	}
	if state.History[0].Kind != verify.KindSchemaMismatch {
		t.Fatalf("first attempt should be schema_mismatch, got %s", state.History[0].Kind)
	}
	repairPrompt := client.prompts[1]
	if !strings.Contains(repairPrompt, "schema_mismatch") {
		t.Fatalf("repair prompt missing diagnostic:\n%s", repairPrompt)
	}
	if !strings.Contains(repairPrompt, `{"Date", "Value"}`) {
		t.Fatalf("repair prompt missing previous candidate:\n%s", repairPrompt)
	}
	if state.Candidate != correctCandidate {
		t.Fatalf("final candidate is not the accepted source")
	}
}

// Provider failure mid-run degrades to the placeholder candidate: the
// attempt is consumed and recorded, and the loop keeps going.
func TestLoopSurvivesProviderFailure(t *testing.T) {
	client := &scriptedClient{
		replies: []string{wrongColumnsCandidate, "", correctCandidate},
		errs:    []error{nil, errors.New("quota exceeded"), nil},
	}
	r := newRunner(t, AnalyzerFunc(analyze.Summarize), synth.New(client), sandbox.New(0))

	state, err := r.Run(context.Background(), loopFixture(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if state.Attempt != 3 {
		t.Fatalf("expected success on attempt 3, got %d", state.Attempt)
	}
	if len(state.History) != 3 {
		t.Fatalf("placeholder attempt must be counted, history=%d", len(state.History))
	}
	if state.History[1].Kind != verify.KindExecutionError {
		t.Fatalf("placeholder attempt should fail as execution_error, got %s", state.History[1].Kind)
	}
}
