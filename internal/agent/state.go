package agent

import (
	"fmt"
	"strings"

	"github.com/kingrea/parseforge/internal/verify"
)

// Phase names the loop's position. Succeeded, Exhausted, and Cancelled are
// terminal; no phase is revisited after one of them.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseAnalyzing    Phase = "analyzing"
	PhaseSynthesizing Phase = "synthesizing"
	PhaseExecuting    Phase = "executing"
	PhaseVerifying    Phase = "verifying"
	PhaseRetrying     Phase = "retrying"
	PhaseSucceeded    Phase = "succeeded"
	PhaseExhausted    Phase = "exhausted"
	PhaseCancelled    Phase = "cancelled"
)

// RunRequest is the immutable per-run input.
type RunRequest struct {
	Target    string
	DocPath   string
	TablePath string
	Budget    int
}

// Validate rejects malformed requests before any attempt is consumed.
func (r RunRequest) Validate() error {
	if strings.TrimSpace(r.Target) == "" {
		return fmt.Errorf("agent: target is required")
	}
	if strings.TrimSpace(r.DocPath) == "" {
		return fmt.Errorf("agent: document path is required")
	}
	if strings.TrimSpace(r.TablePath) == "" {
		return fmt.Errorf("agent: table path is required")
	}
	if r.Budget < 1 {
		return fmt.Errorf("agent: retry budget must be >= 1, got %d", r.Budget)
	}
	return nil
}

// State is the mutable run-scoped record, owned exclusively by the Runner.
// History is append-only with exactly one diagnostic per completed attempt,
// and Success mirrors the most recent diagnostic.
type State struct {
	RunID     string
	Target    string
	Attempt   int
	Budget    int
	Candidate string
	History   []verify.Diagnostic
	Success   bool
	Phase     Phase
}

// LastDiagnostic returns the most recent attempt's diagnostic, or false
// when no attempt has completed.
func (s *State) LastDiagnostic() (verify.Diagnostic, bool) {
	if len(s.History) == 0 {
		return verify.Diagnostic{}, false
	}
	return s.History[len(s.History)-1], true
}

func (s *State) record(diag verify.Diagnostic) {
	s.History = append(s.History, diag)
	s.Success = diag.Success
}
