// internal/agent/runner.go
//
// The Runner drives one generate-execute-verify-repair run. Analysis
// happens once; each attempt synthesizes a candidate (fresh on the first,
// repair-guided afterwards), executes it in the sandbox, and verifies the
// result. Attempt failures are recorded, never raised; only pre-run input
// problems abort before the loop starts.

package agent

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/kingrea/parseforge/internal/analyze"
	"github.com/kingrea/parseforge/internal/sandbox"
	"github.com/kingrea/parseforge/internal/verify"
)

// Terminal run outcomes surfaced to the caller.
var (
	ErrExhausted = errors.New("agent: retry budget exhausted")
	ErrCancelled = errors.New("agent: run cancelled")
	ErrInput     = errors.New("agent: input not found")
)

// Analyzer produces the once-per-run content summary.
type Analyzer interface {
	Summarize(docPath, tablePath string) analyze.ContentSummary
}

// Synthesizer produces candidate source. Implementations must not fail;
// provider errors degrade to a placeholder candidate.
type Synthesizer interface {
	Initial(ctx context.Context, summary analyze.ContentSummary, target string) string
	Repair(ctx context.Context, previous string, diag verify.Diagnostic, summary analyze.ContentSummary, target string) string
}

// Executor runs a candidate against the document, capturing all failures.
type Executor interface {
	Execute(ctx context.Context, source, docPath string) sandbox.Outcome
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(docPath, tablePath string) analyze.ContentSummary

func (f AnalyzerFunc) Summarize(docPath, tablePath string) analyze.ContentSummary {
	return f(docPath, tablePath)
}

// Runner owns the loop and its state; collaborators are injected.
type Runner struct {
	analyzer Analyzer
	synth    Synthesizer
	executor Executor
	reporter Reporter
}

// New wires a runner. A nil reporter falls back to the silent one.
func New(analyzer Analyzer, synth Synthesizer, executor Executor, reporter Reporter) (*Runner, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("agent: analyzer is required")
	}
	if synth == nil {
		return nil, fmt.Errorf("agent: synthesizer is required")
	}
	if executor == nil {
		return nil, fmt.Errorf("agent: executor is required")
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Runner{analyzer: analyzer, synth: synth, executor: executor, reporter: reporter}, nil
}

// Run executes the state machine for one request. The returned state is
// final; err is nil on success, ErrExhausted when the budget is consumed,
// ErrCancelled when ctx was cancelled between attempts, or a pre-run input
// error with no attempts consumed.
func (r *Runner) Run(ctx context.Context, req RunRequest) (State, error) {
	state := State{
		RunID:  uuid.NewString(),
		Target: req.Target,
		Budget: req.Budget,
		Phase:  PhaseIdle,
	}
	if err := req.Validate(); err != nil {
		return state, err
	}
	if err := checkInputs(req); err != nil {
		return state, err
	}

	state.Phase = PhaseAnalyzing
	r.reporter.Phase(state.Phase, state.Attempt, state.Budget)
	summary := r.analyzer.Summarize(req.DocPath, req.TablePath)

	for attempt := 1; attempt <= req.Budget; attempt++ {
		if err := ctx.Err(); err != nil {
			state.Phase = PhaseCancelled
			r.reporter.Done(state)
			return state, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		state.Attempt = attempt
		r.reporter.AttemptStart(attempt, req.Budget)

		state.Phase = PhaseSynthesizing
		r.reporter.Phase(state.Phase, attempt, req.Budget)
		if prev, ok := state.LastDiagnostic(); ok {
			state.Candidate = r.synth.Repair(ctx, state.Candidate, prev, summary, req.Target)
		} else {
			state.Candidate = r.synth.Initial(ctx, summary, req.Target)
		}

		state.Phase = PhaseExecuting
		r.reporter.Phase(state.Phase, attempt, req.Budget)
		outcome := r.executor.Execute(ctx, state.Candidate, req.DocPath)

		state.Phase = PhaseVerifying
		r.reporter.Phase(state.Phase, attempt, req.Budget)
		var diag verify.Diagnostic
		if outcome.Failed() {
			diag = verify.FromExecutionError(outcome.Err)
		} else {
			diag = verify.Verify(outcome.Table, summary.Expected)
		}
		state.record(diag)
		r.reporter.AttemptResult(attempt, diag)

		if diag.Success {
			state.Phase = PhaseSucceeded
			r.reporter.Done(state)
			return state, nil
		}
		if attempt < req.Budget {
			state.Phase = PhaseRetrying
			r.reporter.Phase(state.Phase, attempt, req.Budget)
		}
	}

	state.Phase = PhaseExhausted
	r.reporter.Done(state)
	return state, fmt.Errorf("%w after %d attempts", ErrExhausted, req.Budget)
}

// checkInputs enforces the only fatal pre-run condition: unreadable
// locators abort before any attempt is consumed.
func checkInputs(req RunRequest) error {
	for _, path := range []string{req.DocPath, req.TablePath} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s", ErrInput, path)
		}
	}
	return nil
}
