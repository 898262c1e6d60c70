package agent

import (
	"github.com/kingrea/parseforge/internal/logbook"
	"github.com/kingrea/parseforge/internal/verify"
)

// Reporter receives loop progress. Injected rather than global so tests and
// silent runs can drop output entirely.
type Reporter interface {
	Phase(phase Phase, attempt, budget int)
	AttemptStart(attempt, budget int)
	AttemptResult(attempt int, diag verify.Diagnostic)
	Done(state State)
}

// NopReporter drops all progress.
type NopReporter struct{}

func (NopReporter) Phase(Phase, int, int)                {}
func (NopReporter) AttemptStart(int, int)                {}
func (NopReporter) AttemptResult(int, verify.Diagnostic) {}
func (NopReporter) Done(State)                           {}

// LogbookReporter appends loop progress to the project logbook.
type LogbookReporter struct {
	Log *logbook.Logbook
}

func (r LogbookReporter) Phase(phase Phase, attempt, budget int) {
	r.Log.Info("phase %s (attempt %d/%d)", phase, attempt, budget)
}

func (r LogbookReporter) AttemptStart(attempt, budget int) {
	r.Log.Info("attempt %d/%d starting", attempt, budget)
}

func (r LogbookReporter) AttemptResult(attempt int, diag verify.Diagnostic) {
	if diag.Success {
		r.Log.Info("attempt %d verified successfully", attempt)
		return
	}
	r.Log.Warn("attempt %d failed: %s", attempt, diag.Render())
}

func (r LogbookReporter) Done(state State) {
	switch state.Phase {
	case PhaseSucceeded:
		r.Log.Info("run %s succeeded on attempt %d", state.RunID, state.Attempt)
	case PhaseCancelled:
		r.Log.Warn("run %s cancelled after %d attempts", state.RunID, len(state.History))
	default:
		r.Log.Error("run %s exhausted after %d attempts", state.RunID, len(state.History))
	}
}

// MultiReporter fans progress out to several reporters.
type MultiReporter []Reporter

func (m MultiReporter) Phase(phase Phase, attempt, budget int) {
	for _, r := range m {
		r.Phase(phase, attempt, budget)
	}
}

func (m MultiReporter) AttemptStart(attempt, budget int) {
	for _, r := range m {
		r.AttemptStart(attempt, budget)
	}
}

func (m MultiReporter) AttemptResult(attempt int, diag verify.Diagnostic) {
	for _, r := range m {
		r.AttemptResult(attempt, diag)
	}
}

func (m MultiReporter) Done(state State) {
	for _, r := range m {
		r.Done(state)
	}
}
