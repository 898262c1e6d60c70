package tui

import (
	"fmt"
	"io"

	"github.com/kingrea/parseforge/internal/agent"
	"github.com/kingrea/parseforge/internal/verify"
)

// Console is the plain reporter for non-interactive runs: one styled line
// per event, no live redraw.
type Console struct {
	out io.Writer
}

// NewConsole builds a console reporter writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Phase(phase agent.Phase, attempt, budget int) {
	switch phase {
	case agent.PhaseAnalyzing, agent.PhaseSynthesizing, agent.PhaseExecuting, agent.PhaseVerifying:
		fmt.Fprintln(c.out, phaseStyle.Render(fmt.Sprintf("  %s...", phase)))
	}
}

func (c *Console) AttemptStart(attempt, budget int) {
	fmt.Fprintln(c.out, attemptStyle.Render(fmt.Sprintf("attempt %d/%d", attempt, budget)))
}

func (c *Console) AttemptResult(attempt int, diag verify.Diagnostic) {
	fmt.Fprintln(c.out, renderVerdict(attempt, diag))
}

func (c *Console) Done(state agent.State) {
	fmt.Fprintln(c.out, renderSummary(state))
}
