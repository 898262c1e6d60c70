// internal/tui/app.go
//
// Live progress view for a run. Follows The Elm Architecture: the agent
// loop publishes messages through the Reporter adapter, Update folds them
// into the model, View renders the current attempt and the verdicts so far.

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kingrea/parseforge/internal/agent"
	"github.com/kingrea/parseforge/internal/verify"
)

// PhaseMsg reports a loop phase transition.
type PhaseMsg struct {
	Phase   agent.Phase
	Attempt int
	Budget  int
}

// AttemptMsg reports the start of an attempt.
type AttemptMsg struct {
	Attempt int
	Budget  int
}

// ResultMsg reports one attempt's verdict.
type ResultMsg struct {
	Attempt int
	Diag    verify.Diagnostic
}

// DoneMsg reports the terminal run state and quits the program.
type DoneMsg struct {
	State agent.State
}

// Model is the progress view state.
type Model struct {
	target  string
	spin    spinner.Model
	phase   agent.Phase
	attempt int
	budget  int
	history []string
	done    bool
	final   agent.State
	aborted bool
}

// NewModel builds the progress view for one target.
func NewModel(target string, budget int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		target: target,
		spin:   s,
		phase:  agent.PhaseIdle,
		budget: budget,
	}
}

// Aborted reports whether the user quit before the run finished.
func (m Model) Aborted() bool {
	return m.aborted
}

// FinalState returns the terminal run state once DoneMsg arrived.
func (m Model) FinalState() agent.State {
	return m.final
}

func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if !m.done {
				m.aborted = true
			}
			return m, tea.Quit
		}
	case PhaseMsg:
		m.phase = msg.Phase
		m.attempt = msg.Attempt
		m.budget = msg.Budget
		return m, nil
	case AttemptMsg:
		m.attempt = msg.Attempt
		m.budget = msg.Budget
		return m, nil
	case ResultMsg:
		m.history = append(m.history, renderVerdict(msg.Attempt, msg.Diag))
		return m, nil
	case DoneMsg:
		m.done = true
		m.final = msg.State
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("parseforge · %s", m.target)))
	b.WriteString("\n\n")
	for _, line := range m.history {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if !m.done {
		if m.attempt > 0 {
			b.WriteString(attemptStyle.Render(fmt.Sprintf("attempt %d/%d", m.attempt, m.budget)))
			b.WriteString(" ")
		}
		b.WriteString(m.spin.View())
		b.WriteString(phaseStyle.Render(string(m.phase)))
		b.WriteString("\n")
	} else {
		b.WriteString(renderSummary(m.final))
		b.WriteString("\n")
	}
	return b.String()
}

func renderVerdict(attempt int, diag verify.Diagnostic) string {
	if diag.Success {
		return successStyle.Render(fmt.Sprintf("✓ attempt %d verified", attempt))
	}
	head := failureStyle.Render(fmt.Sprintf("✗ attempt %d failed: %s", attempt, diag.Kind))
	return head + "\n" + detailStyle.Render(diag.Render())
}

func renderSummary(state agent.State) string {
	switch state.Phase {
	case agent.PhaseSucceeded:
		return successStyle.Render(fmt.Sprintf("parser accepted on attempt %d", state.Attempt))
	case agent.PhaseCancelled:
		return failureStyle.Render("run cancelled")
	default:
		return failureStyle.Render(fmt.Sprintf("no working parser after %d attempts", len(state.History)))
	}
}

// Reporter forwards loop progress into a running program.
type Reporter struct {
	program *tea.Program
}

// NewReporter wraps a program as an agent.Reporter.
func NewReporter(program *tea.Program) Reporter {
	return Reporter{program: program}
}

func (r Reporter) Phase(phase agent.Phase, attempt, budget int) {
	r.program.Send(PhaseMsg{Phase: phase, Attempt: attempt, Budget: budget})
}

func (r Reporter) AttemptStart(attempt, budget int) {
	r.program.Send(AttemptMsg{Attempt: attempt, Budget: budget})
}

func (r Reporter) AttemptResult(attempt int, diag verify.Diagnostic) {
	r.program.Send(ResultMsg{Attempt: attempt, Diag: diag})
}

func (r Reporter) Done(state agent.State) {
	r.program.Send(DoneMsg{State: state})
}
