// cmd/parseforge/main.go
//
// CLI entry point. parseforge generates a Go extraction routine for a
// target bank statement: it analyzes the sample document and reference
// CSV, asks the configured provider for a parser, runs the candidate in a
// sandboxed interpreter, and retries with failure feedback until the
// output matches the reference exactly or the retry budget runs out.
//
// Exit status: 0 on success, 1 when the budget is exhausted or the run is
// cancelled, 2 on input or configuration errors.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kingrea/parseforge/internal/agent"
	"github.com/kingrea/parseforge/internal/analyze"
	"github.com/kingrea/parseforge/internal/artifact"
	"github.com/kingrea/parseforge/internal/config"
	"github.com/kingrea/parseforge/internal/llm"
	"github.com/kingrea/parseforge/internal/logbook"
	"github.com/kingrea/parseforge/internal/sandbox"
	"github.com/kingrea/parseforge/internal/synth"
	"github.com/kingrea/parseforge/internal/tui"
	"github.com/kingrea/parseforge/internal/verify"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
)

func main() {
	target := flag.String("target", "", "target bank identifier (e.g. icici)")
	docPath := flag.String("doc", "", "path to the sample document (default: data/<target>/<target>_sample.pdf)")
	tablePath := flag.String("table", "", "path to the reference CSV (default: data/<target>/<target>_sample.csv)")
	provider := flag.String("provider", "", "text-generation provider: openai, groq, or ollama (default from config)")
	attempts := flag.Int("attempts", 0, "retry budget override (default from config)")
	timeout := flag.Duration("timeout", 0, "sandbox wall-clock limit override (default from config)")
	projectDir := flag.String("project", "", "project directory holding .parseforge (defaults to cwd)")
	plain := flag.Bool("plain", false, "disable the live progress view")
	check := flag.Bool("check", false, "re-verify the saved parser for the target instead of generating")
	flag.Parse()

	if strings.TrimSpace(*target) == "" {
		die("--target is required")
	}

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	project, err := filepath.Abs(project)
	if err != nil {
		die("resolve project dir: %v", err)
	}
	if err := config.InitForgeDir(project); err != nil {
		die("init %s: %v", config.ForgeDir, err)
	}
	cfg, err := config.NewConfig(project)
	if err != nil {
		die("load config: %v", err)
	}

	doc, table := resolveInputs(*target, *docPath, *tablePath)

	lb, err := logbook.Open(cfg.LogbookPath())
	if err != nil {
		die("open logbook: %v", err)
	}
	defer lb.Close()
	store := artifact.NewStore(cfg.ParsersDir())

	sandboxTimeout := cfg.SandboxTimeout()
	if *timeout > 0 {
		sandboxTimeout = *timeout
	}
	executor := sandbox.New(sandboxTimeout)

	if *check {
		os.Exit(runCheck(store, executor, *target, lb))
	}

	providerName := cfg.Provider()
	if strings.TrimSpace(*provider) != "" {
		providerName = strings.ToLower(strings.TrimSpace(*provider))
	}
	override := cfg.ProviderOverride(providerName)
	client, err := llm.New(providerName, llm.Options{Model: override.Model, BaseURL: override.BaseURL})
	if err != nil {
		die("%v", err)
	}

	budget := cfg.Attempts()
	if *attempts > 0 {
		budget = *attempts
	}
	req := agent.RunRequest{Target: *target, DocPath: doc, TablePath: table, Budget: budget}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	synthesizer := synth.New(client)
	reporters := agent.MultiReporter{agent.LogbookReporter{Log: lb}}
	lb.Info("run starting: target=%s provider=%s budget=%d", *target, providerName, budget)

	var state agent.State
	var runErr error
	if !*plain && isatty.IsTerminal(os.Stdout.Fd()) {
		state, runErr = runWithTUI(ctx, reporters, synthesizer, executor, req)
	} else {
		reporters = append(reporters, tui.NewConsole(os.Stdout))
		runner, err := agent.New(agent.AnalyzerFunc(analyze.Summarize), synthesizer, executor, reporters)
		if err != nil {
			die("%v", err)
		}
		state, runErr = runner.Run(ctx, req)
	}

	os.Exit(report(state, runErr, req, providerName, store, lb))
}

// runWithTUI runs the loop and the progress program side by side. Quitting
// the view (ctrl+c) cancels the run at the next attempt boundary.
func runWithTUI(ctx context.Context, reporters agent.MultiReporter, synthesizer agent.Synthesizer, executor agent.Executor, req agent.RunRequest) (agent.State, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(tui.NewModel(req.Target, req.Budget))
	reporters = append(reporters, tui.NewReporter(program))
	runner, err := agent.New(agent.AnalyzerFunc(analyze.Summarize), synthesizer, executor, reporters)
	if err != nil {
		die("%v", err)
	}

	var state agent.State
	var runErr error
	var group errgroup.Group
	group.Go(func() error {
		final, err := program.Run()
		if model, ok := final.(tui.Model); ok && model.Aborted() {
			cancel()
		}
		return err
	})
	group.Go(func() error {
		state, runErr = runner.Run(ctx, req)
		program.Quit()
		return nil
	})
	if err := group.Wait(); err != nil {
		die("progress view: %v", err)
	}
	return state, runErr
}

// runCheck re-executes the saved parser for a target against the inputs
// recorded in its check manifest.
func runCheck(store *artifact.Store, executor *sandbox.Executor, target string, lb *logbook.Logbook) int {
	manifest, err := store.LoadManifest(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	source, err := store.LoadParser(manifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	summary := analyze.Summarize(manifest.DocPath, manifest.TablePath)
	outcome := executor.Execute(context.Background(), source, manifest.DocPath)
	var diag verify.Diagnostic
	if outcome.Failed() {
		diag = verify.FromExecutionError(outcome.Err)
	} else {
		diag = verify.Verify(outcome.Table, summary.Expected)
	}
	if diag.Success {
		fmt.Printf("parser %s still verifies against %s\n", manifest.Parser, manifest.TablePath)
		lb.Info("check passed for %s", target)
		return 0
	}
	fmt.Printf("parser %s no longer verifies:\n%s\n", manifest.Parser, diag.Render())
	lb.Warn("check failed for %s: %s", target, diag.Kind)
	return 1
}

func report(state agent.State, runErr error, req agent.RunRequest, providerName string, store *artifact.Store, lb *logbook.Logbook) int {
	switch {
	case runErr == nil:
		parserPath, err := store.SaveAccepted(artifact.Manifest{
			Target:    req.Target,
			RunID:     state.RunID,
			Provider:  providerName,
			Attempts:  state.Attempt,
			DocPath:   req.DocPath,
			TablePath: req.TablePath,
		}, state.Candidate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "save accepted parser: %v\n", err)
			return 1
		}
		fmt.Printf("parser saved to %s\n", parserPath)
		lb.Info("parser saved to %s", parserPath)
		return 0
	case errors.Is(runErr, agent.ErrCancelled):
		fmt.Fprintln(os.Stderr, "run cancelled")
		return 1
	case errors.Is(runErr, agent.ErrExhausted):
		fmt.Fprintf(os.Stderr, "no working parser after %d attempts:\n", len(state.History))
		for i, diag := range state.History {
			fmt.Fprintf(os.Stderr, "attempt %d: %s\n", i+1, indent(diag.Render()))
		}
		return 1
	default:
		fmt.Fprintf(os.Stderr, "%v\n", runErr)
		return 2
	}
}

// resolveInputs applies the conventional data layout when explicit paths
// are missing, preferring a .txt sibling when the PDF sample is absent.
func resolveInputs(target, doc, table string) (string, string) {
	if doc == "" {
		doc = filepath.Join("data", target, fmt.Sprintf("%s_sample.pdf", target))
	}
	if _, err := os.Stat(doc); err != nil {
		if _, txtErr := os.Stat(doc + ".txt"); txtErr == nil {
			doc = doc + ".txt"
		}
	}
	if table == "" {
		table = filepath.Join("data", target, fmt.Sprintf("%s_sample.csv", target))
	}
	return doc, table
}

func indent(text string) string {
	return strings.ReplaceAll(text, "\n", "\n  ")
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
