// internal/sandbox/executor.go
//
// The executor evaluates candidate source in a fresh yaegi interpreter per
// attempt, so definitions from one attempt can never leak into the next.
// Candidate failures of every kind (bad source, missing entry point,
// runtime panic, returned error, timeout) are captured into the outcome,
// never propagated.

package sandbox

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/kingrea/parseforge/internal/table"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// EntryPoint is the function every candidate must define:
// func Parse(path string) ([][]string, error), first row the header.
const EntryPoint = "Parse"

const defaultTimeout = 30 * time.Second

// Outcome is either a produced table or a captured failure. Err is empty
// exactly when Table is set.
type Outcome struct {
	Table *table.Table
	Err   string
}

// Failed reports whether the attempt produced a usable table.
func (o Outcome) Failed() bool {
	return o.Err != ""
}

// Executor runs candidates under a wall-clock timeout.
type Executor struct {
	timeout time.Duration
}

// New builds an executor; a non-positive timeout falls back to the default.
func New(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Executor{timeout: timeout}
}

// Execute evaluates source in an isolated interpreter and invokes its entry
// point against docPath. The interpreter goroutine cannot be killed on
// timeout; it is abandoned and its result discarded.
func (e *Executor) Execute(ctx context.Context, source, docPath string) Outcome {
	done := make(chan Outcome, 1)
	go func() {
		done <- run(source, docPath)
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()
	select {
	case outcome := <-done:
		return outcome
	case <-timer.C:
		return Outcome{Err: fmt.Sprintf("execution timed out after %s", e.timeout)}
	case <-ctx.Done():
		return Outcome{Err: fmt.Sprintf("execution cancelled: %v", ctx.Err())}
	}
}

func run(source, docPath string) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{Err: fmt.Sprintf("candidate panicked: %v", r)}
		}
	}()

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return Outcome{Err: fmt.Sprintf("interpreter setup failed: %v", err)}
	}
	if _, err := i.Eval(source); err != nil {
		return Outcome{Err: fmt.Sprintf("invalid source: %v", err)}
	}
	fnValue, err := i.Eval(EntryPoint)
	if err != nil {
		return Outcome{Err: fmt.Sprintf("missing entry point %s(path string) ([][]string, error): %v", EntryPoint, err)}
	}
	rows, callErr := invokeParse(fnValue, docPath)
	if callErr != nil {
		return Outcome{Err: callErr.Error()}
	}
	tbl, err := table.FromRows(rows)
	if err != nil {
		return Outcome{Err: fmt.Sprintf("candidate output rejected: %v", err)}
	}
	return Outcome{Table: tbl}
}

func invokeParse(value reflect.Value, docPath string) ([][]string, error) {
	if !value.IsValid() || value.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", EntryPoint)
	}
	t := value.Type()
	if t.NumIn() != 1 || t.In(0).Kind() != reflect.String {
		return nil, fmt.Errorf("%s must take a single string argument", EntryPoint)
	}
	if t.NumOut() != 2 {
		return nil, fmt.Errorf("%s must return ([][]string, error)", EntryPoint)
	}
	results := value.Call([]reflect.Value{reflect.ValueOf(docPath)})
	if errVal := results[1]; !errVal.IsNil() {
		if e, ok := errVal.Interface().(error); ok && e != nil {
			return nil, fmt.Errorf("candidate returned error: %w", e)
		}
		return nil, fmt.Errorf("%s returned a non-error second value", EntryPoint)
	}
	return convertRows(results[0])
}

// convertRows accepts [][]string directly and falls back to element-wise
// conversion for interpreter values that only conform structurally.
func convertRows(value reflect.Value) ([][]string, error) {
	if rows, ok := value.Interface().([][]string); ok {
		return rows, nil
	}
	if value.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%s must return [][]string", EntryPoint)
	}
	rows := make([][]string, value.Len())
	for r := 0; r < value.Len(); r++ {
		rowVal := reflect.ValueOf(value.Index(r).Interface())
		if rowVal.Kind() != reflect.Slice {
			return nil, fmt.Errorf("%s result row %d is not a slice", EntryPoint, r)
		}
		row := make([]string, rowVal.Len())
		for c := 0; c < rowVal.Len(); c++ {
			cell, ok := rowVal.Index(c).Interface().(string)
			if !ok {
				return nil, fmt.Errorf("%s result cell [%d][%d] is not a string", EntryPoint, r, c)
			}
			row[c] = cell
		}
		rows[r] = row
	}
	return rows, nil
}
