// internal/verify/verify.go
//
// The verifier compares a candidate's table against the reference table
// under an exact-equality policy and produces a diagnostic that can be
// embedded verbatim in the next repair prompt. Checks short-circuit in a
// fixed order: execution error, shape, column names, cell values.

package verify

import (
	"fmt"
	"strings"

	"github.com/kingrea/parseforge/internal/table"
)

// Kind enumerates the failure categories a diagnostic can carry.
type Kind string

const (
	KindExecutionError Kind = "execution_error"
	KindShapeMismatch  Kind = "shape_mismatch"
	KindSchemaMismatch Kind = "schema_mismatch"
	KindDataMismatch   Kind = "data_mismatch"
)

// maxCellDiffs caps how many cell differences a diagnostic records; enough
// to steer a repair without flooding the prompt.
const maxCellDiffs = 10

// Shape is a row/column count pair.
type Shape struct {
	Rows int
	Cols int
}

func (s Shape) String() string {
	return fmt.Sprintf("%d rows x %d cols", s.Rows, s.Cols)
}

// CellDiff records one divergent cell.
type CellDiff struct {
	Row    int
	Column string
	Got    string
	Want   string
}

// Diagnostic is the immutable outcome of verifying one attempt.
type Diagnostic struct {
	Success     bool
	Kind        Kind
	ErrorText   string
	GotShape    Shape
	WantShape   Shape
	GotColumns  []string
	WantColumns []string
	CellDiffs   []CellDiff
}

// FromExecutionError wraps a captured execution failure as a diagnostic so
// it flows through the same history and repair channel as table mismatches.
func FromExecutionError(errText string) Diagnostic {
	return Diagnostic{Kind: KindExecutionError, ErrorText: errText}
}

// Verify applies the equality policy. A nil expected table means the
// reference could not be loaded; that surfaces as an execution-class
// failure carrying the reason rather than aborting the run.
func Verify(produced, expected *table.Table) Diagnostic {
	if expected == nil {
		return FromExecutionError("reference table unavailable")
	}
	if produced == nil {
		return FromExecutionError("candidate produced no table")
	}

	gotRows, gotCols := produced.Shape()
	wantRows, wantCols := expected.Shape()
	if gotRows != wantRows || gotCols != wantCols {
		return Diagnostic{
			Kind:      KindShapeMismatch,
			GotShape:  Shape{Rows: gotRows, Cols: gotCols},
			WantShape: Shape{Rows: wantRows, Cols: wantCols},
		}
	}

	gotNames := produced.ColumnNames()
	wantNames := expected.ColumnNames()
	for i := range wantNames {
		if gotNames[i] != wantNames[i] {
			return Diagnostic{
				Kind:        KindSchemaMismatch,
				GotColumns:  gotNames,
				WantColumns: wantNames,
			}
		}
	}

	var diffs []CellDiff
	for r := range expected.Rows {
		for c := range expected.Columns {
			got := produced.Rows[r][c]
			want := expected.Rows[r][c]
			if got.Equal(want) {
				continue
			}
			if len(diffs) < maxCellDiffs {
				diffs = append(diffs, CellDiff{
					Row:    r + 1,
					Column: expected.Columns[c].Name,
					Got:    describeCell(got),
					Want:   describeCell(want),
				})
			}
		}
	}
	if len(diffs) > 0 {
		return Diagnostic{Kind: KindDataMismatch, CellDiffs: diffs}
	}
	return Diagnostic{Success: true}
}

func describeCell(c table.Cell) string {
	if c.IsNull() {
		return "<null>"
	}
	return fmt.Sprintf("%q (%s)", c.Value, c.Kind)
}

// Render produces the re-promptable failure summary.
func (d Diagnostic) Render() string {
	if d.Success {
		return "success"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "failure kind: %s\n", d.Kind)
	switch d.Kind {
	case KindExecutionError:
		fmt.Fprintf(&b, "error: %s\n", d.ErrorText)
	case KindShapeMismatch:
		fmt.Fprintf(&b, "produced shape: %s\n", d.GotShape)
		fmt.Fprintf(&b, "expected shape: %s\n", d.WantShape)
	case KindSchemaMismatch:
		fmt.Fprintf(&b, "produced columns: [%s]\n", strings.Join(d.GotColumns, ", "))
		fmt.Fprintf(&b, "expected columns: [%s]\n", strings.Join(d.WantColumns, ", "))
	case KindDataMismatch:
		fmt.Fprintf(&b, "cell mismatches (first %d):\n", len(d.CellDiffs))
		for _, diff := range d.CellDiffs {
			fmt.Fprintf(&b, "  row %d, column %s: got %s, expected %s\n", diff.Row, diff.Column, diff.Got, diff.Want)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
