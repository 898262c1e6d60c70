package verify

import (
	"strings"
	"testing"

	"github.com/kingrea/parseforge/internal/table"
)

func mustTable(t *testing.T, records [][]string) *table.Table {
	t.Helper()
	tbl, err := table.FromRows(records)
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return tbl
}

func statementRecords() [][]string {
	return [][]string{
		{"Date", "Description", "Debit", "Credit", "Balance"},
		{"2024-01-01", "Opening", "", "100", "100"},
		{"2024-01-02", "Groceries", "45.5", "", "54.5"},
		{"2024-01-03", "Fuel", "20", "", "34.5"},
		{"2024-01-04", "Salary", "", "500", "534.5"},
		{"2024-01-05", "Rent", "300", "", "234.5"},
	}
}

func TestVerifyIdenticalTablesSucceeds(t *testing.T) {
	expected := mustTable(t, statementRecords())
	produced := mustTable(t, statementRecords())
	diag := Verify(produced, expected)
	if !diag.Success {
		t.Fatalf("expected success, got %+v", diag)
	}
}

func TestVerifyIsReflexive(t *testing.T) {
	tbl := mustTable(t, statementRecords())
	if diag := Verify(tbl, tbl); !diag.Success {
		t.Fatalf("verify(T, T) must succeed, got %+v", diag)
	}
}

func TestVerifyRenamedColumnIsSchemaMismatch(t *testing.T) {
	expected := mustTable(t, statementRecords())
	renamed := statementRecords()
	renamed[0][1] = "Desc"
	produced := mustTable(t, renamed)
	diag := Verify(produced, expected)
	if diag.Success || diag.Kind != KindSchemaMismatch {
		t.Fatalf("expected schema_mismatch, got %+v", diag)
	}
	if len(diag.GotColumns) != 5 || len(diag.WantColumns) != 5 {
		t.Fatalf("both column lists must be recorded: %+v", diag)
	}
	if diag.GotColumns[1] != "Desc" || diag.WantColumns[1] != "Description" {
		t.Fatalf("unexpected column capture: %+v", diag)
	}
}

func TestVerifyShapeCheckedBeforeSchema(t *testing.T) {
	expected := mustTable(t, statementRecords())
	// Renamed column AND a missing row: shape must win.
	short := statementRecords()[:4]
	short[0][1] = "Desc"
	produced := mustTable(t, short)
	diag := Verify(produced, expected)
	if diag.Kind != KindShapeMismatch {
		t.Fatalf("expected shape_mismatch to short-circuit, got %+v", diag)
	}
	if diag.GotShape.Rows != 3 || diag.WantShape.Rows != 5 {
		t.Fatalf("both shapes must be recorded: %+v", diag)
	}
}

func TestVerifyDataMismatchRecordsCells(t *testing.T) {
	expected := mustTable(t, statementRecords())
	altered := statementRecords()
	altered[2][4] = "54.6"
	produced := mustTable(t, altered)
	diag := Verify(produced, expected)
	if diag.Kind != KindDataMismatch {
		t.Fatalf("expected data_mismatch, got %+v", diag)
	}
	if len(diag.CellDiffs) != 1 {
		t.Fatalf("expected one cell diff, got %d", len(diag.CellDiffs))
	}
	diff := diag.CellDiffs[0]
	if diff.Row != 2 || diff.Column != "Balance" {
		t.Fatalf("unexpected diff location: %+v", diff)
	}
}

func TestVerifyNullVersusValueIsDataMismatch(t *testing.T) {
	expected := mustTable(t, [][]string{{"A"}, {""}})
	produced := mustTable(t, [][]string{{"A"}, {"0"}})
	diag := Verify(produced, expected)
	if diag.Kind != KindDataMismatch {
		t.Fatalf("expected data_mismatch for null vs value, got %+v", diag)
	}
}

func TestVerifyNilTables(t *testing.T) {
	expected := mustTable(t, statementRecords())
	if diag := Verify(nil, expected); diag.Kind != KindExecutionError {
		t.Fatalf("nil produced table should be execution_error, got %+v", diag)
	}
	if diag := Verify(expected, nil); diag.Kind != KindExecutionError {
		t.Fatalf("nil expected table should be execution_error, got %+v", diag)
	}
}

func TestRenderIncludesKindAndDetail(t *testing.T) {
	diag := FromExecutionError("boom")
	text := diag.Render()
	if !strings.Contains(text, "execution_error") || !strings.Contains(text, "boom") {
		t.Fatalf("render missing detail: %q", text)
	}
}
