package table

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCSVInference(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.csv")
	csv := "Date,Description,Debit,Credit,Balance\n" +
		"2024-01-01,Opening,,100,100\n" +
		"2024-01-02,Groceries,45.50,,54.5\n"
	if err := os.WriteFile(path, []byte(csv), 0644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	tbl, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	rows, cols := tbl.Shape()
	if rows != 2 || cols != 5 {
		t.Fatalf("unexpected shape %dx%d", rows, cols)
	}
	kinds := tbl.ColumnKinds()
	want := map[string]string{
		"Date":        "string",
		"Description": "string",
		"Debit":       "float",
		"Credit":      "int",
		"Balance":     "float",
	}
	for name, kind := range want {
		if kinds[name] != kind {
			t.Fatalf("column %s: got kind %s, want %s", name, kinds[name], kind)
		}
	}
	if !tbl.Rows[0][2].IsNull() {
		t.Fatalf("expected null Debit in first row, got %+v", tbl.Rows[0][2])
	}
}

func TestFromRowsCanonicalizesFloats(t *testing.T) {
	a, err := FromRows([][]string{{"Amount"}, {"1.50"}})
	if err != nil {
		t.Fatalf("from rows: %v", err)
	}
	b, err := FromRows([][]string{{"Amount"}, {"1.5"}})
	if err != nil {
		t.Fatalf("from rows: %v", err)
	}
	if !a.Rows[0][0].Equal(b.Rows[0][0]) {
		t.Fatalf("expected %+v to equal %+v", a.Rows[0][0], b.Rows[0][0])
	}
}

func TestFromRowsMixedColumnFallsBackToString(t *testing.T) {
	tbl, err := FromRows([][]string{{"Ref"}, {"12"}, {"AB-9"}})
	if err != nil {
		t.Fatalf("from rows: %v", err)
	}
	if tbl.Columns[0].Kind != KindString {
		t.Fatalf("expected string column, got %s", tbl.Columns[0].Kind)
	}
	if tbl.Rows[0][0].Value != "12" {
		t.Fatalf("string column must keep raw text, got %q", tbl.Rows[0][0].Value)
	}
}

func TestFromRowsRejectsRaggedRows(t *testing.T) {
	if _, err := FromRows([][]string{{"A", "B"}, {"1"}}); err == nil {
		t.Fatalf("expected error for ragged row")
	}
}

func TestFromRowsRejectsEmptyInput(t *testing.T) {
	if _, err := FromRows(nil); err == nil {
		t.Fatalf("expected error for missing header")
	}
	if _, err := FromRows([][]string{{"", "B"}}); err == nil {
		t.Fatalf("expected error for blank header column")
	}
}

func TestSampleRecords(t *testing.T) {
	tbl, err := FromRows([][]string{{"A", "B"}, {"1", ""}, {"2", "x"}, {"3", "y"}})
	if err != nil {
		t.Fatalf("from rows: %v", err)
	}
	records := tbl.SampleRecords(2)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["B"] != "" {
		t.Fatalf("null cell should render empty, got %q", records[0]["B"])
	}
	if records[1]["A"] != "2" {
		t.Fatalf("unexpected sample value %q", records[1]["A"])
	}
}
