// internal/table/table.go
//
// This package defines the table model shared by the verifier and the
// sandbox. Both the reference CSV and candidate output pass through the
// same type inference, so cell comparison is always kind-aware.

package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Kind classifies the inferred type of a column or cell.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindNull   Kind = "null"
)

// Cell is one typed value. Value holds the canonical rendering for the
// cell's kind; null cells have an empty value.
type Cell struct {
	Kind  Kind
	Value string
}

// IsNull reports whether the cell carries no value.
func (c Cell) IsNull() bool {
	return c.Kind == KindNull
}

// Equal compares kind, value, and nullness exactly. No coercion between
// numeric kinds and no tolerance for floats.
func (c Cell) Equal(other Cell) bool {
	return c.Kind == other.Kind && c.Value == other.Value
}

func (c Cell) String() string {
	if c.IsNull() {
		return "<null>"
	}
	return c.Value
}

// Column pairs a name with the kind inferred across the whole column.
type Column struct {
	Name string
	Kind Kind
}

// Table holds an ordered set of typed columns and their rows.
type Table struct {
	Columns []Column
	Rows    [][]Cell
}

// Shape returns row and column counts.
func (t *Table) Shape() (rows, cols int) {
	if t == nil {
		return 0, 0
	}
	return len(t.Rows), len(t.Columns)
}

// ColumnNames returns the ordered column names.
func (t *Table) ColumnNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// ColumnKinds maps each column name to its inferred kind.
func (t *Table) ColumnKinds() map[string]string {
	if t == nil {
		return nil
	}
	kinds := make(map[string]string, len(t.Columns))
	for _, col := range t.Columns {
		kinds[col.Name] = string(col.Kind)
	}
	return kinds
}

// SampleRecords returns up to n rows as name->value maps, for prompt
// construction. Null cells render as empty strings.
func (t *Table) SampleRecords(n int) []map[string]string {
	if t == nil || n <= 0 {
		return nil
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	records := make([]map[string]string, 0, n)
	for _, row := range t.Rows[:n] {
		record := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			if row[i].IsNull() {
				record[col.Name] = ""
				continue
			}
			record[col.Name] = row[i].Value
		}
		records = append(records, record)
	}
	return records
}

// LoadCSV reads a CSV file whose first record is the header and infers
// column kinds from the remaining records.
func LoadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("table: open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("table: parse %s: %w", path, err)
	}
	t, err := FromRows(records)
	if err != nil {
		return nil, fmt.Errorf("table: %s: %w", path, err)
	}
	return t, nil
}

// FromRows builds a table from raw string records. The first record is the
// header; every data record must match its width. Empty strings become
// null cells.
func FromRows(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("table: no header row")
	}
	header := records[0]
	if len(header) == 0 {
		return nil, fmt.Errorf("table: header row is empty")
	}
	for i, name := range header {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("table: header column %d is blank", i+1)
		}
	}
	data := records[1:]
	for i, record := range data {
		if len(record) != len(header) {
			return nil, fmt.Errorf("table: row %d has %d cells, header has %d", i+1, len(record), len(header))
		}
	}

	columns := make([]Column, len(header))
	for i, name := range header {
		columns[i] = Column{Name: name, Kind: inferColumnKind(data, i)}
	}
	rows := make([][]Cell, len(data))
	for r, record := range data {
		row := make([]Cell, len(header))
		for c, raw := range record {
			row[c] = makeCell(raw, columns[c].Kind)
		}
		rows[r] = row
	}
	return &Table{Columns: columns, Rows: rows}, nil
}

// inferColumnKind picks the narrowest kind that fits every non-null cell in
// the column. Ints widen to float when mixed with floats; any non-numeric
// value makes the whole column string. A column of only nulls stays string.
func inferColumnKind(data [][]string, col int) Kind {
	kind := KindNull
	for _, record := range data {
		raw := strings.TrimSpace(record[col])
		if raw == "" {
			continue
		}
		cellKind := classify(raw)
		switch {
		case kind == KindNull:
			kind = cellKind
		case kind == cellKind:
		case kind == KindInt && cellKind == KindFloat, kind == KindFloat && cellKind == KindInt:
			kind = KindFloat
		default:
			return KindString
		}
	}
	if kind == KindNull {
		return KindString
	}
	return kind
}

func classify(raw string) Kind {
	if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return KindInt
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return KindFloat
	}
	return KindString
}

// makeCell canonicalizes a raw value under the column kind so that "1.50"
// and "1.5" compare equal when both columns inferred float.
func makeCell(raw string, kind Kind) Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Cell{Kind: KindNull}
	}
	switch kind {
	case KindInt:
		v, err := strconv.ParseInt(trimmed, 10, 64)
		if err == nil {
			return Cell{Kind: KindInt, Value: strconv.FormatInt(v, 10)}
		}
	case KindFloat:
		v, err := strconv.ParseFloat(trimmed, 64)
		if err == nil {
			return Cell{Kind: KindFloat, Value: strconv.FormatFloat(v, 'g', -1, 64)}
		}
	}
	return Cell{Kind: KindString, Value: raw}
}
