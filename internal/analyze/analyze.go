// internal/analyze/analyze.go
//
// The analyzer takes one structural snapshot of the inputs per run: the raw
// document text and the reference table's schema. Read failures never abort
// the run; they are folded into the summary so verification can surface an
// informative diagnostic instead.

package analyze

import (
	"fmt"
	"os"
	"strings"

	"github.com/kingrea/parseforge/internal/table"
)

// maxContentBytes bounds how much document text is carried into prompts.
const maxContentBytes = 12000

const sampleRowCount = 3

// Schema describes the reference table for prompt construction. The Error
// field is set when the table could not be loaded.
type Schema struct {
	Columns    []string            `yaml:"columns"`
	Types      map[string]string   `yaml:"types"`
	SampleRows []map[string]string `yaml:"sample_rows"`
	TotalRows  int                 `yaml:"total_rows"`
	Error      string              `yaml:"error,omitempty"`
}

// ContentSummary is the read-only snapshot computed once per run and reused
// across attempts.
type ContentSummary struct {
	Content  string
	Schema   Schema
	Expected *table.Table
}

// Summarize reads both inputs. It never returns an error: unreadable inputs
// yield an error-marker content string or a schema carrying Error, and the
// Expected table stays nil.
func Summarize(docPath, tablePath string) ContentSummary {
	summary := ContentSummary{Content: readDocument(docPath)}
	tbl, err := table.LoadCSV(tablePath)
	if err != nil {
		summary.Schema = Schema{Error: err.Error()}
		return summary
	}
	summary.Expected = tbl
	summary.Schema = Schema{
		Columns:    tbl.ColumnNames(),
		Types:      tbl.ColumnKinds(),
		SampleRows: tbl.SampleRecords(sampleRowCount),
		TotalRows:  len(tbl.Rows),
	}
	return summary
}

func readDocument(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("error reading document: %v", err)
	}
	content := string(data)
	if len(content) > maxContentBytes {
		content = content[:maxContentBytes] + "\n[document truncated]"
	}
	return strings.TrimRight(content, "\n")
}
