package types

import "github.com/nconklindev/bulkmap/internal/mapping"

// Table is an ingested file: a header row and its data rows, every cell as text.
type Table struct {
	Headers   []string
	Rows      [][]string
	HeaderRow int
}

// ColumnIndex returns the position of header, preferring the first occurrence.
func (t *Table) ColumnIndex(header string) (int, bool) {
	for i, h := range t.Headers {
		if h == header {
			return i, true
		}
	}

	return -1, false
}

// Cell returns the value at row, col, or "" when the row is short.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}

	return t.Rows[row][col]
}

func (t *Table) RowCount() int { return len(t.Rows) }

// ResultTable is the transformed output: target schema, one row per source row.
// Cells hold a string, an int64 or a float64.
type ResultTable struct {
	Headers []string
	Formats []mapping.DisplayFormat
	Rows    [][]any
}

func (r *ResultTable) RowCount() int { return len(r.Rows) }

// ValidationError reports a required column with empty cells.
type ValidationError struct {
	Column       string
	MissingCount int
}

// ExportResult summarizes a finished run.
type ExportResult struct {
	RunID         string
	Vendor        string
	SourceFile    string
	OutputFile    string
	RowsProcessed int
	Validation    []ValidationError
}
