// Package table defines the in-memory tabular value passed between pipeline
// stages.
//
// A Table is a materialized, column-ordered batch of rows. Cell values are
// `any` and hold one of: string, float64, int64, or nil (missing). Stages hand
// Tables to each other and never mutate a Table they received; each stage that
// changes data builds a new Table.
package table

import "fmt"

// Table is a column-ordered batch of rows.
//
// Invariants:
//   - Every row has exactly len(Columns) cells.
//   - Column names are unique within a table.
type Table struct {
	Columns []string
	Rows    [][]any

	colIndex map[string]int
}

// New creates an empty table with the given column order.
func New(columns []string) *Table {
	return &Table{Columns: columns, colIndex: indexColumns(columns)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of a column and whether it exists.
func (t *Table) ColumnIndex(name string) (int, bool) {
	if t == nil {
		return -1, false
	}
	if t.colIndex == nil {
		t.colIndex = indexColumns(t.Columns)
	}
	i, ok := t.colIndex[name]
	return i, ok
}

// Append adds a row. It returns an error if the row width does not match the
// column count; a width mismatch always indicates a bug in the producing stage.
func (t *Table) Append(row []any) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("table: row has %d cells, want %d", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Value returns the cell at (row, column name). Missing columns and
// out-of-range rows return nil.
func (t *Table) Value(row int, column string) any {
	if t == nil || row < 0 || row >= len(t.Rows) {
		return nil
	}
	i, ok := t.ColumnIndex(column)
	if !ok {
		return nil
	}
	return t.Rows[row][i]
}

func indexColumns(columns []string) map[string]int {
	m := make(map[string]int, len(columns))
	for i, c := range columns {
		m[c] = i
	}
	return m
}
