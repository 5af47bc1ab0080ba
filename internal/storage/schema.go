// Table declaration types live here so backend packages can import them
// without circular deps on the loader.
package storage

// TableSpec declares one warehouse table.
//
// Types use a small portable vocabulary (INTEGER, REAL, TEXT) that each
// backend translates into its native types.
type TableSpec struct {
	Name       string
	PrimaryKey *PrimaryKeySpec
	Columns    []ColumnSpec
}

type PrimaryKeySpec struct {
	Name string
	Type string
}

type ColumnSpec struct {
	Name string
	Type string

	// References names "<table> (<column>)" for a foreign key, empty
	// otherwise.
	References string
}

// TableLoad pairs a table spec with the batch to insert into it.
//
// Invariants:
//   - Columns lists the insert column order; every row has len(Columns)
//     cells.
//   - Rows are inserted exactly in slice order.
type TableLoad struct {
	Spec    TableSpec
	Columns []string
	Rows    [][]any
}
