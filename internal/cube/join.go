// Package cube implements the join-and-aggregate cube builder: fact
// construction from the three cleaned sources, per-fact tenure attributes,
// and the grouped summary table.
package cube

import (
	"fmt"

	"salescube/internal/table"
)

// Canonical column names for the cube input contract.
const (
	ColSaleID     = "sale_id"
	ColCustomerID = "customer_id"
	ColProductID  = "product_id"
	ColSaleAmount = "sale_amount"
	ColLocation   = "location"
	ColJoinDate   = "join_date"
	ColCategory   = "category"
)

// SchemaMismatchError reports a required column missing from a source table.
// It is fatal to the stage that raises it.
type SchemaMismatchError struct {
	Table  string
	Column string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: table %q has no column %q", e.Table, e.Column)
}

// JoinStats reports row movement through the join for audit logging.
type JoinStats struct {
	SalesIn           int
	FactsOut          int
	DroppedNoCustomer int
	DroppedNoProduct  int
}

// Join inner-joins Sales to Customers on customer_id and the result to
// Products on product_id, producing one denormalized fact row per surviving
// sale.
//
// Semantics:
//   - Sales rows whose customer or product key has no match are dropped
//     silently (the drop is counted in JoinStats, not treated as an error):
//     after cleaning, Customers and Products are assumed complete, so a miss
//     is an intentional narrowing of the value chain.
//   - When a source table holds several rows for the same key, the first by
//     input order wins, keeping the join deterministic.
//   - Output row order follows Sales input order; downstream aggregation is
//     order-independent either way.
//
// The fact table carries every Sales column, then the non-key Customers
// columns, then the non-key Products columns.
//
// Errors:
//   - *SchemaMismatchError if a join key column is absent from either side.
func Join(sales, customers, products *table.Table) (*table.Table, JoinStats, error) {
	var stats JoinStats

	saleCustIx, ok := sales.ColumnIndex(ColCustomerID)
	if !ok {
		return nil, stats, &SchemaMismatchError{Table: "sales", Column: ColCustomerID}
	}
	saleProdIx, ok := sales.ColumnIndex(ColProductID)
	if !ok {
		return nil, stats, &SchemaMismatchError{Table: "sales", Column: ColProductID}
	}
	custKeyIx, ok := customers.ColumnIndex(ColCustomerID)
	if !ok {
		return nil, stats, &SchemaMismatchError{Table: "customers", Column: ColCustomerID}
	}
	prodKeyIx, ok := products.ColumnIndex(ColProductID)
	if !ok {
		return nil, stats, &SchemaMismatchError{Table: "products", Column: ColProductID}
	}

	custByKey := indexByKey(customers, custKeyIx)
	prodByKey := indexByKey(products, prodKeyIx)

	// Fact columns: sales columns, then non-key customer columns, then
	// non-key product columns.
	factCols := append([]string{}, sales.Columns...)
	custCarry := carryIndexes(customers, custKeyIx)
	prodCarry := carryIndexes(products, prodKeyIx)
	for _, i := range custCarry {
		factCols = append(factCols, customers.Columns[i])
	}
	for _, i := range prodCarry {
		factCols = append(factCols, products.Columns[i])
	}

	out := table.New(factCols)
	stats.SalesIn = sales.Len()

	for _, srow := range sales.Rows {
		ck := table.NormalizeKey(srow[saleCustIx])
		ci, ok := custByKey[ck]
		if ck == "" || !ok {
			stats.DroppedNoCustomer++
			continue
		}

		pk := table.NormalizeKey(srow[saleProdIx])
		pi, ok := prodByKey[pk]
		if pk == "" || !ok {
			stats.DroppedNoProduct++
			continue
		}

		row := make([]any, 0, len(factCols))
		row = append(row, srow...)
		for _, i := range custCarry {
			row = append(row, customers.Rows[ci][i])
		}
		for _, i := range prodCarry {
			row = append(row, products.Rows[pi][i])
		}
		out.Rows = append(out.Rows, row)
	}

	stats.FactsOut = out.Len()
	return out, stats, nil
}

// indexByKey maps normalized key -> row index, first occurrence wins.
func indexByKey(t *table.Table, keyIx int) map[string]int {
	m := make(map[string]int, t.Len())
	for i, row := range t.Rows {
		k := table.NormalizeKey(row[keyIx])
		if k == "" {
			continue
		}
		if _, exists := m[k]; !exists {
			m[k] = i
		}
	}
	return m
}

// carryIndexes lists the column positions of t that survive into the fact
// row (everything except the join key).
func carryIndexes(t *table.Table, keyIx int) []int {
	out := make([]int, 0, len(t.Columns)-1)
	for i := range t.Columns {
		if i != keyIx {
			out = append(out, i)
		}
	}
	return out
}
