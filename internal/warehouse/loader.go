package warehouse

import (
	"context"
	"fmt"

	"salescube/internal/logging"
	"salescube/internal/storage"
	"salescube/internal/table"
)

// Batch carries the three source tables for one load.
type Batch struct {
	Customers *table.Table
	Products  *table.Table
	Sales     *table.Table
}

// LoadStats reports per-table row accounting for one load.
type LoadStats struct {
	CustomersIn     int
	CustomersLoaded int
	CustomerDupes   int
	ProductsLoaded  int
	SalesIn         int
	SalesLoaded     int
	SaleDupes       int
}

// MissingColumnError reports a source table that lacks a required column.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("table %s is missing column %s", e.Table, e.Column)
}

// Load rebuilds the whole store from one batch.
//
// Customer and sale batches are deduplicated on their key column before
// loading, keeping the first occurrence of each key. Product batches are
// loaded as-is; a duplicate product_id surfaces as a primary key violation
// from the backend and aborts the transaction. Tables load in customer,
// product, sale order.
func Load(ctx context.Context, repo storage.Repository, batch Batch) (LoadStats, error) {
	var stats LoadStats

	customers, custDupes, err := projectRows("customer", batch.Customers, CustomerColumns, "customer_id")
	if err != nil {
		return stats, err
	}
	products, _, err := projectRows("product", batch.Products, ProductColumns, "")
	if err != nil {
		return stats, err
	}
	sales, saleDupes, err := projectRows("sale", batch.Sales, SaleColumns, "sales_id")
	if err != nil {
		return stats, err
	}

	stats.CustomersIn = batch.Customers.Len()
	stats.CustomersLoaded = len(customers)
	stats.CustomerDupes = custDupes
	stats.ProductsLoaded = len(products)
	stats.SalesIn = batch.Sales.Len()
	stats.SalesLoaded = len(sales)
	stats.SaleDupes = saleDupes

	loads := []storage.TableLoad{
		{Spec: customerSpec(), Columns: CustomerColumns, Rows: customers},
		{Spec: productSpec(), Columns: ProductColumns, Rows: products},
		{Spec: saleSpec(), Columns: SaleColumns, Rows: sales},
	}

	if err := repo.Rebuild(ctx, loads); err != nil {
		return stats, err
	}

	logging.Logger.Info().
		Int("customers", stats.CustomersLoaded).
		Int("products", stats.ProductsLoaded).
		Int("sales", stats.SalesLoaded).
		Msg("warehouse rebuilt")
	return stats, nil
}

// projectRows reorders each row into the expected column order, dropping any
// extra columns. When keyColumn is set, rows after the first occurrence of a
// key are skipped.
func projectRows(name string, t *table.Table, columns []string, keyColumn string) ([][]any, int, error) {
	if t == nil {
		return nil, 0, nil
	}

	idx := make([]int, len(columns))
	for i, c := range columns {
		j, ok := t.ColumnIndex(c)
		if !ok {
			return nil, 0, &MissingColumnError{Table: name, Column: c}
		}
		idx[i] = j
	}

	keyIdx := -1
	if keyColumn != "" {
		if j, ok := t.ColumnIndex(keyColumn); ok {
			keyIdx = j
		}
	}

	var (
		rows  [][]any
		seen  map[string]struct{}
		dupes int
	)
	if keyIdx >= 0 {
		seen = make(map[string]struct{}, t.Len())
	}

	for _, row := range t.Rows {
		if keyIdx >= 0 {
			key := table.NormalizeKey(row[keyIdx])
			if _, dup := seen[key]; dup {
				dupes++
				logging.Logger.Warn().
					Str("table", name).
					Str("key", key).
					Msg("duplicate key dropped, keeping first occurrence")
				continue
			}
			seen[key] = struct{}{}
		}

		out := make([]any, len(columns))
		for i, j := range idx {
			out[i] = row[j]
		}
		rows = append(rows, out)
	}
	return rows, dupes, nil
}
