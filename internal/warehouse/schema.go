// Package warehouse rebuilds the relational sales store from raw source
// tables. Every load is a full drop-and-recreate, so running it twice on the
// same inputs leaves an identical store.
package warehouse

import "salescube/internal/storage"

// Source column layouts. Load expects tables with exactly these columns, in
// this order, and fails with a storage schema error otherwise.
var (
	CustomerColumns = []string{"customer_id", "name", "region", "join_date", "number_of_purchases", "contact_preferences"}
	ProductColumns  = []string{"product_id", "product_name", "category", "unit_price", "stock_quantity", "purchase_type"}
	SaleColumns     = []string{"sales_id", "sale_date", "customer_id", "product_id", "store_id", "campaign_id", "sales_amount", "number_of_items", "city"}
)

func customerSpec() storage.TableSpec {
	return storage.TableSpec{
		Name:       "customer",
		PrimaryKey: &storage.PrimaryKeySpec{Name: "customer_id", Type: "INTEGER"},
		Columns: []storage.ColumnSpec{
			{Name: "name", Type: "TEXT"},
			{Name: "region", Type: "TEXT"},
			{Name: "join_date", Type: "TEXT"},
			{Name: "number_of_purchases", Type: "INTEGER"},
			{Name: "contact_preferences", Type: "TEXT"},
		},
	}
}

func productSpec() storage.TableSpec {
	return storage.TableSpec{
		Name:       "product",
		PrimaryKey: &storage.PrimaryKeySpec{Name: "product_id", Type: "INTEGER"},
		Columns: []storage.ColumnSpec{
			{Name: "product_name", Type: "TEXT"},
			{Name: "category", Type: "TEXT"},
			{Name: "unit_price", Type: "REAL"},
			{Name: "stock_quantity", Type: "INTEGER"},
			{Name: "purchase_type", Type: "TEXT"},
		},
	}
}

func saleSpec() storage.TableSpec {
	return storage.TableSpec{
		Name:       "sale",
		PrimaryKey: &storage.PrimaryKeySpec{Name: "sales_id", Type: "INTEGER"},
		// The foreign keys are declarative. SQLite leaves enforcement off,
		// so a sale may reference a customer or product absent from the
		// same batch and still loads; orphans are dropped later, by the
		// cube join, not here.
		Columns: []storage.ColumnSpec{
			{Name: "sale_date", Type: "TEXT"},
			{Name: "customer_id", Type: "INTEGER", References: "customer (customer_id)"},
			{Name: "product_id", Type: "INTEGER", References: "product (product_id)"},
			{Name: "store_id", Type: "INTEGER"},
			{Name: "campaign_id", Type: "INTEGER"},
			{Name: "sales_amount", Type: "REAL"},
			{Name: "number_of_items", Type: "INTEGER"},
			{Name: "city", Type: "TEXT"},
		},
	}
}
