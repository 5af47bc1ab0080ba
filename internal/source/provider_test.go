package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testPaths(t *testing.T) Paths {
	t.Helper()
	dir := t.TempDir()
	return Paths{
		Sales: writeFile(t, dir, "sales.csv",
			"sales_id,sale_date,customer_id,product_id,store_id,campaign_id,sales_amount,number_of_items,city\n"+
				"10,2024-03-01,1,100,7,2,42.50,1,Lyon\n"+
				"11,2024-03-02,2,100,7,2,bogus,2,Oslo\n"),
		Customers: writeFile(t, dir, "customers.csv",
			"customer_id,name,region,join_date,number_of_purchases,contact_preferences\n"+
				"1,Ada,EU,2023-01-01,3,email\n"+
				"2,Grace,US,2022-06-15,9,phone\n"),
		Products: writeFile(t, dir, "products.csv",
			"product_id,product_name,category,unit_price,stock_quantity,purchase_type\n"+
				"100,novel,Books,9.99,50,online\n"),
	}
}

func TestLoadCubeShapesAndAliases(t *testing.T) {
	t.Parallel()

	tables, stats, err := LoadCube(context.Background(), testPaths(t))
	if err != nil {
		t.Fatalf("LoadCube: %v", err)
	}

	if got := tables.Sales.Len(); got != 2 {
		t.Fatalf("sales rows = %d, want 2", got)
	}
	if v := tables.Sales.Value(0, "sale_id"); v != "10" {
		t.Fatalf("sale_id alias not applied, got %v", v)
	}
	if v := tables.Sales.Value(0, "location"); v != "Lyon" {
		t.Fatalf("location alias not applied, got %v", v)
	}
	if v := tables.Sales.Value(0, "sale_amount"); v != 42.50 {
		t.Fatalf("sale_amount = %v, want coerced float", v)
	}
	if v := tables.Sales.Value(1, "sale_amount"); v != nil {
		t.Fatalf("unparseable amount = %v, want nil", v)
	}
	if stats.ParseFailures != 1 {
		t.Fatalf("ParseFailures = %d, want 1", stats.ParseFailures)
	}

	if v := tables.Customers.Value(1, "join_date"); v != "2022-06-15" {
		t.Fatalf("join_date = %v", v)
	}
	if v := tables.Products.Value(0, "category"); v != "Books" {
		t.Fatalf("category = %v", v)
	}
}

func TestLoadWarehouseCoercesNumerics(t *testing.T) {
	t.Parallel()

	tables, stats, err := LoadWarehouse(context.Background(), testPaths(t))
	if err != nil {
		t.Fatalf("LoadWarehouse: %v", err)
	}

	if v := tables.Sales.Value(0, "sales_id"); v != int64(10) {
		t.Fatalf("sales_id = %#v, want int64", v)
	}
	if v := tables.Sales.Value(0, "sales_amount"); v != 42.50 {
		t.Fatalf("sales_amount = %#v", v)
	}
	if v := tables.Sales.Value(1, "sales_amount"); v != nil {
		t.Fatalf("unparseable amount = %#v, want nil", v)
	}
	if v := tables.Customers.Value(0, "number_of_purchases"); v != int64(3) {
		t.Fatalf("number_of_purchases = %#v", v)
	}
	if v := tables.Products.Value(0, "unit_price"); v != 9.99 {
		t.Fatalf("unit_price = %#v", v)
	}
	if stats.ParseFailures != 1 {
		t.Fatalf("ParseFailures = %d, want 1", stats.ParseFailures)
	}
}

func TestMissingInputYieldsEmptyTable(t *testing.T) {
	t.Parallel()

	p := testPaths(t)
	p.Products = filepath.Join(t.TempDir(), "nope.csv")

	tables, stats, err := LoadCube(context.Background(), p)
	if err != nil {
		t.Fatalf("LoadCube: %v", err)
	}
	if tables.Products.Len() != 0 {
		t.Fatalf("products rows = %d, want 0", tables.Products.Len())
	}
	if len(tables.Products.Columns) != len(CubeProductColumns) {
		t.Fatalf("empty table lost its columns: %v", tables.Products.Columns)
	}
	if len(stats.MissingInputs) != 1 || stats.MissingInputs[0] != p.Products {
		t.Fatalf("MissingInputs = %v", stats.MissingInputs)
	}
}

func TestIntegerCellsSurviveFloatFormatting(t *testing.T) {
	t.Parallel()

	if v, fail := toIntCell("7.0"); fail || v != int64(7) {
		t.Fatalf("toIntCell(7.0) = %v, %v", v, fail)
	}
	if v, fail := toIntCell("7.5"); !fail || v != nil {
		t.Fatalf("toIntCell(7.5) = %v, %v", v, fail)
	}
}
