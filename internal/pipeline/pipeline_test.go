package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"salescube/internal/config"
	"salescube/internal/metrics"
	_ "salescube/internal/storage/sqlite"
)

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Sources.SalesPath = writeInput(t, dir, "sales.csv",
		"sales_id,sale_date,customer_id,product_id,store_id,campaign_id,sales_amount,number_of_items,city\n"+
			"10,2024-03-01,1,100,7,2,42.50,1,Lyon\n"+
			"11,2024-03-02,999,100,7,2,10.00,1,Oslo\n")
	cfg.Sources.CustomersPath = writeInput(t, dir, "customers.csv",
		"customer_id,name,region,join_date,number_of_purchases,contact_preferences\n"+
			"1,Ada,EU,2023-01-01,3,email\n")
	cfg.Sources.ProductsPath = writeInput(t, dir, "products.csv",
		"product_id,product_name,category,unit_price,stock_quantity,purchase_type\n"+
			"100,novel,Books,9.99,50,online\n")
	cfg.Cube.OutputPath = filepath.Join(dir, "cube.csv")
	cfg.Cube.ReferenceDate = "2025-01-01"
	cfg.Warehouse.DSN = filepath.Join(dir, "warehouse.db")
	return cfg
}

func TestBuildCubeEndToEnd(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	res, err := BuildCube(context.Background(), cfg, metrics.Noop{})
	if err != nil {
		t.Fatalf("BuildCube: %v", err)
	}

	// Sale 11 references an unknown customer and is dropped by the join.
	if res.FactRows != 1 {
		t.Fatalf("FactRows = %d, want 1", res.FactRows)
	}
	if res.CubeRows != 1 {
		t.Fatalf("CubeRows = %d, want 1", res.CubeRows)
	}
	if res.RunID == "" {
		t.Fatal("empty run id")
	}

	raw, err := os.ReadFile(cfg.Cube.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("output lines = %d, want header plus one group", len(lines))
	}
	if lines[0] != "category,location,year,sale_amount,sale_amount_sum,sale_amount_mean,sale_amount_count,days_since_join_first,time_since_join_first" {
		t.Fatalf("header = %q", lines[0])
	}
	// 2023-01-01 to 2025-01-01 spans 731 days because 2024 is a leap year.
	want := "Books,Lyon,2023,42.5,42.5,42.5,1,731,2 year(s) and 0 month(s)"
	if lines[1] != want {
		t.Fatalf("row = %q, want %q", lines[1], want)
	}
}

func TestBuildCubeMissingSalesInput(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Sources.SalesPath = filepath.Join(t.TempDir(), "absent.csv")

	res, err := BuildCube(context.Background(), cfg, metrics.Noop{})
	if err != nil {
		t.Fatalf("BuildCube: %v", err)
	}
	if res.CubeRows != 0 {
		t.Fatalf("CubeRows = %d, want 0 for a missing input", res.CubeRows)
	}

	raw, err := os.ReadFile(cfg.Cube.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 1 {
		t.Fatalf("want header only, got %d lines", len(lines))
	}
}

// recordingBackend captures counter increments by name and labels.
type recordingBackend struct {
	counters []counterCall
}

type counterCall struct {
	name   string
	labels metrics.Labels
}

func (r *recordingBackend) IncCounter(name string, _ float64, labels metrics.Labels) {
	r.counters = append(r.counters, counterCall{name: name, labels: labels})
}
func (r *recordingBackend) ObserveHistogram(string, float64, metrics.Labels) {}

func (r *recordingBackend) Flush() error { return nil }

func (r *recordingBackend) Close() error { return nil }

func TestBuildCubeUncreatableOutputRecordsWriteError(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Cube.OutputPath = filepath.Join(t.TempDir(), "no", "such", "dir", "cube.csv")

	rec := &recordingBackend{}
	if _, err := BuildCube(context.Background(), cfg, rec); err == nil {
		t.Fatal("expected error for uncreatable output path")
	}

	var seen bool
	for _, c := range rec.counters {
		if c.name == metrics.StageRunsTotal && c.labels["stage"] == "write" && c.labels["status"] == "error" {
			seen = true
		}
	}
	if !seen {
		t.Fatal("no error outcome recorded for the write stage")
	}
}

func TestLoadWarehouseEndToEnd(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	res, err := LoadWarehouse(context.Background(), cfg, metrics.Noop{})
	if err != nil {
		t.Fatalf("LoadWarehouse: %v", err)
	}
	if res.Stats.SalesLoaded != 2 || res.Stats.CustomersLoaded != 1 || res.Stats.ProductsLoaded != 1 {
		t.Fatalf("stats = %+v", res.Stats)
	}

	// A second run against the same store must succeed and load the same
	// row counts.
	again, err := LoadWarehouse(context.Background(), cfg, metrics.Noop{})
	if err != nil {
		t.Fatalf("second LoadWarehouse: %v", err)
	}
	if again.Stats != res.Stats {
		t.Fatalf("second run stats = %+v, first = %+v", again.Stats, res.Stats)
	}
}
