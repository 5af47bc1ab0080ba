// Package datagen produces synthetic input CSVs for local runs and demos.
// Generation is deterministic for a given seed.
package datagen

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"salescube/internal/table"
	"salescube/internal/warehouse"
)

// Options sizes one synthetic batch.
type Options struct {
	Seed      uint64
	Customers int
	Products  int
	Sales     int

	// DuplicateRate is the fraction of customer and sale rows that reuse an
	// already-emitted key, to exercise the loader's keep-first dedupe.
	// Products always get unique keys.
	DuplicateRate float64
}

// DefaultOptions returns a small batch suitable for a demo store.
func DefaultOptions() Options {
	return Options{Seed: 1, Customers: 50, Products: 20, Sales: 200, DuplicateRate: 0.02}
}

type Generator struct {
	f   *gofakeit.Faker
	opt Options
}

func New(opt Options) *Generator {
	if opt.Customers <= 0 {
		opt.Customers = 1
	}
	if opt.Products <= 0 {
		opt.Products = 1
	}
	if opt.Sales < 0 {
		opt.Sales = 0
	}
	return &Generator{f: gofakeit.New(opt.Seed), opt: opt}
}

var (
	categories     = []string{"Books", "Electronics", "Clothing", "Home", "Toys", "Grocery"}
	contactPrefs   = []string{"email", "phone", "none"}
	purchaseTypes  = []string{"online", "in_store"}
	regionNames    = []string{"EU", "US", "APAC", "LATAM"}
	joinDatesSince = time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	joinDatesUntil = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	saleDatesSince = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	saleDatesUntil = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
)

// Customers generates the customer input table.
func (g *Generator) Customers() *table.Table {
	t := table.New(warehouse.CustomerColumns)
	for i := 0; i < g.opt.Customers; i++ {
		id := g.maybeDuplicate(i, g.opt.Customers)
		_ = t.Append([]any{
			int64(id + 1),
			g.f.Name(),
			g.f.RandomString(regionNames),
			g.f.DateRange(joinDatesSince, joinDatesUntil).Format("2006-01-02"),
			int64(g.f.IntRange(0, 40)),
			g.f.RandomString(contactPrefs),
		})
	}
	return t
}

// Products generates the product input table. Keys are always unique.
func (g *Generator) Products() *table.Table {
	t := table.New(warehouse.ProductColumns)
	for i := 0; i < g.opt.Products; i++ {
		_ = t.Append([]any{
			int64(i + 1),
			g.f.ProductName(),
			g.f.RandomString(categories),
			round2(g.f.Float64Range(1, 500)),
			int64(g.f.IntRange(0, 1000)),
			g.f.RandomString(purchaseTypes),
		})
	}
	return t
}

// Sales generates the sales input table. Customer and product references
// point into the ranges the other two generators emit.
func (g *Generator) Sales() *table.Table {
	t := table.New(warehouse.SaleColumns)
	for i := 0; i < g.opt.Sales; i++ {
		id := g.maybeDuplicate(i, g.opt.Sales)
		_ = t.Append([]any{
			int64(id + 1),
			g.f.DateRange(saleDatesSince, saleDatesUntil).Format("2006-01-02"),
			int64(g.f.IntRange(1, g.opt.Customers)),
			int64(g.f.IntRange(1, g.opt.Products)),
			int64(g.f.IntRange(1, 25)),
			int64(g.f.IntRange(1, 10)),
			round2(g.f.Float64Range(1, 1000)),
			int64(g.f.IntRange(1, 8)),
			g.f.City(),
		})
	}
	return t
}

// maybeDuplicate returns i, or with DuplicateRate probability an earlier
// index, so the emitted key collides with an already-emitted row.
func (g *Generator) maybeDuplicate(i, total int) int {
	if i == 0 || g.opt.DuplicateRate <= 0 {
		return i
	}
	if g.f.Float64Range(0, 1) < g.opt.DuplicateRate {
		return g.f.IntRange(0, i-1)
	}
	return i
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// WriteCSV writes one generated table to path with a header row.
func WriteCSV(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		_ = f.Close()
		return err
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, cell := range row {
			rec[i] = formatCell(cell)
		}
		if err := w.Write(rec); err != nil {
			_ = f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}
