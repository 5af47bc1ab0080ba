// Package source reads the raw CSV inputs (sales, customers, products) and
// shapes them for the two consumers: the cube builder and the warehouse
// loader.
package source

import (
	"context"
	"os"
	"strconv"
	"strings"

	"salescube/internal/logging"
	"salescube/internal/parser/csv"
	"salescube/internal/table"
	"salescube/internal/warehouse"
)

// Paths locates the three input files.
type Paths struct {
	Sales     string
	Customers string
	Products  string
}

// Tables is one batch of the three inputs, already shaped for a consumer.
type Tables struct {
	Sales     *table.Table
	Customers *table.Table
	Products  *table.Table
}

// Stats accounts for everything that went wrong while reading a batch.
// None of it is fatal: missing files read as empty tables, malformed
// records are skipped, and unparseable numeric cells become nil.
type Stats struct {
	MissingInputs    []string
	MalformedRecords int
	ParseFailures    int
}

// Cube-shaped column layouts. Only the columns the cube pipeline consumes
// are read; the rest of each file is ignored.
var (
	CubeSalesColumns    = []string{"sale_id", "customer_id", "product_id", "sale_amount", "location"}
	CubeCustomerColumns = []string{"customer_id", "join_date"}
	CubeProductColumns  = []string{"product_id", "category"}
)

// headerAliases bridges the raw file headers (warehouse vocabulary) to the
// cube column names.
var headerAliases = map[string]string{
	"sales_id":     "sale_id",
	"sales_amount": "sale_amount",
	"city":         "location",
}

// LoadCube reads the three inputs shaped for the cube pipeline.
func LoadCube(ctx context.Context, p Paths) (Tables, Stats, error) {
	var (
		out   Tables
		stats Stats
		err   error
	)

	opt := csv.DefaultOptions()
	opt.HeaderMap = headerAliases

	if out.Sales, err = readFile(ctx, p.Sales, CubeSalesColumns, opt, &stats); err != nil {
		return out, stats, err
	}
	if out.Customers, err = readFile(ctx, p.Customers, CubeCustomerColumns, opt, &stats); err != nil {
		return out, stats, err
	}
	if out.Products, err = readFile(ctx, p.Products, CubeProductColumns, opt, &stats); err != nil {
		return out, stats, err
	}

	stats.ParseFailures += coerceColumns(out.Sales, map[string]bool{"sale_amount": true}, nil)

	return out, stats, nil
}

// LoadWarehouse reads the three inputs shaped for the warehouse loader,
// using the full column layouts from the warehouse schema.
func LoadWarehouse(ctx context.Context, p Paths) (Tables, Stats, error) {
	var (
		out   Tables
		stats Stats
		err   error
	)

	opt := csv.DefaultOptions()

	if out.Sales, err = readFile(ctx, p.Sales, warehouse.SaleColumns, opt, &stats); err != nil {
		return out, stats, err
	}
	if out.Customers, err = readFile(ctx, p.Customers, warehouse.CustomerColumns, opt, &stats); err != nil {
		return out, stats, err
	}
	if out.Products, err = readFile(ctx, p.Products, warehouse.ProductColumns, opt, &stats); err != nil {
		return out, stats, err
	}

	stats.ParseFailures += coerceColumns(out.Sales,
		map[string]bool{"sales_amount": true},
		map[string]bool{"sales_id": true, "customer_id": true, "product_id": true, "store_id": true, "campaign_id": true, "number_of_items": true})
	stats.ParseFailures += coerceColumns(out.Customers,
		nil,
		map[string]bool{"customer_id": true, "number_of_purchases": true})
	stats.ParseFailures += coerceColumns(out.Products,
		map[string]bool{"unit_price": true},
		map[string]bool{"product_id": true, "stock_quantity": true})

	return out, stats, nil
}

// readFile opens and parses one CSV input. A file that cannot be opened is
// treated as absent: it logs a warning, lands in stats.MissingInputs, and
// yields an empty table so downstream stages see zero rows instead of an
// error.
func readFile(ctx context.Context, path string, columns []string, opt csv.Options, stats *Stats) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		logging.Logger.Warn().Str("path", path).Err(err).Msg("input unavailable, continuing with empty table")
		stats.MissingInputs = append(stats.MissingInputs, path)
		return table.New(columns), nil
	}

	t, err := csv.ReadTable(ctx, f, columns, opt, func(line int, err error) {
		stats.MalformedRecords++
		logging.Logger.Warn().Str("path", path).Int("line", line).Err(err).Msg("skipping malformed record")
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// coerceColumns converts string cells in the named columns to float64 or
// int64 in place. A cell that does not parse becomes nil; the row stays.
// Returns the number of failed conversions.
func coerceColumns(t *table.Table, floats, ints map[string]bool) int {
	var failures int

	for name := range floats {
		i, ok := t.ColumnIndex(name)
		if !ok {
			continue
		}
		for _, row := range t.Rows {
			v, fail := toFloatCell(row[i])
			row[i] = v
			if fail {
				failures++
			}
		}
	}

	for name := range ints {
		i, ok := t.ColumnIndex(name)
		if !ok {
			continue
		}
		for _, row := range t.Rows {
			v, fail := toIntCell(row[i])
			row[i] = v
			if fail {
				failures++
			}
		}
	}

	return failures
}

func toFloatCell(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case float64:
		return x, false
	case int64:
		return float64(x), false
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, true
		}
		return f, false
	default:
		return nil, true
	}
}

func toIntCell(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case int64:
		return x, false
	case float64:
		if x == float64(int64(x)) {
			return int64(x), false
		}
		return nil, true
	case string:
		s := strings.TrimSpace(x)
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return n, false
		}
		// "7.0" style integers survive a float round trip.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr == nil && f == float64(int64(f)) {
			return int64(f), false
		}
		return nil, true
	default:
		return nil, true
	}
}
