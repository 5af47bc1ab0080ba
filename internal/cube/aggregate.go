package cube

import (
	"strconv"
	"strings"

	"salescube/internal/table"
)

// Cube output column names.
const (
	ColAmountSum  = "sale_amount_sum"
	ColAmountMean = "sale_amount_mean"
	ColAmountCnt  = "sale_amount_count"
	ColDaysFirst  = "days_since_join_first"
	ColTimeFirst  = "time_since_join_first"
)

// AggregateOptions controls the grouping key.
type AggregateOptions struct {
	// GroupByAmount keeps the raw sale amount inside the grouping key,
	// matching the historical cube exactly. Because amounts are effectively
	// unique per transaction, most partitions then hold a single row and the
	// aggregates degenerate to that row's own values. This is preserved for
	// output compatibility; set false for the corrected key
	// (category, location, year) only.
	GroupByAmount bool
}

type groupKey struct {
	category string
	location string

	year     int64
	yearNull bool

	amount     float64
	amountNull bool
}

type groupAgg struct {
	key   groupKey
	count int64
	sum   float64

	// Representative tenure values: first row of the partition by original
	// input order. Tenure is per-customer, not per-transaction, so it is
	// sampled, never averaged.
	firstDays any
	firstTime any
}

// Aggregate partitions fact rows by (category, location, year[, sale_amount])
// and emits one cube row per partition with count, sum, mean and the
// first-observed tenure values.
//
// Groups are emitted in first-seen input order, which makes the
// representative selection reproducible; callers that need a display order
// sort afterwards.
//
// Edge cases:
//   - Empty input produces a zero-row cube, not an error.
//   - nil year (unparseable join_date) forms its own partitions, keyed by
//     the null marker; the row is never dropped.
//   - nil sale_amount counts toward the partition count and adds nothing to
//     the sum.
//
// Errors:
//   - *SchemaMismatchError if a grouping or aggregated column is absent.
func Aggregate(facts *table.Table, opt AggregateOptions) (*table.Table, error) {
	required := []string{ColCategory, ColLocation, ColYear, ColSaleAmount, ColDaysSinceJoin, ColTimeSinceJoin}
	ix := make(map[string]int, len(required))
	for _, c := range required {
		i, ok := facts.ColumnIndex(c)
		if !ok {
			return nil, &SchemaMismatchError{Table: "facts", Column: c}
		}
		ix[c] = i
	}

	groups := make(map[groupKey]*groupAgg)
	var order []*groupAgg

	for _, row := range facts.Rows {
		amount, amountOK := toFloat(row[ix[ColSaleAmount]])
		year, yearOK := toInt(row[ix[ColYear]])

		k := groupKey{
			category: asString(row[ix[ColCategory]]),
			location: asString(row[ix[ColLocation]]),
			year:     year,
			yearNull: !yearOK,
		}
		if opt.GroupByAmount {
			k.amount = amount
			k.amountNull = !amountOK
		}

		g := groups[k]
		if g == nil {
			g = &groupAgg{
				key:       k,
				firstDays: row[ix[ColDaysSinceJoin]],
				firstTime: row[ix[ColTimeSinceJoin]],
			}
			groups[k] = g
			order = append(order, g)
		}

		g.count++
		if amountOK {
			g.sum += amount
		}
	}

	cols := []string{ColCategory, ColLocation, ColYear}
	if opt.GroupByAmount {
		cols = append(cols, ColSaleAmount)
	}
	cols = append(cols, ColAmountSum, ColAmountMean, ColAmountCnt, ColDaysFirst, ColTimeFirst)

	out := table.New(cols)
	for _, g := range order {
		row := make([]any, 0, len(cols))
		row = append(row, g.key.category, g.key.location, nullableInt(g.key.year, g.key.yearNull))
		if opt.GroupByAmount {
			row = append(row, nullableFloat(g.key.amount, g.key.amountNull))
		}
		row = append(row,
			g.sum,
			g.sum/float64(g.count),
			g.count,
			g.firstDays,
			g.firstTime,
		)
		out.Rows = append(out.Rows, row)
	}

	return out, nil
}

func nullableInt(v int64, isNull bool) any {
	if isNull {
		return nil
	}
	return v
}

func nullableFloat(v float64, isNull bool) any {
	if isNull {
		return nil
	}
	return v
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return table.NormalizeKey(v)
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), t == float64(int64(t))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
