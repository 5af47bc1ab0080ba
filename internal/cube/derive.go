package cube

import (
	"fmt"
	"math"
	"strings"
	"time"

	"salescube/internal/table"
)

// Derived column names appended to the fact table.
const (
	ColDaysSinceJoin = "days_since_join"
	ColTimeSinceJoin = "time_since_join"
	ColYear          = "year"
)

// DeriveStats reports derived-attribute outcomes for audit logging.
type DeriveStats struct {
	RowsIn        int
	ParseFailures int
}

// Derive computes the tenure attributes for every fact row against a single
// reference instant and returns a new table with three extra columns:
//
//	days_since_join  int64   floor((ref − join_date) in days)
//	time_since_join  string  "<years> year(s) and <months> month(s)"
//	year             int64   calendar year of join_date
//
// The reference instant is captured once per run by the caller, so every row
// in a run shares it. A join date in the future yields a negative
// days_since_join; the value is not clamped.
//
// time_since_join uses a 365-day year and 30-day month with floor division;
// leftover days are dropped. It is a lossy human-readable label, not a
// calendar-correct duration, and must not be used for arithmetic.
//
// year comes from join_date, not the sale date: temporal bucketing follows
// the customer cohort, not transaction time.
//
// Rows whose join_date fails to parse keep nil in all three derived columns
// and are retained; they are never dropped for this reason.
//
// Errors:
//   - *SchemaMismatchError if the fact table has no join_date column
//     (year is a grouping column downstream, so its input is required).
func Derive(facts *table.Table, ref time.Time) (*table.Table, DeriveStats, error) {
	var stats DeriveStats

	jdIx, ok := facts.ColumnIndex(ColJoinDate)
	if !ok {
		return nil, stats, &SchemaMismatchError{Table: "facts", Column: ColJoinDate}
	}

	cols := append(append([]string{}, facts.Columns...), ColDaysSinceJoin, ColTimeSinceJoin, ColYear)
	out := table.New(cols)
	stats.RowsIn = facts.Len()

	for _, frow := range facts.Rows {
		row := make([]any, 0, len(cols))
		row = append(row, frow...)

		jd, err := parseJoinDate(frow[jdIx])
		if err != nil {
			stats.ParseFailures++
			row = append(row, nil, nil, nil)
		} else {
			days := daysBetween(jd, ref)
			row = append(row, days, elapsedLabel(days), int64(jd.Year()))
		}

		out.Rows = append(out.Rows, row)
	}

	return out, stats, nil
}

// daysBetween returns floor((to − from) in days).
func daysBetween(from, to time.Time) int64 {
	return int64(math.Floor(to.Sub(from).Hours() / 24))
}

// elapsedLabel renders the 365/30 integer-division approximation.
// Floor division keeps the label consistent for negative day counts too.
func elapsedLabel(days int64) string {
	years := floorDiv(days, 365)
	months := floorDiv(floorMod(days, 365), 30)
	return fmt.Sprintf("%d year(s) and %d month(s)", years, months)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}

var joinDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// parseJoinDate accepts the date shapes the cleaning stages are known to
// emit. All values are interpreted as UTC.
func parseJoinDate(v any) (time.Time, error) {
	var s string
	switch t := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("join_date is missing")
	case string:
		s = strings.TrimSpace(t)
	case time.Time:
		return t.UTC(), nil
	default:
		s = strings.TrimSpace(fmt.Sprint(t))
	}
	if s == "" {
		return time.Time{}, fmt.Errorf("join_date is empty")
	}
	for _, layout := range joinDateLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported join_date format: %q", s)
}
