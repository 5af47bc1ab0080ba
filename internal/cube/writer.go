package cube

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"salescube/internal/table"
)

// WriteCSV writes the cube as CSV with a header row.
//
// Row order is not a correctness property of the cube, but the file is a
// human-facing artifact, so rows are sorted by (category, location, year)
// with a locale-aware collator before writing. The input table is not
// mutated.
func WriteCSV(w io.Writer, cube *table.Table) error {
	catIx, catOK := cube.ColumnIndex(ColCategory)
	locIx, locOK := cube.ColumnIndex(ColLocation)
	yearIx, yearOK := cube.ColumnIndex(ColYear)
	switch {
	case !catOK:
		return &SchemaMismatchError{Table: "cube", Column: ColCategory}
	case !locOK:
		return &SchemaMismatchError{Table: "cube", Column: ColLocation}
	case !yearOK:
		return &SchemaMismatchError{Table: "cube", Column: ColYear}
	}

	rows := append([][]any(nil), cube.Rows...)

	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(rows, func(i, j int) bool {
		if c := col.CompareString(asString(rows[i][catIx]), asString(rows[j][catIx])); c != 0 {
			return c < 0
		}
		if c := col.CompareString(asString(rows[i][locIx]), asString(rows[j][locIx])); c != 0 {
			return c < 0
		}
		yi, iOK := toInt(rows[i][yearIx])
		yj, jOK := toInt(rows[j][yearIx])
		if iOK != jOK {
			return !iOK // null years first
		}
		return yi < yj
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(cube.Columns); err != nil {
		return fmt.Errorf("write cube header: %w", err)
	}

	rec := make([]string, len(cube.Columns))
	for _, row := range rows {
		for i, v := range row {
			rec[i] = formatCell(v)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write cube row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// formatCell renders a cube cell for CSV. nil (the documented parse-failure
// sentinel) renders as an empty field.
func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
