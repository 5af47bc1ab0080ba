// Package csv reads cleaned CSV sources into in-memory tables.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"salescube/internal/table"
)

// Options controls CSV reading behavior.
type Options struct {
	// HasHeader indicates the first record is a header row. Default true
	// (zero value is interpreted by DefaultOptions, not here).
	HasHeader bool

	// Comma is the field separator. Zero means ','.
	Comma rune

	// TrimSpace trims edge whitespace from every cell.
	TrimSpace bool

	// HeaderMap maps source header names to canonical column names. It is
	// consulted twice: first with the raw trimmed header, then with its
	// lower/underscore normalization.
	HeaderMap map[string]string

	// LazyQuotes is passed through to encoding/csv.
	LazyQuotes bool
}

// DefaultOptions returns the options used for cleaned pipeline inputs.
func DefaultOptions() Options {
	return Options{HasHeader: true, Comma: ',', TrimSpace: true}
}

// ReadTable reads CSV from src into a table aligned to the target 'columns'
// order.
//
// Header handling:
//   - A UTF-8 BOM on the first header cell is stripped.
//   - Headers are trimmed, lowercased, and spaces become underscores.
//     HeaderMap entries override this, matching either the raw or the
//     normalized header.
//   - Target columns absent from the source produce nil cells for every row;
//     presence checks belong to the consuming stage, which knows which columns
//     it cannot live without.
//
// Row handling:
//   - Empty cells become nil.
//   - Malformed records are reported through onErr with their 1-based line
//     number and skipped; the read continues. onErr may be nil.
func ReadTable(
	ctx context.Context,
	src io.ReadCloser,
	columns []string,
	opt Options,
	onErr func(line int, err error),
) (*table.Table, error) {
	defer src.Close()

	comma := opt.Comma
	if comma == 0 {
		comma = ','
	}

	cr := csv.NewReader(src)
	cr.Comma = comma
	cr.ReuseRecord = true
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1

	colIx := make([]int, len(columns))
	for i := range colIx {
		colIx[i] = -1
	}

	var line int
	readRec := func() ([]string, error) {
		line++
		return cr.Read()
	}

	if opt.HasHeader {
		hdr, err := readRec()
		if err != nil {
			if err == io.EOF {
				return table.New(columns), nil
			}
			return nil, fmt.Errorf("read header: %w", err)
		}
		srcToIdx := make(map[string]int, len(hdr))
		for i, h := range hdr {
			h = strings.TrimSpace(h)
			if i == 0 {
				h = strings.TrimPrefix(h, "\ufeff")
			}
			if mapped, ok := opt.HeaderMap[h]; ok {
				h = mapped
			} else {
				h = strings.ReplaceAll(strings.ToLower(h), " ", "_")
				if mapped, ok := opt.HeaderMap[h]; ok {
					h = mapped
				}
			}
			srcToIdx[h] = i
		}
		for t, target := range columns {
			if si, ok := srcToIdx[target]; ok {
				colIx[t] = si
			}
		}
	} else {
		for i := range columns {
			colIx[i] = i
		}
	}

	out := table.New(columns)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := readRec()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			if onErr != nil {
				onErr(line, fmt.Errorf("csv read: %w", err))
			}
			continue
		}

		row := make([]any, len(columns))
		for t := range columns {
			si := colIx[t]
			if si < 0 || si >= len(rec) {
				continue
			}
			v := rec[si]
			if opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			if v != "" {
				row[t] = v
			}
		}
		out.Rows = append(out.Rows, row)
	}
}
