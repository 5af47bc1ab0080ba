package csv

import (
	"context"
	"io"
	"strings"
	"testing"
)

func rc(s string) io.ReadCloser { return io.NopCloser(strings.NewReader(s)) }

func TestReadTable_HeaderNormalizationAndBOM(t *testing.T) {
	t.Parallel()

	in := "\ufeffSale ID,Customer ID,sale_amount\n1,10,42.50\n"
	tb, err := ReadTable(context.Background(), rc(in), []string{"sale_id", "customer_id", "sale_amount"}, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if tb.Len() != 1 {
		t.Fatalf("rows=%d want 1", tb.Len())
	}
	if got := tb.Value(0, "sale_id"); got != "1" {
		t.Fatalf("sale_id=%v want \"1\"", got)
	}
	if got := tb.Value(0, "sale_amount"); got != "42.50" {
		t.Fatalf("sale_amount=%v", got)
	}
}

func TestReadTable_MissingColumnYieldsNilCells(t *testing.T) {
	t.Parallel()

	in := "customer_id\n10\n11\n"
	tb, err := ReadTable(context.Background(), rc(in), []string{"customer_id", "join_date"}, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	for i := 0; i < tb.Len(); i++ {
		if tb.Value(i, "join_date") != nil {
			t.Fatalf("row %d: join_date should be nil", i)
		}
	}
}

func TestReadTable_EmptyCellsBecomeNilAndTrim(t *testing.T) {
	t.Parallel()

	in := "a,b\n x ,\n"
	tb, err := ReadTable(context.Background(), rc(in), []string{"a", "b"}, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if got := tb.Value(0, "a"); got != "x" {
		t.Fatalf("a=%v want trimmed \"x\"", got)
	}
	if tb.Value(0, "b") != nil {
		t.Fatalf("empty cell should be nil")
	}
}

func TestReadTable_HeaderMapWins(t *testing.T) {
	t.Parallel()

	opt := DefaultOptions()
	opt.HeaderMap = map[string]string{"Kunde": "customer_id"}

	in := "Kunde\n10\n"
	tb, err := ReadTable(context.Background(), rc(in), []string{"customer_id"}, opt, nil)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if got := tb.Value(0, "customer_id"); got != "10" {
		t.Fatalf("customer_id=%v", got)
	}
}

func TestReadTable_MalformedRecordReportedAndSkipped(t *testing.T) {
	t.Parallel()

	// Bare quote inside an unquoted field fails without LazyQuotes.
	in := "a\nok\n\"bad\nalso_ok\n"
	var badLines []int
	tb, err := ReadTable(context.Background(), rc(in), []string{"a"}, DefaultOptions(), func(line int, err error) {
		badLines = append(badLines, line)
	})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(badLines) == 0 {
		t.Fatalf("expected onErr for malformed record")
	}
	if tb.Len() == 0 {
		t.Fatalf("expected surviving rows")
	}
}

func TestReadTable_EmptyInput(t *testing.T) {
	t.Parallel()

	tb, err := ReadTable(context.Background(), rc(""), []string{"a"}, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if tb.Len() != 0 {
		t.Fatalf("rows=%d want 0", tb.Len())
	}
}
