package postgres

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"salescube/internal/storage"
)

func TestBuildInsertSQL(t *testing.T) {
	t.Parallel()

	sql, args := buildInsertSQL("customer", []string{"customer_id", "name"}, [][]any{
		{int64(1), "Ada"},
		{int64(2), "Grace"},
	})

	want := `INSERT INTO "customer" ("customer_id", "name") VALUES ($1, $2), ($3, $4)`
	if sql != want {
		t.Fatalf("sql = %s, want %s", sql, want)
	}
	if len(args) != 4 {
		t.Fatalf("got %d args, want 4", len(args))
	}
	if args[0] != int64(1) || args[3] != "Grace" {
		t.Fatalf("args out of order: %v", args)
	}
}

func TestColumnType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"INTEGER", "BIGINT"},
		{"real", "DOUBLE PRECISION"},
		{"TEXT", "TEXT"},
		{"anything else", "TEXT"},
	}
	for _, tc := range tests {
		if got := columnType(tc.in); got != tc.want {
			t.Fatalf("columnType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildCreateSQL(t *testing.T) {
	t.Parallel()

	spec := storage.TableSpec{
		Name:       "product",
		PrimaryKey: &storage.PrimaryKeySpec{Name: "product_id", Type: "INTEGER"},
		Columns: []storage.ColumnSpec{
			{Name: "category", Type: "TEXT"},
			{Name: "unit_price", Type: "REAL"},
		},
	}

	got, err := buildCreateSQL(spec)
	if err != nil {
		t.Fatalf("buildCreateSQL: %v", err)
	}
	for _, want := range []string{
		`CREATE TABLE "product"`,
		`"product_id" BIGINT PRIMARY KEY`,
		`"category" TEXT`,
		`"unit_price" DOUBLE PRECISION`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("DDL missing %q:\n%s", want, got)
		}
	}
}

type fakeTx struct {
	statements []string
	argCounts  []int
}

func (f *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.statements = append(f.statements, sql)
	f.argCounts = append(f.argCounts, len(args))
	return pgconn.CommandTag{}, nil
}

func TestInsertRowsChunks(t *testing.T) {
	t.Parallel()

	load := storage.TableLoad{
		Spec:    storage.TableSpec{Name: "sale"},
		Columns: []string{"sales_id", "sales_amount"},
		Rows: [][]any{
			{int64(1), 10.0},
			{int64(2), 20.0},
			{int64(3), 30.0},
		},
	}

	tx := &fakeTx{}
	if err := insertRows(context.Background(), tx, load, 2); err != nil {
		t.Fatalf("insertRows: %v", err)
	}
	if len(tx.statements) != 2 {
		t.Fatalf("got %d statements, want 2", len(tx.statements))
	}
	if tx.argCounts[0] != 4 || tx.argCounts[1] != 2 {
		t.Fatalf("arg counts = %v, want [4 2]", tx.argCounts)
	}
}
