package mssql

import (
	"strings"
	"testing"

	"salescube/internal/storage"
)

func TestBuildInsertSQL(t *testing.T) {
	t.Parallel()

	stmt, args := buildInsertSQL("sale", []string{"sales_id", "city"}, [][]any{
		{int64(1), "Lyon"},
		{int64(2), "Oslo"},
	})

	want := `INSERT INTO [sale] ([sales_id], [city]) VALUES (@p1, @p2), (@p3, @p4)`
	if stmt != want {
		t.Fatalf("sql = %s, want %s", stmt, want)
	}
	if len(args) != 4 {
		t.Fatalf("got %d args, want 4", len(args))
	}
}

func TestColumnType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"INTEGER", "BIGINT"},
		{"REAL", "FLOAT"},
		{"TEXT", "NVARCHAR(MAX)"},
	}
	for _, tc := range tests {
		if got := columnType(tc.in); got != tc.want {
			t.Fatalf("columnType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildDropSQL(t *testing.T) {
	t.Parallel()

	got := buildDropSQL(storage.TableSpec{Name: "customer"})
	if !strings.Contains(got, "IF OBJECT_ID(N'customer', N'U') IS NOT NULL") ||
		!strings.Contains(got, "DROP TABLE [customer]") {
		t.Fatalf("unexpected drop statement: %s", got)
	}
}

func TestBuildDropSQLEscapesQuotes(t *testing.T) {
	t.Parallel()

	got := buildDropSQL(storage.TableSpec{Name: "we'ird"})
	if !strings.Contains(got, "OBJECT_ID(N'we''ird', N'U')") {
		t.Fatalf("single quote not escaped: %s", got)
	}
}

func TestSQLIdentQuoting(t *testing.T) {
	t.Parallel()

	if got := sqlIdent("we]ird"); got != "[we]]ird]" {
		t.Fatalf("sqlIdent = %s", got)
	}
}
