// Package mssql implements storage.Repository for SQL Server via
// github.com/microsoft/go-mssqldb.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"salescube/internal/storage"
)

type Repo struct {
	db        *sql.DB
	batchSize int
}

// SQL Server caps a statement at 2100 bind parameters.
const maxBindParams = 2000

func init() {
	storage.Register("mssql", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 500
	}
	return &Repo{db: db, batchSize: batch}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

// Rebuild drops and recreates every table, then inserts all rows, in one
// transaction.
func (r *Repo) Rebuild(ctx context.Context, loads []storage.TableLoad) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for i := len(loads) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, buildDropSQL(loads[i].Spec)); err != nil {
			return fmt.Errorf("drop table %s: %w", loads[i].Spec.Name, err)
		}
	}

	for _, l := range loads {
		ddl, err := buildCreateSQL(l.Spec)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", l.Spec.Name, err)
		}
	}

	for _, l := range loads {
		if err := insertRows(ctx, tx, l, chunkRows(r.batchSize, len(l.Columns))); err != nil {
			return fmt.Errorf("insert into %s: %w", l.Spec.Name, err)
		}
	}

	return tx.Commit()
}

func chunkRows(batchSize, columns int) int {
	if columns <= 0 {
		return batchSize
	}
	byParams := maxBindParams / columns
	if byParams < 1 {
		byParams = 1
	}
	if batchSize < byParams {
		return batchSize
	}
	return byParams
}

func insertRows(ctx context.Context, tx *sql.Tx, l storage.TableLoad, chunk int) error {
	if len(l.Rows) == 0 {
		return nil
	}

	for start := 0; start < len(l.Rows); start += chunk {
		end := start + chunk
		if end > len(l.Rows) {
			end = len(l.Rows)
		}
		rows := l.Rows[start:end]

		stmt, args := buildInsertSQL(l.Spec.Name, l.Columns, rows)
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return err
		}
	}
	return nil
}

// buildInsertSQL generates one multi-row INSERT with @pN placeholders, the
// positional form the sqlserver driver expects.
func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	colList := make([]string, 0, len(columns))
	for _, c := range columns {
		colList = append(colList, sqlIdent(c))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", sqlIdent(table), strings.Join(colList, ", "))

	args := make([]any, 0, len(rows)*len(columns))
	n := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "@p%d", n)
			n++
			args = append(args, row[j])
		}
		b.WriteByte(')')
	}
	return b.String(), args
}

func buildDropSQL(t storage.TableSpec) string {
	name := strings.ReplaceAll(t.Name, "'", "''")
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s", name, sqlIdent(t.Name))
}

func buildCreateSQL(t storage.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("table name is empty")
	}

	var parts []string

	if t.PrimaryKey != nil {
		parts = append(parts, fmt.Sprintf("%s %s PRIMARY KEY", sqlIdent(t.PrimaryKey.Name), columnType(t.PrimaryKey.Type)))
	}

	for _, c := range t.Columns {
		col := fmt.Sprintf("%s %s", sqlIdent(c.Name), columnType(c.Type))
		if c.References != "" {
			col += " REFERENCES " + c.References
		}
		parts = append(parts, col)
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", sqlIdent(t.Name), strings.Join(parts, ",\n  ")), nil
}

// columnType maps the portable vocabulary onto SQL Server types.
func columnType(portable string) string {
	switch strings.ToUpper(strings.TrimSpace(portable)) {
	case "INTEGER":
		return "BIGINT"
	case "REAL":
		return "FLOAT"
	default:
		return "NVARCHAR(MAX)"
	}
}

func sqlIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
