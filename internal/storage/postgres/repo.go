// Package postgres implements storage.Repository for PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"salescube/internal/storage"
)

type Repo struct {
	pool      *pgxpool.Pool
	batchSize int
}

// maxBindParams keeps a statement under the wire-protocol limit of 65535
// bind parameters with plenty of headroom.
const maxBindParams = 30000

func init() {
	storage.Register("postgres", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 500
	}
	return &Repo{pool: pool, batchSize: batch}, nil
}

func (r *Repo) Close() { r.pool.Close() }

// Rebuild drops and recreates every table, then inserts all rows, in one
// transaction.
func (r *Repo) Rebuild(ctx context.Context, loads []storage.TableLoad) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i := len(loads) - 1; i >= 0; i-- {
		if _, err := tx.Exec(ctx, buildDropSQL(loads[i].Spec)); err != nil {
			return fmt.Errorf("drop table %s: %w", loads[i].Spec.Name, err)
		}
	}

	for _, l := range loads {
		ddl, err := buildCreateSQL(l.Spec)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", l.Spec.Name, err)
		}
	}

	for _, l := range loads {
		if err := insertRows(ctx, tx, l, chunkRows(r.batchSize, len(l.Columns))); err != nil {
			return fmt.Errorf("insert into %s: %w", l.Spec.Name, err)
		}
	}

	return tx.Commit(ctx)
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

// execTx is the slice of pgx.Tx the inserter needs; tests satisfy it with a
// recording fake.
type execTx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertRows(ctx context.Context, tx execTx, l storage.TableLoad, chunk int) error {
	if len(l.Rows) == 0 {
		return nil
	}

	for start := 0; start < len(l.Rows); start += chunk {
		end := start + chunk
		if end > len(l.Rows) {
			end = len(l.Rows)
		}
		rows := l.Rows[start:end]

		sql, args := buildInsertSQL(l.Spec.Name, l.Columns, rows)
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return err
		}
	}
	return nil
}

// buildInsertSQL generates one multi-row INSERT with $n placeholders.
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
			fmt.Fprintf(&b, "$%d", n)
			n++
			args = append(args, row[j])
		}
		b.WriteByte(')')
	}
	return b.String(), args
}

func buildDropSQL(t storage.TableSpec) string {
	return "DROP TABLE IF EXISTS " + sqlIdent(t.Name) + " CASCADE"
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

// columnType maps the portable vocabulary onto PostgreSQL types.
func columnType(portable string) string {
	switch strings.ToUpper(strings.TrimSpace(portable)) {
	case "INTEGER":
		return "BIGINT"
	case "REAL":
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
