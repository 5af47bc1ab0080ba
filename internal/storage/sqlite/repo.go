// Package sqlite implements storage.Repository for SQLite via
// modernc.org/sqlite (no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"salescube/internal/storage"
)

// Repo implements storage.Repository for SQLite.
//
// Key design points:
//   - DDL is transactional in SQLite, so drop+create+insert all ride one
//     transaction and a failed run leaves the previous store untouched.
//   - Inserts are chunked multi-row VALUES statements; the chunk size is
//     clamped so a statement never exceeds the bind-parameter budget.
type Repo struct {
	db        *sql.DB
	batchSize int
}

// maxBindParams stays well under SQLITE_MAX_VARIABLE_NUMBER for old builds
// that still default to 999.
const maxBindParams = 900

func init() {
	storage.Register("sqlite", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	// The store is exclusively owned by a single loader run.
	db.SetMaxOpenConns(1)
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

	// Drop in reverse order so referencing tables go before referenced ones.
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

// chunkRows bounds rows per statement by both the configured batch size and
// the bind-parameter budget.
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

	colList := make([]string, 0, len(l.Columns))
	for _, c := range l.Columns {
		colList = append(colList, sqlIdent(c))
	}
	placeholders := "(" + strings.TrimRight(strings.Repeat("?,", len(l.Columns)), ",") + ")"
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", sqlIdent(l.Spec.Name), strings.Join(colList, ", "))

	for start := 0; start < len(l.Rows); start += chunk {
		end := start + chunk
		if end > len(l.Rows) {
			end = len(l.Rows)
		}
		rows := l.Rows[start:end]

		var b strings.Builder
		b.WriteString(prefix)
		args := make([]any, 0, len(rows)*len(l.Columns))
		for i, row := range rows {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(placeholders)
			args = append(args, row...)
		}

		if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
			return err
		}
	}
	return nil
}

func buildDropSQL(t storage.TableSpec) string {
	return "DROP TABLE IF EXISTS " + sqlIdent(t.Name)
}

// buildCreateSQL generates CREATE TABLE DDL for one table spec.
//
// "INTEGER PRIMARY KEY" is special in sqlite: the column becomes the rowid
// and uniqueness is enforced natively, which is exactly what the loader's
// uniqueness contract needs.
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
		// REFERENCES is declarative here: foreign_keys stays at sqlite's
		// default (off), so loads tolerate dangling references.
		if c.References != "" {
			col += " REFERENCES " + c.References
		}
		parts = append(parts, col)
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", sqlIdent(t.Name), strings.Join(parts, ",\n  ")), nil
}

// columnType passes the portable vocabulary through; SQLite's type affinity
// handles INTEGER/REAL/TEXT natively.
func columnType(portable string) string {
	return strings.ToUpper(strings.TrimSpace(portable))
}

func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
