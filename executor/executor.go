// Package executor is the thin boundary between compiled SQL text and
// a live DuckDB connection. It covers the three operations a compiled
// Cypher pipeline needs: registering a CSV-backed table, registering a
// stage's result for the next stage to reference, and running a
// SELECT.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
)

// Database is the abstraction the compiler package drives. A stage's
// compiled SELECT is handed to RegisterResult (if another stage
// follows, so it can be addressed as an implicit table) or to Query
// (for the final stage, whose rows the caller actually wants).
type Database interface {
	RegisterCSV(ctx context.Context, name, path string) error
	RegisterResult(ctx context.Context, name, selectSQL string) error
	Query(ctx context.Context, selectSQL string) (*sql.Rows, error)
	DB() *sql.DB
	Close() error
}

// DuckDB is the Database implementation backed by a real embedded
// DuckDB connection (github.com/marcboeker/go-duckdb), the single
// engine this compiler targets.
type DuckDB struct {
	db *sql.DB
}

// Open returns a DuckDB backed by path, or an in-memory database when
// path is empty.
func Open(path string) (*DuckDB, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}
	return &DuckDB{db: db}, nil
}

func (d *DuckDB) DB() *sql.DB { return d.db }

func (d *DuckDB) Close() error { return d.db.Close() }

// RegisterCSV exposes a CSV file as a view named name, letting the
// emitter's FROM clause address it as an ordinary table.
func (d *DuckDB) RegisterCSV(ctx context.Context, name, path string) error {
	stmt := fmt.Sprintf(`CREATE OR REPLACE VIEW %s AS SELECT * FROM read_csv_auto(%s)`,
		quoteIdent(name), quoteLiteral(path))
	_, err := d.db.ExecContext(ctx, stmt)
	return err
}

// RegisterResult registers a compiled stage's SELECT as a view under
// name, so the following stage can reference its carried aliases
// through a scalar subselect. The view is not materialized: its
// SELECT is evaluated each time it is referenced.
func (d *DuckDB) RegisterResult(ctx context.Context, name, selectSQL string) error {
	stmt := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS %s", quoteIdent(name), selectSQL)
	_, err := d.db.ExecContext(ctx, stmt)
	return err
}

// Query runs the final stage's SELECT and returns its rows.
func (d *DuckDB) Query(ctx context.Context, selectSQL string) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, selectSQL)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
