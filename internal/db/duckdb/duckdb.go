// Package duckdb is the columnar analytical backend.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2" // register driver

	"github.com/sumoql/sumoql/internal/config"
	"github.com/sumoql/sumoql/internal/db"
)

func init() {
	db.Register(config.DriverDuckDB, func(dsn string) (db.DB, error) { return Open(dsn) })
}

type DuckDB struct {
	db *sql.DB
}

func Open(path string) (*DuckDB, error) {
	sqldb, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)
	return &DuckDB{db: sqldb}, nil
}

func (d *DuckDB) Dialect() string { return "DuckDB" }

func (d *DuckDB) Close() error { return d.db.Close() }

func (d *DuckDB) Tables(ctx context.Context) ([]string, error) {
	names, err := d.tableNames(ctx, `SHOW TABLES`)
	if err != nil {
		// Rarely needed fallback when SHOW is unavailable.
		return d.tableNames(ctx,
			`SELECT table_name FROM information_schema.tables WHERE table_schema = 'main' ORDER BY table_name`)
	}
	return names, nil
}

func (d *DuckDB) tableNames(ctx context.Context, query string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (d *DuckDB) Columns(ctx context.Context, table string) ([]db.Column, error) {
	// PRAGMA table_info returns: cid, name, type, notnull, dflt_value, pk
	q := fmt.Sprintf("PRAGMA table_info(%s);", quoteLiteral(table))
	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []db.Column
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk bool
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, db.Column{
			Name:     name,
			Type:     ctype,
			Nullable: !notnull,
			IsPK:     pk,
			Default:  dflt.String,
		})
	}
	return cols, rows.Err()
}

func (d *DuckDB) Query(ctx context.Context, query string, args ...any) (*db.Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return db.Collect(rows)
}

func (d *DuckDB) Exec(ctx context.Context, query string, args ...any) error {
	_, err := d.db.ExecContext(ctx, query, args...)
	return err
}

func quoteLiteral(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}
