// Package sqlite is the row-store backend, using the pure Go SQLite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register driver

	"github.com/sumoql/sumoql/internal/config"
	"github.com/sumoql/sumoql/internal/db"
)

func init() {
	db.Register(config.DriverSQLite, func(dsn string) (db.DB, error) { return Open(dsn) })
}

type SqliteDB struct {
	db *sql.DB
}

func Open(path string) (*SqliteDB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single long-lived handle shared across the session.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(5 * time.Minute)

	if _, err := sqldb.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = sqldb.Close()
		return nil, err
	}

	return &SqliteDB{db: sqldb}, nil
}

func (s *SqliteDB) Dialect() string { return "SQLite" }

func (s *SqliteDB) Close() error { return s.db.Close() }

func (s *SqliteDB) Tables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT name
		FROM sqlite_master
		WHERE type IN ('table', 'view')
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY lower(name);
	`

	rows, err := s.db.QueryContext(ctx, q)
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

func (s *SqliteDB) Columns(ctx context.Context, table string) ([]db.Column, error) {
	q := fmt.Sprintf("PRAGMA table_info(%s);", quoteIdent(table))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []db.Column
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, db.Column{
			Name:     name,
			Type:     ctype,
			Nullable: notnull == 0,
			IsPK:     pk > 0,
			Default:  dflt.String,
		})
	}
	return cols, rows.Err()
}

func (s *SqliteDB) Query(ctx context.Context, query string, args ...any) (*db.Rows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return db.Collect(rows)
}

func (s *SqliteDB) Exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
