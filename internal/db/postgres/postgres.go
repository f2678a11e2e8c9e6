// Package postgres backs sumoql with a PostgreSQL database. Introspection
// goes through information_schema; everything else shares the common
// database/sql path.
package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq" // register driver

	"github.com/sumoql/sumoql/internal/config"
	"github.com/sumoql/sumoql/internal/db"
)

func init() {
	db.Register(config.DriverPostgres, func(dsn string) (db.DB, error) { return Open(dsn) })
}

type PostgresDB struct {
	db *sql.DB
}

func Open(dsn string) (*PostgresDB, error) {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	sqldb.SetConnMaxLifetime(30 * time.Minute)
	if err := sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return &PostgresDB{db: sqldb}, nil
}

func (p *PostgresDB) Dialect() string { return "PostgreSQL" }

func (p *PostgresDB) Close() error { return p.db.Close() }

func (p *PostgresDB) Tables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := p.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (p *PostgresDB) Columns(ctx context.Context, table string) ([]db.Column, error) {
	const q = `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES' AS nullable,
			COALESCE(c.column_default, '') AS column_default
		FROM information_schema.columns c
		WHERE c.table_schema = 'public'
		  AND c.table_name = $1
		ORDER BY c.ordinal_position`

	rows, err := p.db.QueryContext(ctx, q, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []db.Column
	for rows.Next() {
		var col db.Column
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &col.Default); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pks, err := p.primaryKeys(ctx, table)
	if err != nil {
		return nil, err
	}
	for i := range cols {
		if pks[cols[i].Name] {
			cols[i].IsPK = true
		}
	}
	return cols, nil
}

func (p *PostgresDB) primaryKeys(ctx context.Context, table string) (map[string]bool, error) {
	const q = `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = 'public'
		  AND tc.table_name = $1
		ORDER BY kcu.ordinal_position`

	rows, err := p.db.QueryContext(ctx, q, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pks := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		pks[name] = true
	}
	return pks, rows.Err()
}

func (p *PostgresDB) Query(ctx context.Context, query string, args ...any) (*db.Rows, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return db.Collect(rows)
}

func (p *PostgresDB) Exec(ctx context.Context, query string, args ...any) error {
	_, err := p.db.ExecContext(ctx, query, args...)
	return err
}
