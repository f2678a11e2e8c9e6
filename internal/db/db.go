// Package db defines the storage abstraction shared by the query pipeline,
// the dataset loader and the HTTP surface. Each backend lives in its own
// subpackage and implements the same logical contract; only the introspection
// queries differ.
package db

import (
	"context"
	"database/sql"
	"time"
)

// Column describes one column of an introspected table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	IsPK     bool
	Default  string
}

type Row []any

// Rows is a fully materialized query result.
type Rows struct {
	Columns []string
	Data    []Row
}

type DB interface {
	// Dialect names the SQL dialect for prompt construction, e.g. "SQLite".
	Dialect() string
	Tables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]Column, error)
	Query(ctx context.Context, query string, args ...any) (*Rows, error)
	// Exec runs a statement that returns no rows. Only the dataset loader
	// uses this path; the question pipeline goes through Query behind the
	// read-only gate.
	Exec(ctx context.Context, query string, args ...any) error
	Close() error
}

// Collect drains sql.Rows into an in-memory Rows, normalizing driver-specific
// values into plain Go types.
func Collect(rows *sql.Rows) (*Rows, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := &Rows{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out.Data = append(out.Data, normalizeRow(values))
	}
	return out, rows.Err()
}

func normalizeRow(values []any) Row {
	row := make(Row, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case nil:
			row[i] = nil
		case []byte:
			row[i] = string(val)
		case time.Time:
			row[i] = val.Format(time.RFC3339Nano)
		default:
			row[i] = val
		}
	}
	return row
}
