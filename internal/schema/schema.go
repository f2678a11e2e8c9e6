// Package schema renders live database introspection as plain text for
// inclusion in model prompts.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/sumoql/sumoql/internal/db"
)

// Render enumerates every table visible to the connection and formats each
// with its columns, annotated with primary-key membership, nullability and
// default value. A table whose column metadata cannot be fetched is replaced
// by an inline error marker; the remaining tables still render.
func Render(ctx context.Context, conn db.DB) (string, error) {
	tables, err := conn.Tables(ctx)
	if err != nil {
		return "", fmt.Errorf("list tables: %w", err)
	}
	if len(tables) == 0 {
		return "(No tables found.)", nil
	}

	parts := make([]string, 0, len(tables))
	for _, table := range tables {
		cols, err := conn.Columns(ctx, table)
		if err != nil {
			parts = append(parts, fmt.Sprintf("Table %s: <error reading columns: %v>", table, err))
			continue
		}
		parts = append(parts, tableToText(table, cols))
	}
	return strings.Join(parts, "\n\n"), nil
}

func tableToText(name string, cols []db.Column) string {
	lines := make([]string, 0, len(cols))
	for _, col := range cols {
		var attrs []string
		if col.IsPK {
			attrs = append(attrs, "PK")
		}
		if !col.Nullable {
			attrs = append(attrs, "NOT NULL")
		}
		if col.Default != "" {
			attrs = append(attrs, "DEFAULT "+col.Default)
		}

		line := fmt.Sprintf("  %s %s", col.Name, col.Type)
		if len(attrs) > 0 {
			line += " " + strings.Join(attrs, " ")
		}
		lines = append(lines, line)
	}
	return fmt.Sprintf("Table %s(\n%s\n)", name, strings.Join(lines, ",\n"))
}

// TableCounts returns the row count per table, best effort. Tables that fail
// to count report -1.
func TableCounts(ctx context.Context, conn db.DB) (map[string]int64, error) {
	tables, err := conn.Tables(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(tables))
	for _, table := range tables {
		rows, err := conn.Query(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteIdent(table)))
		if err != nil || len(rows.Data) == 0 || len(rows.Data[0]) == 0 {
			counts[table] = -1
			continue
		}
		counts[table] = toInt64(rows.Data[0][0])
	}
	return counts, nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return -1
	}
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
