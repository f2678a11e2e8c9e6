// Package loader ingests the sumobot CSV datasets into a database. Tables
// are replaced wholesale on every run, so reloading the same file is
// idempotent.
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sumoql/sumoql/internal/db"
)

const GameRecordsTable = "game_records"

// insertBatchRows is the number of rows folded into one INSERT statement.
const insertBatchRows = 500

// typeSampleRows caps how many rows feed column type inference.
const typeSampleRows = 1000

// gameRecordIndexes are the secondary indexes attempted after loading the
// flat game log. Index creation is best effort: some backends have partial
// index support, so failures are logged and ignored.
var gameRecordIndexes = map[string]string{
	"idx_game_index":  "GameIndex",
	"idx_game_winner": "GameWinner",
	"idx_actor":       "Actor",
	"idx_action":      "Action",
}

// LoadGameRecords reads a flat game-event CSV into the game_records table.
// The legacy "Name" column is renamed to "Action" for clarity; the table is
// dropped and recreated on every load.
func LoadGameRecords(ctx context.Context, conn db.DB, csvPath string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	header, records, err := readCSV(csvPath)
	if err != nil {
		return 0, err
	}

	for i, name := range header {
		if name == "Name" {
			logger.Info("renaming column for clarity", "from", "Name", "to", "Action")
			header[i] = "Action"
		}
	}

	types := inferColumnTypes(header, records)
	if err := replaceTable(ctx, conn, GameRecordsTable, columnDDL(header, types)); err != nil {
		return 0, err
	}
	if err := insertRows(ctx, conn, GameRecordsTable, header, types, records); err != nil {
		return 0, err
	}

	for name, column := range gameRecordIndexes {
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", name, GameRecordsTable, quoteIdent(column))
		if err := conn.Exec(ctx, stmt); err != nil {
			logger.Warn("skipping index", "index", name, "error", err)
		}
	}

	return len(records), nil
}

// sampleTables holds the normalized schema in creation order. CSV files in
// the sample directory are named after the tables.
var sampleTables = []struct {
	name string
	ddl  string
}{
	{"bots", `(
		bot_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		language TEXT,
		author TEXT,
		created_at TEXT
	)`},
	{"matches", `(
		match_id INTEGER PRIMARY KEY,
		left_bot_id INTEGER NOT NULL REFERENCES bots(bot_id),
		right_bot_id INTEGER NOT NULL REFERENCES bots(bot_id),
		winner_bot_id INTEGER REFERENCES bots(bot_id),
		duration_s REAL
	)`},
	{"rounds", `(
		round_id INTEGER PRIMARY KEY,
		match_id INTEGER NOT NULL REFERENCES matches(match_id),
		round_no INTEGER NOT NULL,
		winner_bot_id INTEGER REFERENCES bots(bot_id)
	)`},
	{"events", `(
		event_id INTEGER PRIMARY KEY,
		round_id INTEGER NOT NULL REFERENCES rounds(round_id),
		seq INTEGER NOT NULL,
		actor TEXT,
		action TEXT,
		x REAL,
		y REAL,
		state TEXT
	)`},
}

// LoadSample reads the normalized bots/matches/rounds/events dataset from a
// directory of CSV files, one per table. Tables are replaced in dependency
// order so foreign keys stay satisfiable.
func LoadSample(ctx context.Context, conn db.DB, dir string, logger *slog.Logger) (map[string]int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Drop in reverse creation order.
	for i := len(sampleTables) - 1; i >= 0; i-- {
		if err := conn.Exec(ctx, "DROP TABLE IF EXISTS "+quoteIdent(sampleTables[i].name)); err != nil {
			return nil, fmt.Errorf("drop %s: %w", sampleTables[i].name, err)
		}
	}

	counts := make(map[string]int, len(sampleTables))
	for _, table := range sampleTables {
		csvPath := fmt.Sprintf("%s/%s.csv", strings.TrimRight(dir, "/"), table.name)
		header, records, err := readCSV(csvPath)
		if err != nil {
			return nil, err
		}

		if err := conn.Exec(ctx, fmt.Sprintf("CREATE TABLE %s %s", quoteIdent(table.name), table.ddl)); err != nil {
			return nil, fmt.Errorf("create %s: %w", table.name, err)
		}

		types := inferColumnTypes(header, records)
		if err := insertRows(ctx, conn, table.name, header, types, records); err != nil {
			return nil, err
		}

		counts[table.name] = len(records)
		logger.Info("loaded table", "table", table.name, "rows", len(records))
	}
	return counts, nil
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("%s is empty", path)
	}
	return all[0], all[1:], nil
}

// inferColumnTypes picks INTEGER, REAL or TEXT per column from a sample of
// the data. Empty cells are ignored; a column with no usable values stays
// TEXT.
func inferColumnTypes(header []string, records [][]string) []string {
	types := make([]string, len(header))
	for col := range header {
		allInt, allReal, seen := true, true, false
		for row := 0; row < len(records) && row < typeSampleRows; row++ {
			if col >= len(records[row]) {
				continue
			}
			v := strings.TrimSpace(records[row][col])
			if v == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				allInt = false
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				allReal = false
			}
		}
		switch {
		case seen && allInt:
			types[col] = "INTEGER"
		case seen && allReal:
			types[col] = "REAL"
		default:
			types[col] = "TEXT"
		}
	}
	return types
}

func columnDDL(header, types []string) string {
	cols := make([]string, len(header))
	for i := range header {
		cols[i] = fmt.Sprintf("%s %s", quoteIdent(header[i]), types[i])
	}
	return "(" + strings.Join(cols, ", ") + ")"
}

func replaceTable(ctx context.Context, conn db.DB, table, ddl string) error {
	if err := conn.Exec(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("drop %s: %w", table, err)
	}
	if err := conn.Exec(ctx, fmt.Sprintf("CREATE TABLE %s %s", quoteIdent(table), ddl)); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	return nil
}

// insertRows writes records in multi-row INSERT batches. Values are rendered
// as SQL literals so the same statements work on every backend.
func insertRows(ctx context.Context, conn db.DB, table string, header, types []string, records [][]string) error {
	quoted := make([]string, len(header))
	for i, name := range header {
		quoted[i] = quoteIdent(name)
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", quoteIdent(table), strings.Join(quoted, ", "))

	for start := 0; start < len(records); start += insertBatchRows {
		end := start + insertBatchRows
		if end > len(records) {
			end = len(records)
		}

		tuples := make([]string, 0, end-start)
		for _, record := range records[start:end] {
			values := make([]string, len(header))
			for i := range header {
				if i < len(record) {
					values[i] = literal(record[i], types[i])
				} else {
					values[i] = "NULL"
				}
			}
			tuples = append(tuples, "("+strings.Join(values, ", ")+")")
		}

		if err := conn.Exec(ctx, prefix+strings.Join(tuples, ", ")); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	return nil
}

func literal(value, colType string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return "NULL"
	}
	switch colType {
	case "INTEGER":
		if _, err := strconv.ParseInt(v, 10, 64); err == nil {
			return v
		}
	case "REAL":
		// NaN and Inf parse but are not valid SQL literals everywhere;
		// quote them so one odd cell cannot fail a whole batch.
		if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return v
		}
	}
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
