package loader

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/sumoql/sumoql/internal/db/sqlite"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func openTestDB(t *testing.T) *sqlite.SqliteDB {
	t.Helper()
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

const gameCSV = `GameIndex,GameWinner,Actor,Name,X,Y
1,Bot_01,Bot_01,forward,0.5,1.0
1,Bot_01,Bot_02,turn_left,-0.25,2
2,Bot_02,Bot_02,push,1.5,0
`

func TestLoadGameRecordsRenamesNameColumn(t *testing.T) {
	conn := openTestDB(t)
	path := filepath.Join(t.TempDir(), "game.csv")
	writeFile(t, path, gameCSV)

	n, err := LoadGameRecords(context.Background(), conn, path, discard)
	if err != nil {
		t.Fatalf("LoadGameRecords() error = %v", err)
	}
	if n != 3 {
		t.Errorf("rows loaded = %d, want 3", n)
	}

	cols, err := conn.Columns(context.Background(), GameRecordsTable)
	if err != nil {
		t.Fatalf("Columns() error = %v", err)
	}
	names := map[string]string{}
	for _, c := range cols {
		names[c.Name] = c.Type
	}
	if _, ok := names["Name"]; ok {
		t.Error("Name column should have been renamed to Action")
	}
	if typ := names["Action"]; typ != "TEXT" {
		t.Errorf("Action type = %q, want TEXT", typ)
	}
	if typ := names["GameIndex"]; typ != "INTEGER" {
		t.Errorf("GameIndex type = %q, want INTEGER", typ)
	}
	if typ := names["X"]; typ != "REAL" {
		t.Errorf("X type = %q, want REAL", typ)
	}
}

func TestLoadGameRecordsIsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	path := filepath.Join(t.TempDir(), "game.csv")
	writeFile(t, path, gameCSV)

	ctx := context.Background()
	if _, err := LoadGameRecords(ctx, conn, path, discard); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if _, err := LoadGameRecords(ctx, conn, path, discard); err != nil {
		t.Fatalf("second load: %v", err)
	}

	rows, err := conn.Query(ctx, "SELECT COUNT(*) FROM game_records")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got := rows.Data[0][0]; got != int64(3) {
		t.Errorf("row count after reload = %v, want 3", got)
	}
}

func TestLoadSample(t *testing.T) {
	conn := openTestDB(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bots.csv"),
		"bot_id,name,language,author,created_at\n1,Bot_01,go,ana,2026-01-01\n2,Bot_02,python,bo,2026-01-02\n")
	writeFile(t, filepath.Join(dir, "matches.csv"),
		"match_id,left_bot_id,right_bot_id,winner_bot_id,duration_s\n1,1,2,1,12.5\n")
	writeFile(t, filepath.Join(dir, "rounds.csv"),
		"round_id,match_id,round_no,winner_bot_id\n1,1,1,1\n2,1,2,\n")
	writeFile(t, filepath.Join(dir, "events.csv"),
		"event_id,round_id,seq,actor,action,x,y,state\n1,1,1,Bot_01,forward,0.1,0.2,ok\n")

	counts, err := LoadSample(context.Background(), conn, dir, discard)
	if err != nil {
		t.Fatalf("LoadSample() error = %v", err)
	}
	want := map[string]int{"bots": 2, "matches": 1, "rounds": 2, "events": 1}
	for table, n := range want {
		if counts[table] != n {
			t.Errorf("counts[%s] = %d, want %d", table, counts[table], n)
		}
	}

	rows, err := conn.Query(context.Background(),
		"SELECT winner_bot_id FROM rounds WHERE round_id = 2")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if rows.Data[0][0] != nil {
		t.Errorf("empty CSV cell should load as NULL, got %v", rows.Data[0][0])
	}
}

func TestLoadSampleMissingFile(t *testing.T) {
	conn := openTestDB(t)
	if _, err := LoadSample(context.Background(), conn, t.TempDir(), discard); err == nil {
		t.Fatal("LoadSample() should fail when a table CSV is missing")
	}
}

func TestLiteralQuotesNonFiniteFloats(t *testing.T) {
	for _, v := range []string{"NaN", "Inf", "-Inf", "+inf"} {
		want := "'" + v + "'"
		if got := literal(v, "REAL"); got != want {
			t.Errorf("literal(%q, REAL) = %s, want %s", v, got, want)
		}
	}
	if got := literal("1.5", "REAL"); got != "1.5" {
		t.Errorf("literal(1.5, REAL) = %s", got)
	}
}

func TestLoadGameRecordsToleratesNonFiniteValues(t *testing.T) {
	conn := openTestDB(t)
	path := filepath.Join(t.TempDir(), "game.csv")
	writeFile(t, path, "GameIndex,Actor,X\n1,Bot_01,NaN\n2,Bot_02,0.5\n")

	n, err := LoadGameRecords(context.Background(), conn, path, discard)
	if err != nil {
		t.Fatalf("LoadGameRecords() error = %v", err)
	}
	if n != 2 {
		t.Errorf("rows loaded = %d, want 2", n)
	}
}

func TestInferColumnTypes(t *testing.T) {
	header := []string{"a", "b", "c", "d"}
	records := [][]string{
		{"1", "1.5", "x", ""},
		{"2", "3", "7", ""},
	}
	got := inferColumnTypes(header, records)
	want := []string{"INTEGER", "REAL", "TEXT", "TEXT"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("type[%s] = %s, want %s", header[i], got[i], want[i])
		}
	}
}
