package schema

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sumoql/sumoql/internal/db"
)

type fakeDB struct {
	tables  []string
	columns map[string][]db.Column
	counts  map[string]int64
}

func (f *fakeDB) Dialect() string { return "SQLite" }
func (f *fakeDB) Close() error    { return nil }

func (f *fakeDB) Tables(context.Context) ([]string, error) { return f.tables, nil }

func (f *fakeDB) Columns(_ context.Context, table string) ([]db.Column, error) {
	cols, ok := f.columns[table]
	if !ok {
		return nil, errors.New("no such table")
	}
	return cols, nil
}

func (f *fakeDB) Query(_ context.Context, query string, _ ...any) (*db.Rows, error) {
	for table, count := range f.counts {
		if strings.Contains(query, table) {
			return &db.Rows{Columns: []string{"COUNT(*)"}, Data: []db.Row{{count}}}, nil
		}
	}
	return nil, errors.New("no such table")
}

func (f *fakeDB) Exec(context.Context, string, ...any) error { return nil }

func TestRenderAnnotatesColumns(t *testing.T) {
	conn := &fakeDB{
		tables: []string{"bots"},
		columns: map[string][]db.Column{
			"bots": {
				{Name: "bot_id", Type: "INTEGER", IsPK: true},
				{Name: "name", Type: "TEXT", Nullable: true},
				{Name: "language", Type: "TEXT", Nullable: true, Default: "'python'"},
			},
		},
	}

	text, err := Render(context.Background(), conn)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, want := range []string{
		"Table bots(",
		"bot_id INTEGER PK NOT NULL",
		"name TEXT",
		"language TEXT DEFAULT 'python'",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered schema missing %q:\n%s", want, text)
		}
	}
}

func TestRenderKeepsGoingPastBadTable(t *testing.T) {
	conn := &fakeDB{
		tables: []string{"broken", "matches"},
		columns: map[string][]db.Column{
			"matches": {{Name: "match_id", Type: "INTEGER", IsPK: true}},
		},
	}

	text, err := Render(context.Background(), conn)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(text, "Table broken: <error reading columns:") {
		t.Errorf("missing error marker for broken table:\n%s", text)
	}
	if !strings.Contains(text, "Table matches(") {
		t.Errorf("healthy table should still render:\n%s", text)
	}
}

func TestRenderEmptyDatabase(t *testing.T) {
	text, err := Render(context.Background(), &fakeDB{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if text != "(No tables found.)" {
		t.Errorf("Render() = %q", text)
	}
}

func TestTableCounts(t *testing.T) {
	conn := &fakeDB{
		tables: []string{"bots", "ghost"},
		counts: map[string]int64{"bots": 30},
	}
	counts, err := TableCounts(context.Background(), conn)
	if err != nil {
		t.Fatalf("TableCounts() error = %v", err)
	}
	if counts["bots"] != 30 {
		t.Errorf("bots count = %d", counts["bots"])
	}
	if counts["ghost"] != -1 {
		t.Errorf("uncountable table should report -1, got %d", counts["ghost"])
	}
}
