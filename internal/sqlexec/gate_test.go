package sqlexec

import "testing"

func TestIsReadOnlyAccepts(t *testing.T) {
	accepted := []string{
		"SELECT * FROM game_records",
		"select count(*) from bots",
		"  SELECT 1",
		"WITH ranked AS (SELECT 1) SELECT * FROM ranked",
		"with x as (select 1) select * from x",
		"SHOW TABLES",
		"DESCRIBE bots",
		"PRAGMA table_info('bots')",
		"SELECT\n  name\nFROM bots",
	}
	for _, q := range accepted {
		if !IsReadOnly(q) {
			t.Errorf("IsReadOnly(%q) = false, want true", q)
		}
	}
}

func TestIsReadOnlyRejects(t *testing.T) {
	rejected := []string{
		"INSERT INTO bots VALUES (1)",
		"update bots set name = 'x'",
		"DELETE FROM bots",
		"DROP TABLE bots",
		"CREATE TABLE t (id INT)",
		"ALTER TABLE bots ADD COLUMN x INT",
		"",
		"   ",
		"hello there",
	}
	for _, q := range rejected {
		if IsReadOnly(q) {
			t.Errorf("IsReadOnly(%q) = true, want false", q)
		}
	}
}

func TestIsReadOnlyNormalizesWhitespace(t *testing.T) {
	// A newline between keyword and body must not defeat the prefix check.
	if !IsReadOnly("select\n*\nfrom bots") {
		t.Error("multi-line select should be accepted")
	}
	if IsReadOnly("delete\nfrom bots") {
		t.Error("multi-line delete should be rejected")
	}
}
