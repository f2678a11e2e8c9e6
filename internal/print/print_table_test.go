package print

import (
	"strings"
	"testing"

	"github.com/sumoql/sumoql/internal/db"
)

func sampleRows() *db.Rows {
	return &db.Rows{
		Columns: []string{"bot_id", "name", "duration_s"},
		Data: []db.Row{
			{int64(1), "Bot_01", float64(12.5)},
			{int64(2), "Bot_02", nil},
		},
	}
}

func TestRenderTable(t *testing.T) {
	var b strings.Builder
	RenderTable(&b, sampleRows(), Options{})
	out := b.String()

	for _, want := range []string{"bot_id", "Bot_01", "12.5", "NULL"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.HasPrefix(out, "+") {
		t.Errorf("output should start with a border:\n%s", out)
	}
}

func TestRenderTableNoColumns(t *testing.T) {
	var b strings.Builder
	RenderTable(&b, &db.Rows{}, Options{})
	if !strings.Contains(b.String(), "(no columns)") {
		t.Errorf("output = %q", b.String())
	}
}

func TestResultTextTruncates(t *testing.T) {
	rows := &db.Rows{Columns: []string{"n"}}
	for i := 0; i < 120; i++ {
		rows.Data = append(rows.Data, db.Row{int64(i)})
	}

	out := ResultText(rows, 50)
	if !strings.Contains(out, "(70 more rows)") {
		t.Errorf("expected truncation note, got:\n%s", out)
	}
	if strings.Contains(out, "| 51 ") {
		t.Errorf("row beyond the limit was rendered:\n%s", out)
	}
}

func TestFormatCellBlob(t *testing.T) {
	if got := formatCell([]byte{0x00, 0x01}); got != "<blob 2 bytes>" {
		t.Errorf("formatCell() = %q", got)
	}
	if got := formatCell([]byte("plain")); got != "plain" {
		t.Errorf("formatCell() = %q", got)
	}
}
