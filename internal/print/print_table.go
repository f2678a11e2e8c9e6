// Package print renders query results as plain-text tables, both for
// terminal display and for the truncated result text embedded in the
// answer-composition prompt.
package print

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sumoql/sumoql/internal/db"
)

type Options struct {
	MaxWidth int // max width for each column, 0 = default
	MaxRows  int // rows rendered before truncation, 0 = no limit
}

// RenderTable writes rows as an ASCII table. When MaxRows cuts the output a
// trailing note reports how many rows were omitted.
func RenderTable(w io.Writer, rows *db.Rows, opts Options) {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 40
	}

	cols := len(rows.Columns)
	if cols == 0 {
		fmt.Fprintln(w, "(no columns)")
		return
	}

	data := rows.Data
	omitted := 0
	if opts.MaxRows > 0 && len(data) > opts.MaxRows {
		omitted = len(data) - opts.MaxRows
		data = data[:opts.MaxRows]
	}

	// compute widths
	widths := make([]int, cols)
	for i, col := range rows.Columns {
		widths[i] = len(col)
	}
	for _, r := range data {
		for i, cell := range r {
			s := formatCell(cell)
			if l := len(s); l > widths[i] {
				if l > opts.MaxWidth {
					l = opts.MaxWidth
				}
				widths[i] = l
			}
		}
	}

	sep := func(ch string) string {
		var b strings.Builder
		b.WriteString("+")
		for i := range widths {
			b.WriteString(strings.Repeat(ch, widths[i]+2))
			b.WriteString("+")
		}
		return b.String()
	}

	writeRow := func(cells []string) {
		var b strings.Builder
		b.WriteString("|")
		for i, c := range cells {
			cut := truncate(c, widths[i])
			b.WriteString(" ")
			b.WriteString(padRight(cut, widths[i]))
			b.WriteString(" |")
		}
		fmt.Fprintln(w, b.String())
	}

	fmt.Fprintln(w, sep("-"))
	writeRow(rows.Columns)
	fmt.Fprintln(w, sep("="))

	for _, r := range data {
		cells := make([]string, cols)
		for i, cell := range r {
			cells[i] = formatCell(cell)
		}
		writeRow(cells)
	}
	fmt.Fprintln(w, sep("-"))

	if omitted > 0 {
		fmt.Fprintf(w, "(%d more rows)\n", omitted)
	}
}

// ResultText renders rows to a string for embedding in a prompt, truncated
// to maxRows.
func ResultText(rows *db.Rows, maxRows int) string {
	var b strings.Builder
	RenderTable(&b, rows, Options{MaxRows: maxRows})
	return b.String()
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	switch t := v.(type) {
	case []byte:
		s := string(t)
		if isPrintable(s) {
			return s
		}
		return fmt.Sprintf("<blob %d bytes>", len(t))
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func isPrintable(s string) bool {
	for _, r := range s {
		if r < 32 && r != '\n' && r != '\t' {
			return false
		}
	}
	return true
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

func truncate(s string, w int) string {
	if len(s) <= w {
		return s
	}
	if w <= 3 {
		return s[:w]
	}
	return s[:w-3] + "..."
}
