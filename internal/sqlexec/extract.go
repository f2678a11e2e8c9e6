// Package sqlexec turns raw model output into an executable statement:
// extraction of a bare SQL string, the read-only keyword gate, and execution
// against a backend.
package sqlexec

import "strings"

// Extract recovers a best-effort SQL statement from raw model output. It
// trims whitespace, takes the first triple-backtick block when one is
// present (dropping a leading "sql" language tag), and strips trailing
// statement terminators. Garbage in yields garbage out; the gate and the
// engine deal with it downstream.
func Extract(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.Contains(s, "```") {
		parts := strings.Split(s, "```")
		if len(parts) >= 2 {
			s = strings.TrimSpace(parts[1])
			if len(s) >= 3 && strings.EqualFold(s[:3], "sql") {
				s = s[3:]
			}
		}
	}

	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ";")
	return strings.TrimSpace(s)
}

// EnsureSelect reinserts the leading SELECT keyword that completion-style
// SQL models omit, since their prompt already ends with the fragment.
func EnsureSelect(sqlQuery string) string {
	if sqlQuery == "" {
		return sqlQuery
	}
	if strings.HasPrefix(strings.ToUpper(sqlQuery), "SELECT") {
		return sqlQuery
	}
	return "SELECT " + sqlQuery
}
