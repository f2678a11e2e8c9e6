package sqlexec

import (
	"regexp"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// allow-list of statement prefixes considered read-only
var readOnlyPrefixes = []string{
	"with ",
	"select ",
	"show ",
	"describe ",
	"pragma ",
}

// IsReadOnly reports whether a candidate statement starts with an
// allow-listed read-only keyword. Internal whitespace is collapsed first so
// a keyword split across lines cannot slip past the prefix check. This is a
// coarse guard against accidental data-mutating statements, not a parser and
// not a security boundary.
func IsReadOnly(sqlQuery string) bool {
	q := strings.ToLower(strings.TrimSpace(sqlQuery))
	q = whitespace.ReplaceAllString(q, " ")
	for _, prefix := range readOnlyPrefixes {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return false
}
