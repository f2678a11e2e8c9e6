package sqlexec

import (
	"context"
	"fmt"
	"strings"

	"github.com/sumoql/sumoql/internal/db"
)

// Execute runs an accepted statement and materializes the result in memory.
// An execution error from the engine comes back as a plain error for the
// caller to surface to the user; there are no retries.
func Execute(ctx context.Context, conn db.DB, sqlQuery string) (*db.Rows, error) {
	if strings.TrimSpace(sqlQuery) == "" {
		return nil, fmt.Errorf("empty SQL statement")
	}
	return conn.Query(ctx, sqlQuery)
}
