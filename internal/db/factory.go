package db

import (
	"fmt"
	"os"
	"strings"

	"github.com/sumoql/sumoql/internal/config"
)

// OpenFunc opens a concrete backend. Backends register themselves at init
// time so this package does not import every driver.
type OpenFunc func(dsn string) (DB, error)

var backends = map[string]OpenFunc{}

func Register(driver string, open OpenFunc) {
	backends[driver] = open
}

// Open resolves the configured driver and opens the backend. For file-backed
// drivers a missing database file is reported here, before any model client
// is constructed.
func Open(cfg config.DatabaseConfig) (DB, error) {
	open, ok := backends[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
	if isFileBacked(cfg.Driver) && !isMemoryDSN(cfg.DSN) {
		if _, err := os.Stat(cfg.DSN); err != nil {
			return nil, fmt.Errorf("database %s not found, run 'sumoql load' first: %w", cfg.DSN, err)
		}
	}
	return open(cfg.DSN)
}

// OpenForLoad opens the backend without the existence check so the loader can
// create a fresh database file.
func OpenForLoad(cfg config.DatabaseConfig) (DB, error) {
	open, ok := backends[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
	return open(cfg.DSN)
}

func isFileBacked(driver string) bool {
	return driver == config.DriverSQLite || driver == config.DriverDuckDB
}

func isMemoryDSN(dsn string) bool {
	return dsn == "" || strings.Contains(dsn, ":memory:")
}
