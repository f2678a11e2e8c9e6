// Package config holds runtime configuration for the sumoql pipeline.
// Values come from SUMOQL_* environment variables with sensible defaults;
// command flags may override individual fields afterwards.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

// Driver names accepted by the database factory.
const (
	DriverSQLite   = "sqlite"
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

type Config struct {
	Database DatabaseConfig
	Model    ModelConfig
	Server   ServerConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	// Driver selects the backend: sqlite, duckdb or postgres.
	Driver string
	// DSN is a file path for sqlite/duckdb, a connection URL for postgres.
	DSN string
	// ReadOnly keeps the keyword allow-list gate enabled. Loading data
	// bypasses the gate through a separate write path.
	ReadOnly bool
}

type ModelConfig struct {
	// Provider selects the completion client: ollama or openai.
	Provider string
	// Model is the model name passed to the provider.
	Model string
	// AnswerModel is used for the conversational answer when Model is a
	// completion-style SQL model that cannot produce prose. Empty means
	// use Model for both calls.
	AnswerModel string
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
}

type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level slog.Level
	JSON  bool
}

func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:   DriverSQLite,
			DSN:      "sumobot.db",
			ReadOnly: true,
		},
		Model: ModelConfig{
			Provider: "ollama",
			Model:    "gemma3:4b",
			BaseURL:  "http://127.0.0.1:11434",
			Timeout:  120 * time.Second,
		},
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 180 * time.Second,
		},
		Log: LogConfig{
			Level: slog.LevelInfo,
			JSON:  false,
		},
	}
}

func LoadFromEnv() (Config, error) {
	return Load(os.LookupEnv)
}

func Load(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := Default()

	if err := applyString(lookup, "SUMOQL_DB_DRIVER", &cfg.Database.Driver); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SUMOQL_DB_DSN", &cfg.Database.DSN); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "SUMOQL_DB_READ_ONLY", &cfg.Database.ReadOnly); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SUMOQL_MODEL_PROVIDER", &cfg.Model.Provider); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SUMOQL_MODEL", &cfg.Model.Model); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SUMOQL_ANSWER_MODEL", &cfg.Model.AnswerModel); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SUMOQL_MODEL_BASE_URL", &cfg.Model.BaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SUMOQL_MODEL_API_KEY", &cfg.Model.APIKey); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SUMOQL_MODEL_TIMEOUT", &cfg.Model.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SUMOQL_HTTP_ADDR", &cfg.Server.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SUMOQL_HTTP_READ_TIMEOUT", &cfg.Server.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SUMOQL_HTTP_WRITE_TIMEOUT", &cfg.Server.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "SUMOQL_LOG_JSON", &cfg.Log.JSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "SUMOQL_LOG_LEVEL", &cfg.Log.Level); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverDuckDB, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database DSN is required")
	}
	switch c.Model.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unsupported model provider %q", c.Model.Provider)
	}
	if strings.TrimSpace(c.Model.Model) == "" {
		return fmt.Errorf("model name is required")
	}
	if strings.TrimSpace(c.Model.BaseURL) == "" {
		return fmt.Errorf("model base URL is required")
	}
	return nil
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = level
	return nil
}
