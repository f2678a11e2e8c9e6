package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sumoql/sumoql/internal/config"
	"github.com/sumoql/sumoql/internal/db"
	"github.com/sumoql/sumoql/internal/llm"
	"github.com/sumoql/sumoql/internal/pipeline"
	"github.com/sumoql/sumoql/internal/repl"

	_ "github.com/sumoql/sumoql/internal/db/duckdb"
	_ "github.com/sumoql/sumoql/internal/db/postgres"
	_ "github.com/sumoql/sumoql/internal/db/sqlite"
)

// checkTimeout bounds the startup probe of the model endpoint.
const checkTimeout = 5 * time.Second

var (
	flagDriver      string
	flagDSN         string
	flagModel       string
	flagAnswerModel string
	flagBaseURL     string
	flagLogLevel    string
	flagLogJSON     bool
)

var rootCmd = &cobra.Command{
	Use:   "sumoql",
	Short: "Ask questions about sumobot match data in plain language",
	Long: `sumoql turns natural-language questions about sumobot matches into SQL,
runs the query against a local database and answers in plain language.

Without a subcommand it starts the interactive question loop.`,
	SilenceUsage: true,
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cobraCmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg.Log)

		conn, err := db.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()

		sqlClient, answerClient, err := newClients(cobraCmd.Context(), cfg.Model)
		if err != nil {
			return err
		}

		pipe := pipeline.New(conn, sqlClient, answerClient, logger, pipeline.Options{
			ReadOnly: cfg.Database.ReadOnly,
		})

		ctx, stop := signal.NotifyContext(cobraCmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return repl.New(pipe, conn, cfg, os.Stdin, os.Stdout).Run(ctx)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagDriver, "driver", "", "database backend: sqlite, duckdb or postgres")
	pf.StringVar(&flagDSN, "db", "", "database path (sqlite/duckdb) or connection URL (postgres)")
	pf.StringVar(&flagModel, "model", "", "model used to generate SQL")
	pf.StringVar(&flagAnswerModel, "answer-model", "", "model used for the conversational answer")
	pf.StringVar(&flagBaseURL, "base-url", "", "model provider base URL")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&flagLogJSON, "log-json", false, "emit logs as JSON")
}

// loadConfig reads SUMOQL_* environment variables, then lets flags that were
// set on the command line override individual fields.
func loadConfig(cobraCmd *cobra.Command) (config.Config, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return config.Config{}, err
	}

	flags := cobraCmd.Flags()
	if flags.Changed("driver") {
		cfg.Database.Driver = flagDriver
	}
	if flags.Changed("db") {
		cfg.Database.DSN = flagDSN
	}
	if flags.Changed("model") {
		cfg.Model.Model = flagModel
	}
	if flags.Changed("answer-model") {
		cfg.Model.AnswerModel = flagAnswerModel
	}
	if flags.Changed("base-url") {
		cfg.Model.BaseURL = flagBaseURL
	}
	if flags.Changed("log-level") {
		var level slog.Level
		if err := level.UnmarshalText([]byte(flagLogLevel)); err != nil {
			return config.Config{}, fmt.Errorf("invalid --log-level %q: %w", flagLogLevel, err)
		}
		cfg.Log.Level = level
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON = flagLogJSON
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.JSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newClients builds the model clients and probes the endpoint once; an
// unreachable endpoint is fatal here, before any question is accepted.
func newClients(ctx context.Context, cfg config.ModelConfig) (llm.Client, llm.Client, error) {
	sqlClient, err := llm.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := sqlClient.Check(checkCtx); err != nil {
		return nil, nil, fmt.Errorf("model endpoint check failed: %w", err)
	}

	answerClient, err := llm.NewAnswerClient(cfg, sqlClient)
	if err != nil {
		return nil, nil, err
	}
	return sqlClient, answerClient, nil
}
