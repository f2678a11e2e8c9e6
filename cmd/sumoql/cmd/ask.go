package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sumoql/sumoql/internal/db"
	"github.com/sumoql/sumoql/internal/pipeline"
)

var askShowSQL bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question and exit",
	Args:  cobra.MinimumNArgs(1),
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

		question := strings.Join(args, " ")
		answer, err := pipe.Ask(cobraCmd.Context(), question)
		if err != nil {
			return err
		}

		if askShowSQL && answer.SQL != "" {
			fmt.Fprintf(cobraCmd.OutOrStdout(), "SQL: %s\n", answer.SQL)
		}
		fmt.Fprintln(cobraCmd.OutOrStdout(), answer.Text)

		if answer.Blocked || answer.Failed {
			return fmt.Errorf("question was not answered")
		}
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askShowSQL, "show-sql", false, "print the generated SQL before the answer")
	rootCmd.AddCommand(askCmd)
}
