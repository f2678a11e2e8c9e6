package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/sumoql/sumoql/internal/db"
	"github.com/sumoql/sumoql/internal/pipeline"
	"github.com/sumoql/sumoql/internal/print"
)

var queryMaxRows int

var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run a read-only SQL statement directly",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cobraCmd)
		if err != nil {
			return err
		}

		conn, err := db.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()

		// No model clients here: the pipeline only applies the read-only
		// gate and executes.
		pipe := pipeline.New(conn, nil, nil, newLogger(cfg.Log), pipeline.Options{
			ReadOnly: cfg.Database.ReadOnly,
		})

		rows, err := pipe.RunSQL(cobraCmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		print.RenderTable(cobraCmd.OutOrStdout(), rows, print.Options{MaxRows: queryMaxRows})
		return nil
	},
}

func init() {
	queryCmd.Flags().IntVar(&queryMaxRows, "max-rows", 0, "limit printed rows (0 means no limit)")
	rootCmd.AddCommand(queryCmd)
}
