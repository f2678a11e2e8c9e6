package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sumoql/sumoql/internal/db"
	"github.com/sumoql/sumoql/internal/loader"
)

var (
	loadGameCSV   string
	loadSampleDir string
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a CSV dataset into the database",
	Long: `Load ingests sumobot data into the configured database.

--game points at a flat per-event game log; it replaces the game_records
table. --sample points at a directory with bots.csv, matches.csv,
rounds.csv and events.csv; it replaces the normalized tables. Loading the
same file again is safe.`,
	Args: cobra.NoArgs,
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		if (loadGameCSV == "") == (loadSampleDir == "") {
			return fmt.Errorf("exactly one of --game or --sample is required")
		}

		cfg, err := loadConfig(cobraCmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg.Log)

		conn, err := db.OpenForLoad(cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx := cobraCmd.Context()
		if loadGameCSV != "" {
			n, err := loader.LoadGameRecords(ctx, conn, loadGameCSV, logger)
			if err != nil {
				return err
			}
			pterm.Println(pterm.NewStyle(pterm.FgGreen).Sprintf("Loaded %d game records into %s", n, cfg.Database.DSN))
			return nil
		}

		counts, err := loader.LoadSample(ctx, conn, loadSampleDir, logger)
		if err != nil {
			return err
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		pterm.Println(pterm.NewStyle(pterm.FgGreen).Sprintf("Loaded %d rows across %d tables into %s", total, len(counts), cfg.Database.DSN))
		return nil
	},
}

func init() {
	loadCmd.Flags().StringVar(&loadGameCSV, "game", "", "path to a flat game log CSV")
	loadCmd.Flags().StringVar(&loadSampleDir, "sample", "", "directory with the normalized sample CSVs")
	rootCmd.AddCommand(loadCmd)
}
