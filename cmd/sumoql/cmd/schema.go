package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sumoql/sumoql/internal/db"
	"github.com/sumoql/sumoql/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the schema text sent to the model",
	Args:  cobra.NoArgs,
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

		text, err := schema.Render(cobraCmd.Context(), conn)
		if err != nil {
			return err
		}
		fmt.Fprintln(cobraCmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
