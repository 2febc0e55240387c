package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fakeyudi/focuslog/internal/render"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the activity log contains",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Stats(cmd.Context())
		if err != nil {
			return err
		}

		cmd.Printf("Database: %s\n", st.Path())
		cmd.Printf("Schema version: %d\n", stats.SchemaVersion)
		cmd.Printf("Records: %d\n", stats.Records)
		if stats.First != nil && stats.Last != nil {
			cmd.Printf("First record: %s\n", render.Timestamp(*stats.First))
			cmd.Printf("Last record: %s\n", render.Timestamp(*stats.Last))
		}
		if stats.Timezone == "" {
			cmd.Println("Timezone normalization: not applied")
		} else {
			cmd.Printf("Timezone normalization: %s\n", stats.Timezone)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
