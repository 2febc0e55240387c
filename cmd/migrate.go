package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/focuslog/internal/store"
)

var migrateFrom string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the activity database to the latest schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Open applies pending migrations.
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		v, err := st.Version(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("Schema is at version %d.\n", v)
		return nil
	},
}

var migrateTimezoneCmd = &cobra.Command{
	Use:   "timezone",
	Short: "Rewrite stored timestamps from another timezone to local time (once)",
	Long: `Logs written by older releases stored timestamps in UTC. This rewrites
every timestamp from the --from zone to local time in a single transaction.
It can only run once per database.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := time.LoadLocation(migrateFrom)
		if err != nil {
			return fmt.Errorf("unknown timezone %q: %w", migrateFrom, err)
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		res, err := st.NormalizeTimezone(cmd.Context(), loc)
		if errors.Is(err, store.ErrAlreadyApplied) {
			return fmt.Errorf("%w; refusing to shift timestamps twice", err)
		}
		if err != nil {
			return err
		}

		cmd.Printf("Converted %d record(s) from %s to %s.\n", res.Converted, loc, time.Local)
		for _, m := range res.Skipped {
			cmd.Printf("  skipped record %d: unparseable timestamp %q\n", m.ID, m.Raw)
		}
		return nil
	},
}

func init() {
	migrateTimezoneCmd.Flags().StringVar(&migrateFrom, "from", "UTC", "zone the stored timestamps were written in")
	migrateCmd.AddCommand(migrateTimezoneCmd)
	rootCmd.AddCommand(migrateCmd)
}
