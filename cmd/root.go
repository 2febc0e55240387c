package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/focuslog/internal/config"
	"github.com/fakeyudi/focuslog/internal/logger"
	"github.com/fakeyudi/focuslog/internal/store"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// dbFlag overrides db_path for a single invocation.
var dbFlag string

var rootCmd = &cobra.Command{
	Use:          "focuslog",
	Short:        "Track focused windows and report where the time went",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		if dbFlag != "" {
			cfg.DBPath = dbFlag
		}
		logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

		// First run hint, only for an interactive terminal.
		if term.IsTerminal(os.Stdin.Fd()) {
			if p, err := config.GlobalPath(); err == nil {
				if _, err := os.Stat(p); os.IsNotExist(err) {
					cmd.PrintErrln("No config file found. Run 'focuslog setup' to create one.")
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "path to the activity database (overrides db_path)")
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// dbPath resolves the database location from the config.
func dbPath() (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, nil
	}
	p, err := store.DefaultPath()
	if err != nil {
		return "", fmt.Errorf("resolving database path: %w", err)
	}
	return p, nil
}

// openStore opens the configured activity store.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	path, err := dbPath()
	if err != nil {
		return nil, err
	}
	return store.Open(cmd.Context(), path)
}
