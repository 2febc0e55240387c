package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/focuslog/internal/config"
	"github.com/fakeyudi/focuslog/internal/render"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write the global config file (re-run anytime to edit settings)",
	Args:  cobra.NoArgs,
	// Bypass the normal PersistentPreRunE so setup can repair a broken config.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GlobalPath()
		if err != nil {
			return err
		}

		// An existing, readable file provides the defaults (edit mode).
		current := config.Defaults()
		if existing, err := config.LoadGlobal(); err == nil {
			current = config.Merge(existing, nil)
		}

		next, err := runSetup(cmd.InOrStdin(), cmd.OutOrStdout(), current)
		if err != nil {
			return fmt.Errorf("setup cancelled: %w", err)
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := config.Save(path, next); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		cmd.Printf("Config saved to %s.\n", path)
		cmd.Println("Run 'focuslog track' to start recording.")
		return nil
	},
}

// runSetup asks for each setting, offering the current value as the default.
func runSetup(in io.Reader, out io.Writer, cfg config.Config) (config.Config, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  focuslog setup")
	fmt.Fprintln(out)

	var err error
	if cfg.DBPath, err = ask("  Database path (- for the default location)", cfg.DBPath); err != nil {
		return cfg, err
	}
	if cfg.DBPath == "-" {
		cfg.DBPath = ""
	}

	browsers, err := ask("  Extra browsers, comma separated", strings.Join(cfg.Browsers, ", "))
	if err != nil {
		return cfg, err
	}
	cfg.Browsers = splitList(browsers)

	format, err := ask("  Default report format ("+strings.Join(render.Formats, "/")+")", cfg.Report.Format)
	if err != nil {
		return cfg, err
	}
	if _, ferr := render.ForFormat(format); ferr != nil {
		fmt.Fprintf(out, "  Unknown format %q, keeping %q.\n", format, cfg.Report.Format)
	} else {
		cfg.Report.Format = strings.ToLower(format)
		if cfg.Report.Format == "md" {
			cfg.Report.Format = "markdown"
		}
	}

	if cfg.Log.Level, err = ask("  Log level (debug/info/warn/error)", cfg.Log.Level); err != nil {
		return cfg, err
	}

	fmt.Fprintln(out)
	return cfg, nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
