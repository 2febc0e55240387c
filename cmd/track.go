package cmd

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/focuslog/internal/activity"
	"github.com/fakeyudi/focuslog/internal/config"
	"github.com/fakeyudi/focuslog/internal/logger"
	"github.com/fakeyudi/focuslog/internal/probe"
	"github.com/fakeyudi/focuslog/internal/sampler"
)

// newProbe builds the window probe; tests swap it for a fake.
var newProbe = probe.New

// watchConfig starts live config reloading; tests disable it.
var watchConfig = true

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Record the focused window until quit",
	Long: `Record the focused application, window title and browser URL once per
poll interval. While tracking, type commands on stdin:

  start-session <label>  (n <label>)
  stop-session           (s)
  status
  quit                   (q)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		var classifier atomic.Pointer[activity.Classifier]
		classifier.Store(activity.NewClassifier(cfg.Browsers...))

		p := newProbe(probe.Options{
			IsBrowser: func(app string) bool { return classifier.Load().IsBrowser(app) },
			Timeout:   cfg.ProbeTimeout,
		})

		runID := uuid.New().String()
		log := logger.WithComponent("sampler").With("db", st.Path())
		s := sampler.New(p, st, sampler.Config{
			PollInterval: cfg.PollInterval,
			ForceRefresh: cfg.ForceRefresh,
			RunID:        runID,
			Classifier:   classifier.Load,
			Out:          cmd.OutOrStdout(),
		}, log)

		if watchConfig {
			config.Watch(logger.WithComponent("config"), func(c config.Config) {
				s.SetForceRefresh(c.ForceRefresh)
				classifier.Store(activity.NewClassifier(c.Browsers...))
			})
		}

		if err := s.Run(ctx, sampler.ReadCommands(cmd.InOrStdin())); err != nil {
			return err
		}
		if ctx.Err() != nil && cmd.Context().Err() == nil {
			cmd.Println()
		}
		cmd.Println("Tracking stopped.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trackCmd)
}
