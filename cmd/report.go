package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/focuslog/internal/activity"
	"github.com/fakeyudi/focuslog/internal/reconstruct"
	"github.com/fakeyudi/focuslog/internal/render"
	"github.com/fakeyudi/focuslog/internal/tui"
)

// now is the report clock; tests pin it.
var now = time.Now

var (
	reportMinutes int
	reportHours   int
	reportDays    int
	reportBy      string
	reportFormat  string
	reportTop     int
	reportGaps    int
	reportTUI     bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize tracked time over the last minutes, hours or days",
	Example: `  focuslog report --hours 2
  focuslog report --days 7 --by date --format markdown
  focuslog report --days 1 --by hour --tui`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, unit, d, err := reportWindow()
		if err != nil {
			return err
		}

		format := cfg.Report.Format
		if cmd.Flags().Changed("format") {
			format = reportFormat
		}
		top, gaps := cfg.Report.Top, cfg.Report.Gaps
		if cmd.Flags().Changed("top") {
			top = reportTop
		}
		if cmd.Flags().Changed("gaps") {
			gaps = reportGaps
		}
		renderer, err := render.ForFormat(format)
		if err != nil {
			return err
		}
		var key reconstruct.BucketKey
		if reportBy != "" {
			if key, err = reconstruct.ParseBucketKey(reportBy); err != nil {
				return err
			}
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		end := now().Truncate(time.Second)
		start := end.Add(-d)
		records, malformed, err := st.Between(cmd.Context(), start, end)
		if err != nil {
			return err
		}

		opts := reconstruct.Options{
			Start:        start,
			End:          end,
			GapThreshold: cfg.GapThreshold,
			Classifier:   activity.NewClassifier(cfg.Browsers...),
		}
		report, err := reconstruct.Reconstruct(records, opts)
		if err != nil {
			return fmt.Errorf("reconstructing report: %w", err)
		}
		for _, m := range malformed {
			report.AddUnparseable(m.ID, m.Raw)
		}

		summary := &render.Summary{
			Window: render.DescribeWindow(n, unit),
			Report: report,
			Top:    top,
			Gaps:   gaps,
		}
		if key != nil {
			if summary.Buckets, err = reconstruct.ReconstructBuckets(records, key, opts); err != nil {
				return fmt.Errorf("reconstructing buckets: %w", err)
			}
			summary.BucketBy = bucketName(reportBy)
		}

		if reportTUI {
			return tui.Run(summary)
		}
		return renderer.Render(cmd.OutOrStdout(), summary)
	},
}

// reportWindow returns the single window flag that was set.
func reportWindow() (n int, unit string, d time.Duration, err error) {
	switch {
	case reportMinutes != 0:
		n, unit, d = reportMinutes, "minute", time.Minute
	case reportHours != 0:
		n, unit, d = reportHours, "hour", time.Hour
	case reportDays != 0:
		n, unit, d = reportDays, "day", 24*time.Hour
	}
	if n <= 0 {
		return 0, "", 0, fmt.Errorf("window must be a positive number of minutes, hours or days")
	}
	return n, unit, time.Duration(n) * d, nil
}

func bucketName(by string) string {
	switch strings.ToLower(by) {
	case "hour", "hourly":
		return "hour"
	}
	return "date"
}

func init() {
	f := reportCmd.Flags()
	f.IntVar(&reportMinutes, "minutes", 0, "report on the last N minutes")
	f.IntVar(&reportHours, "hours", 0, "report on the last N hours")
	f.IntVar(&reportDays, "days", 0, "report on the last N days")
	f.StringVar(&reportBy, "by", "", "also break the window down by hour or date")
	f.StringVar(&reportFormat, "format", "table", "output format: "+strings.Join(render.Formats, ", "))
	f.IntVar(&reportTop, "top", 10, "activities to list (0 lists all)")
	f.IntVar(&reportGaps, "gaps", 5, "largest gaps to list (0 lists all)")
	f.BoolVar(&reportTUI, "tui", false, "browse the report interactively")
	reportCmd.MarkFlagsMutuallyExclusive("minutes", "hours", "days")
	reportCmd.MarkFlagsOneRequired("minutes", "hours", "days")
	reportCmd.MarkFlagsMutuallyExclusive("tui", "format")
	rootCmd.AddCommand(reportCmd)
}
