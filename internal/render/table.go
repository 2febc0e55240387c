package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/fakeyudi/focuslog/internal/reconstruct"
)

var (
	panelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("86")).
			Padding(0, 1)

	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// TableRenderer renders a Summary as styled terminal tables.
type TableRenderer struct{}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// ActivityTable renders the ranked activities of r.
func ActivityTable(r *reconstruct.Report, top int) string {
	t := newTable("Activity", "Duration", "Percentage")
	for _, a := range r.TopActivities(top) {
		t.Row(a.Identity, Clock(a.Seconds), a.Share.String())
	}
	return t.String()
}

// MetricTable renders the header metrics of r.
func MetricTable(r *reconstruct.Report) string {
	t := newTable("Metric", "Duration")
	for _, row := range HeaderRows(r) {
		t.Row(row.Metric, row.Value)
	}
	return t.String()
}

// BucketTable renders one row per bucket with its tracked time and leader.
func BucketTable(buckets []reconstruct.Bucket, by string) string {
	t := newTable(bucketHeader(by), "Tracked", "Gaps", "Records", "Top activity")
	for _, b := range buckets {
		lead := "-"
		if top := b.Report.TopActivities(1); len(top) > 0 {
			lead = top[0].Identity + " (" + top[0].Share.String() + ")"
		}
		t.Row(b.Key, Clock(b.Report.TrackedSeconds), Clock(b.Report.GapSeconds()), strconv.Itoa(b.Report.Records), lead)
	}
	return t.String()
}

func bucketHeader(by string) string {
	if by == "" {
		return "Bucket"
	}
	return strings.ToUpper(by[:1]) + by[1:]
}

// Render implements Renderer.
func (tr *TableRenderer) Render(w io.Writer, s *Summary) error {
	r := s.Report
	var sb strings.Builder

	sb.WriteString(panelStyle.Render("Activity Summary for the last "+s.Window) + "\n")
	sb.WriteString(labelStyle.Render("Data range:") + " " + DataRange(r) + "\n\n")
	sb.WriteString(MetricTable(r) + "\n")

	if len(r.Gaps) > 0 {
		fmt.Fprintf(&sb, "\n%s %d\n", warnStyle.Render("Detected gaps within tracked time:"), len(r.Gaps))
		sb.WriteString(warnStyle.Render("Largest gaps within tracked time:") + "\n")
		for _, g := range r.TopGaps(s.Gaps) {
			fmt.Fprintf(&sb, "  From %s to %s (%s)\n", Timestamp(g.Start), Timestamp(g.End), Clock(g.Seconds))
		}
	}
	if len(r.Anomalies) > 0 {
		fmt.Fprintf(&sb, "\n%s %d\n", warnStyle.Render("Skipped anomalies:"), len(r.Anomalies))
	}

	sb.WriteString("\n" + headingStyle.Render("Top activities (% of tracked time):") + "\n")
	if len(r.Activities) == 0 {
		sb.WriteString("No activities to display.\n")
	} else {
		sb.WriteString(ActivityTable(r, s.Top) + "\n")
	}

	if s.Buckets != nil {
		sb.WriteString("\n" + headingStyle.Render("By "+s.BucketBy+":") + "\n")
		sb.WriteString(BucketTable(s.Buckets, s.BucketBy) + "\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
