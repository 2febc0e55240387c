package render

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownRenderer renders a Summary as a Markdown document.
type MarkdownRenderer struct{}

// Render implements Renderer.
func (mr *MarkdownRenderer) Render(w io.Writer, s *Summary) error {
	r := s.Report
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Activity Summary for the last %s\n\n", s.Window)
	fmt.Fprintf(&sb, "- Data range: %s\n", DataRange(r))
	fmt.Fprintf(&sb, "- Records: %d\n", r.Records)
	if len(r.Anomalies) > 0 {
		fmt.Fprintf(&sb, "- Skipped anomalies: %d\n", len(r.Anomalies))
	}
	sb.WriteString("\n## Time Summary\n\n")
	sb.WriteString("| Metric | Duration |\n")
	sb.WriteString("|--------|----------|\n")
	for _, row := range HeaderRows(r) {
		fmt.Fprintf(&sb, "| %s | %s |\n", row.Metric, row.Value)
	}
	sb.WriteString("\n")

	sb.WriteString("## Top Activities\n\n")
	if len(r.Activities) == 0 {
		sb.WriteString("_No activities to display._\n")
	} else {
		sb.WriteString("| Activity | Duration | Percentage |\n")
		sb.WriteString("|----------|----------|------------|\n")
		for _, a := range r.TopActivities(s.Top) {
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", escapeCell(a.Identity), Clock(a.Seconds), a.Share)
		}
	}
	sb.WriteString("\n")

	sb.WriteString("## Gaps\n\n")
	if len(r.Gaps) == 0 {
		sb.WriteString("_No gaps detected._\n")
	} else {
		fmt.Fprintf(&sb, "%d gap(s) detected, largest first:\n\n", len(r.Gaps))
		for _, g := range r.TopGaps(s.Gaps) {
			fmt.Fprintf(&sb, "- %s to %s (%s)\n", Timestamp(g.Start), Timestamp(g.End), Clock(g.Seconds))
		}
	}

	if s.Buckets != nil {
		fmt.Fprintf(&sb, "\n## By %s\n\n", s.BucketBy)
		sb.WriteString("| Bucket | Tracked | Gaps | Records | Top activity |\n")
		sb.WriteString("|--------|---------|------|---------|--------------|\n")
		for _, b := range s.Buckets {
			lead := "-"
			if top := b.Report.TopActivities(1); len(top) > 0 {
				lead = fmt.Sprintf("%s (%s)", escapeCell(top[0].Identity), top[0].Share)
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %d | %s |\n",
				b.Key, Clock(b.Report.TrackedSeconds), Clock(b.Report.GapSeconds()), b.Report.Records, lead)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
