// Package render turns a reconstructed report into text for the terminal,
// Markdown or JSON.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fakeyudi/focuslog/internal/reconstruct"
)

// Summary is everything a renderer needs for one report invocation.
type Summary struct {
	Window   string // human description, e.g. "2 hour(s)"
	Report   *reconstruct.Report
	Buckets  []reconstruct.Bucket // nil unless a bucket granularity was requested
	BucketBy string
	Top      int // activities to list; <= 0 lists all
	Gaps     int // gaps to list; <= 0 lists all
}

// Renderer writes a Summary to w.
type Renderer interface {
	Render(w io.Writer, s *Summary) error
}

// Formats lists the names ForFormat accepts.
var Formats = []string{"table", "markdown", "json"}

// ForFormat returns the renderer registered under name.
func ForFormat(name string) (Renderer, error) {
	switch strings.ToLower(name) {
	case "table", "":
		return &TableRenderer{}, nil
	case "markdown", "md":
		return &MarkdownRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown format %q (want %s)", name, strings.Join(Formats, ", "))
}

// DescribeWindow renders a requested window the way the report header shows
// it, e.g. "90 minute(s)".
func DescribeWindow(n int, unit string) string {
	return fmt.Sprintf("%d %s(s)", n, unit)
}

// Timestamp formats t in the stored layout, or "-" for the zero time.
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

// Row is one metric line of the header block.
type Row struct {
	Metric string
	Value  string
}

// HeaderRows returns the time summary metrics of r in display order.
func HeaderRows(r *reconstruct.Report) []Row {
	rows := []Row{
		{"Total tracked time", Clock(r.TrackedSeconds)},
	}
	if w := r.WindowSeconds(); w > 0 {
		rows = append(rows, Row{"Requested duration", Clock(w)})
	}
	rows = append(rows,
		Row{"Untracked time", Clock(r.UntrackedSeconds())},
		Row{"Time in gaps", Clock(r.GapSeconds())},
		Row{"Tracking coverage", r.Coverage().String()},
	)
	return rows
}

// DataRange describes the first and last record of r.
func DataRange(r *reconstruct.Report) string {
	if r.Records == 0 {
		return "no records in window"
	}
	return Timestamp(r.First) + " to " + Timestamp(r.Last)
}
