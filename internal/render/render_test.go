package render_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fakeyudi/focuslog/internal/activity"
	"github.com/fakeyudi/focuslog/internal/reconstruct"
	"github.com/fakeyudi/focuslog/internal/render"
)

func sampleSummary(t *testing.T, withBuckets bool) *render.Summary {
	t.Helper()
	start := time.Date(2024, 2, 1, 9, 0, 0, 0, time.Local)
	at := func(sec int) time.Time { return start.Add(time.Duration(sec) * time.Second) }
	records := []activity.Record{
		{ID: 1, Timestamp: at(60), Focus: activity.Focus{AppName: "Terminal"}},
		{ID: 2, Timestamp: at(180), Focus: activity.Focus{AppName: "Safari", URL: activity.StringPtr("https://www.github.com/x")}},
		{ID: 3, Timestamp: at(240), Focus: activity.Focus{AppName: "Terminal"}},
		{ID: 4, Timestamp: at(1240), Focus: activity.Focus{AppName: "Terminal"}},
	}
	opts := reconstruct.Options{Start: start, End: start.Add(time.Hour)}
	r, err := reconstruct.Reconstruct(records, opts)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	s := &render.Summary{Window: render.DescribeWindow(1, "hour"), Report: r, Top: 10, Gaps: 5}
	if withBuckets {
		s.Buckets, err = reconstruct.ReconstructBuckets(records, reconstruct.ByHour, opts)
		if err != nil {
			t.Fatalf("ReconstructBuckets: %v", err)
		}
		s.BucketBy = "hour"
	}
	return s
}

func TestClock(t *testing.T) {
	cases := map[int64]string{0: "0h 0m 0s", 59: "0h 0m 59s", 3723: "1h 2m 3s", 90000: "25h 0m 0s"}
	for secs, want := range cases {
		if got := render.Clock(secs); got != want {
			t.Errorf("Clock(%d): want %q, got %q", secs, want, got)
		}
	}
}

func TestElapsed(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{90 * time.Second, "1m 30s"},
		{time.Hour + 4*time.Second, "1h 4s"},
		{26*time.Hour + 3*time.Minute + 4*time.Second, "1d 2h 3m 4s"},
	}
	for _, c := range cases {
		if got := render.Elapsed(c.d); got != c.want {
			t.Errorf("Elapsed(%v): want %q, got %q", c.d, c.want, got)
		}
	}
}

func TestForFormat(t *testing.T) {
	for _, name := range render.Formats {
		if _, err := render.ForFormat(name); err != nil {
			t.Errorf("ForFormat(%q): %v", name, err)
		}
	}
	if _, err := render.ForFormat("xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestTableRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (&render.TableRenderer{}).Render(&buf, sampleSummary(t, true)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Activity Summary for the last 1 hour(s)",
		"2024-02-01 09:01:00 to 2024-02-01 09:20:40",
		"Total tracked time", "0h 3m 0s",
		"Detected gaps within tracked time: 1",
		"From 2024-02-01 09:04:00 to 2024-02-01 09:20:40 (0h 16m 40s)",
		"Terminal", "66.67%", "github.com", "33.33%",
		"By hour:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (&render.MarkdownRenderer{}).Render(&buf, sampleSummary(t, false)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# Activity Summary for the last 1 hour(s)",
		"| Tracking coverage | 5.00% |",
		"| Terminal | 0h 2m 0s | 66.67% |",
		"1 gap(s) detected",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "## By") {
		t.Error("bucket section rendered without buckets")
	}
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (&render.JSONRenderer{}).Render(&buf, sampleSummary(t, true)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	var got struct {
		Window string `json:"window"`
		Report struct {
			TrackedSeconds int64 `json:"tracked_seconds"`
			GapCount       int   `json:"gap_count"`
			Activities     []struct {
				Identity string   `json:"identity"`
				Percent  *float64 `json:"percent"`
			} `json:"activities"`
		} `json:"report"`
		Buckets []struct {
			Key string `json:"key"`
		} `json:"buckets"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if got.Report.TrackedSeconds != 180 || got.Report.GapCount != 1 {
		t.Errorf("unexpected report: %+v", got.Report)
	}
	if len(got.Report.Activities) != 2 || got.Report.Activities[0].Identity != "Terminal" || got.Report.Activities[0].Percent == nil {
		t.Errorf("unexpected activities: %+v", got.Report.Activities)
	}
	if len(got.Buckets) != 1 || got.Buckets[0].Key != "09" {
		t.Errorf("unexpected buckets: %+v", got.Buckets)
	}
}

func TestEmptyReportRenders(t *testing.T) {
	r, err := reconstruct.Reconstruct(nil, reconstruct.Options{})
	if err != nil {
		t.Fatal(err)
	}
	s := &render.Summary{Window: "5 minute(s)", Report: r}
	for _, name := range render.Formats {
		rd, _ := render.ForFormat(name)
		var buf bytes.Buffer
		if err := rd.Render(&buf, s); err != nil {
			t.Errorf("%s: %v", name, err)
		}
		if name != "json" && !strings.Contains(buf.String(), "o activities to display") {
			t.Errorf("%s: expected empty-state message:\n%s", name, buf.String())
		}
	}
}
