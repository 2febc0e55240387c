package render

import (
	"encoding/json"
	"io"

	"github.com/fakeyudi/focuslog/internal/reconstruct"
)

// JSONRenderer renders a Summary as indented JSON.
type JSONRenderer struct{}

type jsonActivity struct {
	Identity string   `json:"identity"`
	Seconds  int64    `json:"seconds"`
	Duration string   `json:"duration"`
	Percent  *float64 `json:"percent"` // null when nothing was tracked
}

type jsonGap struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Seconds int64  `json:"seconds"`
}

type jsonReport struct {
	Records          int                   `json:"records"`
	First            string                `json:"first,omitempty"`
	Last             string                `json:"last,omitempty"`
	TrackedSeconds   int64                 `json:"tracked_seconds"`
	UntrackedSeconds int64                 `json:"untracked_seconds"`
	GapSeconds       int64                 `json:"gap_seconds"`
	Coverage         *float64              `json:"coverage_percent"`
	GapCount         int                   `json:"gap_count"`
	Activities       []jsonActivity        `json:"activities"`
	Gaps             []jsonGap             `json:"gaps"`
	Anomalies        []reconstruct.Anomaly `json:"anomalies"`
}

type jsonBucket struct {
	Key string `json:"key"`
	jsonReport
}

type jsonSummary struct {
	Window   string       `json:"window"`
	Start    string       `json:"start,omitempty"`
	End      string       `json:"end,omitempty"`
	Report   jsonReport   `json:"report"`
	BucketBy string       `json:"bucket_by,omitempty"`
	Buckets  []jsonBucket `json:"buckets,omitempty"`
}

func percent(p reconstruct.Percentage) *float64 {
	if !p.Defined {
		return nil
	}
	v := p.Value
	return &v
}

func optionalTimestamp(r *reconstruct.Report, first bool) string {
	if r.Records == 0 {
		return ""
	}
	if first {
		return Timestamp(r.First)
	}
	return Timestamp(r.Last)
}

func toJSONReport(r *reconstruct.Report, top, gaps int) jsonReport {
	out := jsonReport{
		Records:          r.Records,
		First:            optionalTimestamp(r, true),
		Last:             optionalTimestamp(r, false),
		TrackedSeconds:   r.TrackedSeconds,
		UntrackedSeconds: r.UntrackedSeconds(),
		GapSeconds:       r.GapSeconds(),
		Coverage:         percent(r.Coverage()),
		GapCount:         len(r.Gaps),
		Activities:       []jsonActivity{},
		Gaps:             []jsonGap{},
		Anomalies:        r.Anomalies,
	}
	for _, a := range r.TopActivities(top) {
		out.Activities = append(out.Activities, jsonActivity{
			Identity: a.Identity,
			Seconds:  a.Seconds,
			Duration: Clock(a.Seconds),
			Percent:  percent(a.Share),
		})
	}
	for _, g := range r.TopGaps(gaps) {
		out.Gaps = append(out.Gaps, jsonGap{Start: Timestamp(g.Start), End: Timestamp(g.End), Seconds: g.Seconds})
	}
	return out
}

// Render implements Renderer.
func (jr *JSONRenderer) Render(w io.Writer, s *Summary) error {
	out := jsonSummary{
		Window: s.Window,
		Report: toJSONReport(s.Report, s.Top, s.Gaps),
	}
	if !s.Report.Start.IsZero() {
		out.Start = Timestamp(s.Report.Start)
		out.End = Timestamp(s.Report.End)
	}
	if s.Buckets != nil {
		out.BucketBy = s.BucketBy
		for _, b := range s.Buckets {
			out.Buckets = append(out.Buckets, jsonBucket{Key: b.Key, jsonReport: toJSONReport(b.Report, s.Top, s.Gaps)})
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
