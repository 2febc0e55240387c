package reconstruct

import (
	"fmt"
	"sort"
	"time"
)

// Gap is a span between two consecutive records that exceeded the gap
// threshold. It is excluded from every activity total.
type Gap struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Seconds int64     `json:"seconds"`
}

// AnomalyKind classifies a record or pair the reconstructor had to skip.
type AnomalyKind string

const (
	// NegativeElapsed marks a pair whose successor is older than its predecessor.
	NegativeElapsed AnomalyKind = "negative_elapsed"
	// Unparseable marks a stored row whose timestamp could not be read.
	Unparseable AnomalyKind = "unparseable_timestamp"
)

// Anomaly describes input the reconstructor skipped instead of failing.
type Anomaly struct {
	Kind     AnomalyKind `json:"kind"`
	RecordID int64       `json:"record_id"`
	Detail   string      `json:"detail"`
}

// Percentage is a share of tracked time. Defined is false when nothing was
// tracked, in which case Value is 0.
type Percentage struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

func (p Percentage) String() string {
	if !p.Defined {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", p.Value)
}

func share(part, total int64) Percentage {
	if total <= 0 {
		return Percentage{}
	}
	return Percentage{Value: float64(part) / float64(total) * 100, Defined: true}
}

// Activity is the accumulated time of one activity identity.
type Activity struct {
	Identity string     `json:"identity"`
	Seconds  int64      `json:"seconds"`
	Share    Percentage `json:"share"`
}

// Report is the reconstruction of one window of records.
type Report struct {
	Start          time.Time  `json:"start"`
	End            time.Time  `json:"end"`
	First          time.Time  `json:"first"`
	Last           time.Time  `json:"last"`
	Records        int        `json:"records"`
	Activities     []Activity `json:"activities"` // descending by Seconds
	TrackedSeconds int64      `json:"tracked_seconds"`
	Gaps           []Gap      `json:"gaps"` // descending by Seconds
	Anomalies      []Anomaly  `json:"anomalies"`
}

// Durations returns the per-identity totals as a map.
func (r *Report) Durations() map[string]int64 {
	out := make(map[string]int64, len(r.Activities))
	for _, a := range r.Activities {
		out[a.Identity] = a.Seconds
	}
	return out
}

// TopActivities returns at most n activities; n <= 0 returns all of them.
func (r *Report) TopActivities(n int) []Activity {
	if n <= 0 || n >= len(r.Activities) {
		return r.Activities
	}
	return r.Activities[:n]
}

// TopGaps returns at most n gaps; n <= 0 returns all of them.
func (r *Report) TopGaps(n int) []Gap {
	if n <= 0 || n >= len(r.Gaps) {
		return r.Gaps
	}
	return r.Gaps[:n]
}

// GapSeconds is the sum of all gap durations.
func (r *Report) GapSeconds() int64 {
	var total int64
	for _, g := range r.Gaps {
		total += g.Seconds
	}
	return total
}

// WindowSeconds is the length of the requested window, or 0 when the report
// was built without one.
func (r *Report) WindowSeconds() int64 {
	if r.Start.IsZero() || r.End.IsZero() {
		return 0
	}
	return int64(r.End.Sub(r.Start) / time.Second)
}

// UntrackedSeconds is the part of the requested window not attributed to any
// activity: gaps plus the uncovered lead-in and tail.
func (r *Report) UntrackedSeconds() int64 {
	w := r.WindowSeconds()
	if w == 0 {
		return r.GapSeconds()
	}
	return w - r.TrackedSeconds
}

// Coverage is the tracked share of the requested window.
func (r *Report) Coverage() Percentage {
	return share(r.TrackedSeconds, r.WindowSeconds())
}

// AddUnparseable records a stored row that could not be turned into a record.
func (r *Report) AddUnparseable(id int64, raw string) {
	r.Anomalies = append(r.Anomalies, Anomaly{
		Kind:     Unparseable,
		RecordID: id,
		Detail:   fmt.Sprintf("cannot parse timestamp %q", raw),
	})
}

// tally accumulates one report while the pairs are walked.
type tally struct {
	durations map[string]int64
	tracked   int64
	gaps      []Gap
	anomalies []Anomaly
	records   int
	first     time.Time
	last      time.Time
}

func newTally() *tally {
	return &tally{durations: make(map[string]int64)}
}

func (t *tally) observe(ts time.Time) {
	if t.records == 0 || ts.Before(t.first) {
		t.first = ts
	}
	if t.records == 0 || ts.After(t.last) {
		t.last = ts
	}
	t.records++
}

func (t *tally) report(start, end time.Time) *Report {
	r := &Report{
		Start:          start,
		End:            end,
		First:          t.first,
		Last:           t.last,
		Records:        t.records,
		TrackedSeconds: t.tracked,
		Activities:     make([]Activity, 0, len(t.durations)),
		Gaps:           append([]Gap{}, t.gaps...),
		Anomalies:      append([]Anomaly{}, t.anomalies...),
	}
	for id, secs := range t.durations {
		r.Activities = append(r.Activities, Activity{Identity: id, Seconds: secs, Share: share(secs, t.tracked)})
	}
	sort.Slice(r.Activities, func(i, j int) bool {
		a, b := r.Activities[i], r.Activities[j]
		if a.Seconds != b.Seconds {
			return a.Seconds > b.Seconds
		}
		return a.Identity < b.Identity
	})
	sort.SliceStable(r.Gaps, func(i, j int) bool {
		a, b := r.Gaps[i], r.Gaps[j]
		if a.Seconds != b.Seconds {
			return a.Seconds > b.Seconds
		}
		return a.Start.Before(b.Start)
	})
	return r
}
