package sampler

import (
	"sort"
	"time"
)

// Share is one identity's portion of the live accumulator.
type Share struct {
	Identity string
	Duration time.Duration
	Percent  float64
}

// Accumulator tracks how long each identity held focus since the last reset.
type Accumulator struct {
	since     time.Time
	durations map[string]time.Duration
	total     time.Duration
}

// NewAccumulator returns an empty accumulator counting from since.
func NewAccumulator(since time.Time) *Accumulator {
	return &Accumulator{since: since, durations: make(map[string]time.Duration)}
}

// Reset discards every total and counts from since onward.
func (a *Accumulator) Reset(since time.Time) {
	a.since = since
	a.durations = make(map[string]time.Duration)
	a.total = 0
}

// Add attributes the span [from, to) to identity. The part before the last
// reset is ignored.
func (a *Accumulator) Add(identity string, from, to time.Time) {
	if from.Before(a.since) {
		from = a.since
	}
	d := to.Sub(from)
	if d <= 0 {
		return
	}
	a.durations[identity] += d
	a.total += d
}

// Total is the sum of all attributed time.
func (a *Accumulator) Total() time.Duration { return a.total }

// Top returns the n identities with the most time, descending, ties broken by
// name. It is empty while nothing has been attributed.
func (a *Accumulator) Top(n int) []Share {
	if a.total <= 0 {
		return nil
	}
	shares := make([]Share, 0, len(a.durations))
	for id, d := range a.durations {
		shares = append(shares, Share{
			Identity: id,
			Duration: d,
			Percent:  float64(d) / float64(a.total) * 100,
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Duration != shares[j].Duration {
			return shares[i].Duration > shares[j].Duration
		}
		return shares[i].Identity < shares[j].Identity
	})
	if n > 0 && n < len(shares) {
		shares = shares[:n]
	}
	return shares
}
