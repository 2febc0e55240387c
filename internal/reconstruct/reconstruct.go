// Package reconstruct turns an ordered sequence of activity samples into
// per-activity durations and inactivity gaps.
//
// Each record is taken to hold from its own timestamp until the next sample.
// The elapsed time of every consecutive pair is attributed to the earlier
// record's identity, unless it exceeds the gap threshold, in which case the
// span is reported as a Gap and attributed to nothing.
package reconstruct

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fakeyudi/focuslog/internal/activity"
)

// DefaultGapThreshold is the longest span between two samples that still
// counts as tracked time.
const DefaultGapThreshold = 300 * time.Second

var (
	// ErrInvalidWindow is returned when the window end is not after its start.
	ErrInvalidWindow = errors.New("window end must be after start")
	// ErrOutOfWindow is returned when a record lies outside [Start, End).
	ErrOutOfWindow = errors.New("record outside window")
)

// Options controls a reconstruction. The zero value reconstructs without a
// window check, with DefaultGapThreshold and the default browser set.
type Options struct {
	Start        time.Time
	End          time.Time
	GapThreshold time.Duration
	Classifier   *activity.Classifier
}

func (o Options) gapSeconds() int64 {
	if o.GapThreshold <= 0 {
		return int64(DefaultGapThreshold / time.Second)
	}
	return int64(o.GapThreshold / time.Second)
}

func (o Options) classifier() *activity.Classifier {
	if o.Classifier == nil {
		return activity.NewClassifier()
	}
	return o.Classifier
}

func (o Options) validate(records []activity.Record) error {
	if !o.Start.IsZero() && !o.End.IsZero() && !o.End.After(o.Start) {
		return fmt.Errorf("%w: [%s, %s)", ErrInvalidWindow,
			activity.FormatTimestamp(o.Start), activity.FormatTimestamp(o.End))
	}
	for _, r := range records {
		if (!o.Start.IsZero() && r.Timestamp.Before(o.Start)) || (!o.End.IsZero() && !r.Timestamp.Before(o.End)) {
			return fmt.Errorf("%w: record %d at %s", ErrOutOfWindow, r.ID, activity.FormatTimestamp(r.Timestamp))
		}
	}
	return nil
}

// Reconstruct computes the report for records, which must be ordered by
// timestamp. Pairs with a negative elapsed time are skipped and reported as
// anomalies.
func Reconstruct(records []activity.Record, opts Options) (*Report, error) {
	t := newTally()
	if err := walk(records, opts, func(activity.Record) *tally { return t }); err != nil {
		return nil, err
	}
	return t.report(opts.Start, opts.End), nil
}

// walk visits every consecutive pair and accumulates it into the tally that
// pick selects for the earlier record.
func walk(records []activity.Record, opts Options, pick func(activity.Record) *tally) error {
	if err := opts.validate(records); err != nil {
		return err
	}
	threshold := opts.gapSeconds()
	cls := opts.classifier()

	for i, rec := range records {
		t := pick(rec)
		t.observe(rec.Timestamp)
		if i == len(records)-1 {
			break
		}
		next := records[i+1]
		elapsed := int64(next.Timestamp.Sub(rec.Timestamp) / time.Second)
		switch {
		case elapsed < 0:
			t.anomalies = append(t.anomalies, Anomaly{
				Kind:     NegativeElapsed,
				RecordID: rec.ID,
				Detail: fmt.Sprintf("next record %d at %s precedes %s", next.ID,
					activity.FormatTimestamp(next.Timestamp), activity.FormatTimestamp(rec.Timestamp)),
			})
		case elapsed > threshold:
			t.gaps = append(t.gaps, Gap{Start: rec.Timestamp, End: next.Timestamp, Seconds: elapsed})
		default:
			t.durations[cls.Identity(rec.Focus)] += elapsed
			t.tracked += elapsed
		}
	}
	return nil
}

// BucketKey derives the bucket a record belongs to from its own timestamp.
type BucketKey func(time.Time) string

var (
	// ByHour buckets by hour of day, "00" to "23".
	ByHour BucketKey = func(t time.Time) string { return t.Format("15") }
	// ByDate buckets by calendar date.
	ByDate BucketKey = func(t time.Time) string { return t.Format("2006-01-02") }
)

// ParseBucketKey maps a granularity name to its BucketKey.
func ParseBucketKey(name string) (BucketKey, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hour", "hourly":
		return ByHour, nil
	case "date", "day", "daily":
		return ByDate, nil
	}
	return nil, fmt.Errorf("unknown bucket granularity %q (want hour or date)", name)
}

// Bucket is the reconstruction of the records sharing one bucket key.
type Bucket struct {
	Key    string  `json:"key"`
	Report *Report `json:"report"`
}

// ReconstructBuckets runs the reconstruction per bucket. Elapsed time is still
// measured against the next record in the full sequence, so a pair that
// straddles a bucket boundary counts toward the earlier record's bucket.
// Buckets are returned in ascending key order.
func ReconstructBuckets(records []activity.Record, key BucketKey, opts Options) ([]Bucket, error) {
	if key == nil {
		key = ByDate
	}
	tallies := make(map[string]*tally)
	pick := func(r activity.Record) *tally {
		k := key(r.Timestamp)
		t, ok := tallies[k]
		if !ok {
			t = newTally()
			tallies[k] = t
		}
		return t
	}
	if err := walk(records, opts, pick); err != nil {
		return nil, err
	}

	buckets := make([]Bucket, 0, len(tallies))
	for k, t := range tallies {
		buckets = append(buckets, Bucket{Key: k, Report: t.report(time.Time{}, time.Time{})})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	return buckets, nil
}
