// Package activity defines the activity log record and the rules that turn a
// record into the identity time is attributed to.
package activity

import (
	"time"
)

// TimeLayout is the persisted timestamp layout: local wall-clock time with
// second resolution.
const TimeLayout = "2006-01-02 15:04:05"

// Focus is what the window probe observed at one instant.
type Focus struct {
	AppName     string
	WindowTitle string
	URL         *string // nil when no URL is available
}

// Equal reports whether f and o describe the same (app, title, url) triple.
func (f Focus) Equal(o Focus) bool {
	if f.AppName != o.AppName || f.WindowTitle != o.WindowTitle {
		return false
	}
	if (f.URL == nil) != (o.URL == nil) {
		return false
	}
	return f.URL == nil || *f.URL == *o.URL
}

// Record is one immutable row of the activity log.
type Record struct {
	ID        int64
	Timestamp time.Time
	Focus
	Session *string // operator session label, nil outside a session
	RunID   string  // identifies the tracking run that produced the row
}

// SessionLabel returns the session label or "" when the record has none.
func (r Record) SessionLabel() string {
	if r.Session == nil {
		return ""
	}
	return *r.Session
}

// FormatTimestamp renders t in the persisted layout, in local time.
func FormatTimestamp(t time.Time) string {
	return t.In(time.Local).Format(TimeLayout)
}

// ParseTimestamp parses a persisted timestamp as local time.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, s, time.Local)
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
