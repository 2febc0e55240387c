package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fakeyudi/focuslog/internal/activity"
)

// ErrAlreadyApplied is returned by NormalizeTimezone when the log has already
// been normalized once.
var ErrAlreadyApplied = errors.New("timezone normalization already applied")

const metaTimezone = "timezone_normalized"

// TimezoneResult reports what NormalizeTimezone changed.
type TimezoneResult struct {
	Converted int
	Skipped   []MalformedRow
}

// NormalizeTimezone rewrites every stored timestamp from the from zone to
// local time. It runs in a single transaction and may only run once per log.
func (s *Store) NormalizeTimezone(ctx context.Context, from *time.Location) (TimezoneResult, error) {
	var res TimezoneResult
	if from == nil {
		return res, errors.New("source timezone is required")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return res, &WriteError{Op: "normalize timezone", Err: err}
	}
	defer tx.Rollback()

	if applied, ok, err := s.meta(ctx, tx, metaTimezone); err != nil {
		return res, err
	} else if ok {
		return res, fmt.Errorf("%w (%s)", ErrAlreadyApplied, applied)
	}

	var rows []row
	if err := tx.SelectContext(ctx, &rows, selectRows+` ORDER BY id`); err != nil {
		return res, fmt.Errorf("reading activities: %w", err)
	}
	for _, r := range rows {
		ts, err := time.ParseInLocation(activity.TimeLayout, r.Timestamp, from)
		if err != nil {
			res.Skipped = append(res.Skipped, MalformedRow{ID: r.ID, Raw: r.Timestamp, Err: err})
			continue
		}
		if _, err := tx.ExecContext(ctx, `UPDATE activities SET timestamp = ? WHERE id = ?`,
			activity.FormatTimestamp(ts), r.ID); err != nil {
			return res, &WriteError{Op: "normalize timezone", Err: err}
		}
		res.Converted++
	}

	marker := fmt.Sprintf("%s -> %s at %s", from, time.Local, activity.FormatTimestamp(time.Now()))
	if _, err := tx.ExecContext(ctx, `INSERT INTO store_meta (key, value) VALUES (?, ?)`, metaTimezone, marker); err != nil {
		return res, &WriteError{Op: "normalize timezone", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return res, &WriteError{Op: "normalize timezone", Err: err}
	}
	s.log.Info("normalized timestamps", "from", from.String(), "converted", res.Converted, "skipped", len(res.Skipped))
	return res, nil
}
