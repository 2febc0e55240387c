// Package store persists activity records in an append-only SQLite log.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/fakeyudi/focuslog/internal/activity"
	"github.com/fakeyudi/focuslog/internal/logger"
)

// WriteError is returned when a record could not be persisted. The tracker
// treats it as fatal.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// MalformedRow is a stored row whose timestamp could not be parsed. Reads
// report these rows instead of failing.
type MalformedRow struct {
	ID  int64
	Raw string
	Err error
}

// Store is the activity log. It is safe for concurrent use.
type Store struct {
	db   *sqlx.DB
	path string
	log  *slog.Logger
}

// DefaultPath returns $XDG_DATA_HOME/focuslog/tracker.db, falling back to
// ~/.local/share/focuslog/tracker.db.
func DefaultPath() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "focuslog", "tracker.db"), nil
}

// Open opens (creating if needed) the database at path and migrates it to the
// latest schema version.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL lets a report read while a tracker is appending.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	s := &Store{db: db, path: path, log: logger.WithComponent("store")}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// row mirrors the activities table. Nullable text columns stay nullable so
// rows written by older versions read back unchanged.
type row struct {
	ID          int64          `db:"id"`
	Timestamp   string         `db:"timestamp"`
	AppName     string         `db:"app_name"`
	WindowTitle sql.NullString `db:"window_title"`
	URL         sql.NullString `db:"url"`
	Session     sql.NullString `db:"session"`
	RunID       string         `db:"run_id"`
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	return &n.String
}

func toRow(r activity.Record) row {
	return row{
		Timestamp:   activity.FormatTimestamp(r.Timestamp),
		AppName:     r.AppName,
		WindowTitle: sql.NullString{String: r.WindowTitle, Valid: true},
		URL:         nullString(r.URL),
		Session:     nullString(r.Session),
		RunID:       r.RunID,
	}
}

func (r row) record() (activity.Record, error) {
	ts, err := activity.ParseTimestamp(r.Timestamp)
	if err != nil {
		return activity.Record{}, err
	}
	return activity.Record{
		ID:        r.ID,
		Timestamp: ts,
		Focus: activity.Focus{
			AppName:     r.AppName,
			WindowTitle: r.WindowTitle.String,
			URL:         stringPtr(r.URL),
		},
		Session: stringPtr(r.Session),
		RunID:   r.RunID,
	}, nil
}

// Append persists rec and returns it with its assigned id and the timestamp
// truncated to the stored resolution. Failures are *WriteError.
func (s *Store) Append(ctx context.Context, rec activity.Record) (activity.Record, error) {
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO activities (timestamp, app_name, window_title, url, session, run_id)
		VALUES (:timestamp, :app_name, :window_title, :url, :session, :run_id)`, toRow(rec))
	if err != nil {
		return activity.Record{}, &WriteError{Op: "append", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return activity.Record{}, &WriteError{Op: "append", Err: err}
	}
	rec.ID = id
	rec.Timestamp = rec.Timestamp.Truncate(time.Second)
	return rec, nil
}

// selectRows reads the timestamp column as text. The driver would otherwise
// hand DATETIME columns back as time.Time in UTC.
const selectRows = `
	SELECT id, CAST(timestamp AS TEXT) AS timestamp, app_name, window_title, url, session, run_id
	FROM activities`

// Between returns the records with start <= timestamp < end ordered by
// timestamp then id, plus any rows in range whose timestamp does not parse.
func (s *Store) Between(ctx context.Context, start, end time.Time) ([]activity.Record, []MalformedRow, error) {
	var rows []row
	err := s.db.SelectContext(ctx, &rows, selectRows+`
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp, id`,
		activity.FormatTimestamp(start), activity.FormatTimestamp(end))
	if err != nil {
		return nil, nil, fmt.Errorf("reading activities: %w", err)
	}
	return split(rows)
}

// All returns every record in the log, ordered by timestamp then id.
func (s *Store) All(ctx context.Context) ([]activity.Record, []MalformedRow, error) {
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, selectRows+` ORDER BY timestamp, id`); err != nil {
		return nil, nil, fmt.Errorf("reading activities: %w", err)
	}
	return split(rows)
}

func split(rows []row) ([]activity.Record, []MalformedRow, error) {
	records := make([]activity.Record, 0, len(rows))
	var bad []MalformedRow
	for _, r := range rows {
		rec, err := r.record()
		if err != nil {
			bad = append(bad, MalformedRow{ID: r.ID, Raw: r.Timestamp, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, bad, nil
}

// Stats summarizes the log for the status command.
type Stats struct {
	Records       int64
	First         *time.Time
	Last          *time.Time
	SchemaVersion int64
	Timezone      string // value of the timezone normalization marker, "" if never applied
}

// Stats returns the record count, the timestamp range, the schema version and
// the timezone normalization state.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var span struct {
		Count int64          `db:"n"`
		First sql.NullString `db:"first"`
		Last  sql.NullString `db:"last"`
	}
	err := s.db.GetContext(ctx, &span, `
		SELECT COUNT(*) AS n,
		       CAST(MIN(timestamp) AS TEXT) AS first,
		       CAST(MAX(timestamp) AS TEXT) AS last
		FROM activities`)
	if err != nil {
		return st, fmt.Errorf("reading stats: %w", err)
	}
	st.Records = span.Count
	if t, err := activity.ParseTimestamp(span.First.String); err == nil {
		st.First = &t
	}
	if t, err := activity.ParseTimestamp(span.Last.String); err == nil {
		st.Last = &t
	}

	if st.SchemaVersion, err = s.Version(ctx); err != nil {
		return st, err
	}
	tz, _, err := s.meta(ctx, s.db, metaTimezone)
	if err != nil {
		return st, err
	}
	st.Timezone = tz
	return st, nil
}

// meta reads one store_meta value.
func (s *Store) meta(ctx context.Context, q sqlx.QueryerContext, key string) (string, bool, error) {
	var v string
	err := sqlx.GetContext(ctx, q, &v, `SELECT value FROM store_meta WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading store_meta %q: %w", key, err)
	}
	return v, true, nil
}
