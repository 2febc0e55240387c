package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/fakeyudi/focuslog/internal/activity"
	"github.com/fakeyudi/focuslog/internal/store"
)

func openTemp(t *testing.T) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracker.db")
	s, err := store.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func at(h, m, sec int) time.Time {
	return time.Date(2024, 5, 6, h, m, sec, 0, time.Local)
}

func TestOpenMigratesToLatest(t *testing.T) {
	s, _ := openTemp(t)
	v, err := s.Version(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 4, v)
}

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	label := "deep work"
	first, err := s.Append(ctx, activity.Record{
		Timestamp: at(9, 0, 0).Add(400 * time.Millisecond),
		Focus:     activity.Focus{AppName: "Terminal", WindowTitle: "vim"},
		Session:   &label,
		RunID:     "run-1",
	})
	require.NoError(t, err)
	second, err := s.Append(ctx, activity.Record{
		Timestamp: at(9, 0, 1),
		Focus:     activity.Focus{AppName: "Safari", WindowTitle: "Go", URL: activity.StringPtr("https://go.dev/")},
		RunID:     "run-1",
	})
	require.NoError(t, err)
	require.Greater(t, second.ID, first.ID)
	require.True(t, first.Timestamp.Equal(at(9, 0, 0)))

	records, bad, err := s.Between(ctx, at(8, 0, 0), at(10, 0, 0))
	require.NoError(t, err)
	require.Empty(t, bad)
	require.Len(t, records, 2)

	require.Equal(t, "Terminal", records[0].AppName)
	require.Nil(t, records[0].URL)
	require.Equal(t, "deep work", records[0].SessionLabel())
	require.Equal(t, "run-1", records[0].RunID)
	require.NotNil(t, records[1].URL)
	require.Equal(t, "https://go.dev/", *records[1].URL)
	require.Nil(t, records[1].Session)
	require.True(t, records[1].Timestamp.Equal(at(9, 0, 1)))
}

func TestBetweenIsHalfOpenAndOrdered(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	for _, ts := range []time.Time{at(9, 0, 30), at(9, 0, 0), at(10, 0, 0), at(8, 59, 59)} {
		_, err := s.Append(ctx, activity.Record{Timestamp: ts, Focus: activity.Focus{AppName: "A"}})
		require.NoError(t, err)
	}

	records, _, err := s.Between(ctx, at(9, 0, 0), at(10, 0, 0))
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.True(t, records[0].Timestamp.Equal(at(9, 0, 0)))
	require.True(t, records[1].Timestamp.Equal(at(9, 0, 30)))
}

func TestBetweenReportsMalformedRows(t *testing.T) {
	ctx := context.Background()
	s, path := openTemp(t)

	_, err := s.Append(ctx, activity.Record{Timestamp: at(9, 0, 0), Focus: activity.Focus{AppName: "A"}})
	require.NoError(t, err)

	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer raw.Close()
	_, err = raw.Exec(`INSERT INTO activities (timestamp, app_name) VALUES ('2024-05-06 09:xx', 'B')`)
	require.NoError(t, err)

	records, bad, err := s.Between(ctx, at(9, 0, 0), at(10, 0, 0))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, bad, 1)
	require.Equal(t, "2024-05-06 09:xx", bad[0].Raw)
}

func TestLegacyDatabaseIsUpgraded(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tracker.db")

	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = raw.Exec(`
		CREATE TABLE activities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			app_name TEXT NOT NULL,
			window_title TEXT,
			url TEXT,
			session TEXT
		);
		INSERT INTO activities (timestamp, app_name, window_title, url, session)
		VALUES ('2024-05-06 09:00:00', 'Firefox', NULL, 'https://example.com', 'old');`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	s, err := store.Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	records, bad, err := s.All(ctx)
	require.NoError(t, err)
	require.Empty(t, bad)
	require.Len(t, records, 1)
	require.Equal(t, "old", records[0].SessionLabel())
	require.Equal(t, "", records[0].WindowTitle)
	require.Equal(t, "", records[0].RunID)

	_, err = s.Append(ctx, activity.Record{Timestamp: at(9, 1, 0), Focus: activity.Focus{AppName: "A"}, RunID: "r"})
	require.NoError(t, err)
}

func TestNormalizeTimezoneRunsOnce(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	utc := time.Date(2024, 5, 6, 1, 0, 0, 0, time.UTC)
	_, err := s.Append(ctx, activity.Record{
		// Stored as the UTC wall clock, as older releases did.
		Timestamp: time.Date(2024, 5, 6, 1, 0, 0, 0, time.Local),
		Focus:     activity.Focus{AppName: "A"},
	})
	require.NoError(t, err)

	res, err := s.NormalizeTimezone(ctx, time.UTC)
	require.NoError(t, err)
	require.Equal(t, 1, res.Converted)
	require.Empty(t, res.Skipped)

	records, _, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].Timestamp.Equal(utc), "got %v want %v", records[0].Timestamp, utc.Local())

	_, err = s.NormalizeTimezone(ctx, time.UTC)
	require.True(t, errors.Is(err, store.ErrAlreadyApplied), "got %v", err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Contains(t, st.Timezone, "UTC")
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Zero(t, st.Records)
	require.Nil(t, st.First)
	require.Empty(t, st.Timezone)

	for _, ts := range []time.Time{at(9, 0, 0), at(11, 30, 0)} {
		_, err := s.Append(ctx, activity.Record{Timestamp: ts, Focus: activity.Focus{AppName: "A"}})
		require.NoError(t, err)
	}
	st, err = s.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, st.Records)
	require.True(t, st.First.Equal(at(9, 0, 0)))
	require.True(t, st.Last.Equal(at(11, 30, 0)))
	require.EqualValues(t, 4, st.SchemaVersion)
}

func TestAppendAfterCloseIsWriteError(t *testing.T) {
	s, _ := openTemp(t)
	require.NoError(t, s.Close())

	_, err := s.Append(context.Background(), activity.Record{Timestamp: at(9, 0, 0), Focus: activity.Focus{AppName: "A"}})
	var we *store.WriteError
	require.ErrorAs(t, err, &we)
}
