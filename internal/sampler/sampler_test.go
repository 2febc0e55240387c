package sampler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/fakeyudi/focuslog/internal/activity"
	"github.com/fakeyudi/focuslog/internal/probe"
)

type memStore struct {
	records []activity.Record
	fail    error
}

func (m *memStore) Append(_ context.Context, rec activity.Record) (activity.Record, error) {
	if m.fail != nil {
		return activity.Record{}, m.fail
	}
	rec.ID = int64(len(m.records) + 1)
	rec.Timestamp = rec.Timestamp.Truncate(time.Second)
	m.records = append(m.records, rec)
	return rec, nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// scripted returns a probe that yields focus (or err) set by the test.
type scripted struct {
	focus activity.Focus
	err   error
	calls int
}

func (p *scripted) Sample(context.Context) (activity.Focus, error) {
	p.calls++
	return p.focus, p.err
}

func newTestSampler(p probe.Probe, st Appender, clock *fakeClock, logBuf, out *bytes.Buffer) *Sampler {
	s := New(p, st, Config{
		ForceRefresh: 2 * time.Minute,
		RunID:        "run",
		Now:          clock.now,
		Out:          out,
	}, slog.New(slog.NewTextHandler(logBuf, nil)))
	s.started = clock.now()
	s.acc = NewAccumulator(s.started)
	return s
}

func TestTickDeduplicatesAndForcesRefresh(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)}
	st := &memStore{}
	p := &scripted{focus: activity.Focus{AppName: "Terminal", WindowTitle: "zsh"}}
	s := newTestSampler(p, st, clock, &bytes.Buffer{}, &bytes.Buffer{})
	ctx := context.Background()

	for i := 0; i < 119; i++ {
		if err := s.tick(ctx); err != nil {
			t.Fatalf("tick: %v", err)
		}
		clock.advance(time.Second)
	}
	if len(st.records) != 1 {
		t.Fatalf("identical samples within force_refresh: want 1 record, got %d", len(st.records))
	}

	clock.advance(time.Second) // 120s after the first record
	if err := s.tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(st.records) != 2 {
		t.Fatalf("force refresh: want 2 records, got %d", len(st.records))
	}

	p.focus = activity.Focus{AppName: "Terminal", WindowTitle: "vim"}
	clock.advance(time.Second)
	if err := s.tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(st.records) != 3 {
		t.Fatalf("title change: want 3 records, got %d", len(st.records))
	}
	if st.records[2].RunID != "run" || st.records[2].Session != nil {
		t.Errorf("unexpected record: %+v", st.records[2])
	}
}

func TestURLChangeIsPersisted(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)}
	st := &memStore{}
	p := &scripted{focus: activity.Focus{AppName: "Safari", WindowTitle: "x"}}
	s := newTestSampler(p, st, clock, &bytes.Buffer{}, &bytes.Buffer{})

	_ = s.tick(context.Background())
	p.focus.URL = activity.StringPtr("https://example.com")
	clock.advance(time.Second)
	_ = s.tick(context.Background())

	if len(st.records) != 2 {
		t.Fatalf("nil -> url must count as a change, got %d records", len(st.records))
	}
}

func TestProbeFailureLoggedOnce(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)}
	var logs bytes.Buffer
	st := &memStore{}
	p := &scripted{err: probe.ErrNoSample}
	s := newTestSampler(p, st, clock, &logs, &bytes.Buffer{})

	for i := 0; i < 5; i++ {
		if err := s.tick(context.Background()); err != nil {
			t.Fatalf("probe failures must not stop the loop: %v", err)
		}
	}
	if n := strings.Count(logs.String(), "probe failed"); n != 1 {
		t.Errorf("want the failure logged once, got %d:\n%s", n, logs.String())
	}
	if len(st.records) != 0 {
		t.Errorf("no records expected, got %d", len(st.records))
	}

	p.err = nil
	p.focus = activity.Focus{AppName: "A"}
	if err := s.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !strings.Contains(logs.String(), "probe recovered") || len(st.records) != 1 {
		t.Errorf("expected recovery and one record, logs:\n%s", logs.String())
	}
}

func TestStoreFailureIsFatal(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)}
	boom := errors.New("disk full")
	s := newTestSampler(&scripted{focus: activity.Focus{AppName: "A"}}, &memStore{fail: boom}, clock, &bytes.Buffer{}, &bytes.Buffer{})

	err := s.Run(context.Background(), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("want store error from Run, got %v", err)
	}
}

func TestSessionCommands(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)}
	st := &memStore{}
	var out bytes.Buffer
	p := &scripted{focus: activity.Focus{AppName: "A"}}
	s := newTestSampler(p, st, clock, &bytes.Buffer{}, &out)
	ctx := context.Background()

	s.handle(Command{Kind: CmdStop, Raw: "s"})
	if !strings.Contains(out.String(), "No active session") {
		t.Errorf("stop in NoSession must be reported, got %q", out.String())
	}

	s.handle(Command{Kind: CmdStart, Label: "writing"})
	_ = s.tick(ctx)
	if st.records[0].SessionLabel() != "writing" {
		t.Fatalf("record should carry the session label, got %+v", st.records[0])
	}

	s.handle(Command{Kind: CmdStart, Label: "review"})
	if s.state.Current().Label != "review" || !strings.Contains(out.String(), "replaced") {
		t.Errorf("start while in session must replace the label, out=%q", out.String())
	}

	s.handle(Command{Kind: CmdStop})
	if s.state.Current() != nil {
		t.Error("expected NoSession after stop")
	}

	s.handle(Command{Kind: CmdUnknown, Raw: "dance"})
	if !strings.Contains(out.String(), `Invalid command "dance"`) {
		t.Errorf("unknown command not reported: %q", out.String())
	}
}

func TestSessionStartResetsAccumulator(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)}
	st := &memStore{}
	p := &scripted{focus: activity.Focus{AppName: "A"}}
	s := newTestSampler(p, st, clock, &bytes.Buffer{}, &bytes.Buffer{})
	ctx := context.Background()

	_ = s.tick(ctx)
	clock.advance(30 * time.Second)
	p.focus = activity.Focus{AppName: "B"}
	_ = s.tick(ctx)
	if top := s.Top(5); len(top) != 1 || top[0].Identity != "A" || top[0].Duration != 30*time.Second {
		t.Fatalf("unexpected accumulator: %+v", top)
	}

	clock.advance(10 * time.Second)
	s.handle(Command{Kind: CmdStart, Label: "focus"})
	if top := s.Top(5); len(top) != 0 {
		t.Fatalf("accumulator must be empty after session start, got %+v", top)
	}

	clock.advance(20 * time.Second)
	p.focus = activity.Focus{AppName: "C"}
	_ = s.tick(ctx)
	top := s.Top(5)
	if len(top) != 1 || top[0].Identity != "B" || top[0].Duration != 20*time.Second || top[0].Percent != 100 {
		t.Fatalf("only time after the reset counts, got %+v", top)
	}
}

func TestRunStopsOnQuitAndCancel(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)}
	s := newTestSampler(&scripted{focus: activity.Focus{AppName: "A"}}, &memStore{}, clock, &bytes.Buffer{}, &bytes.Buffer{})

	cmds := make(chan Command, 1)
	cmds <- Command{Kind: CmdQuit}
	if err := s.Run(context.Background(), cmds); err != nil {
		t.Fatalf("quit: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s2 := newTestSampler(&scripted{focus: activity.Focus{AppName: "A"}}, &memStore{}, clock, &bytes.Buffer{}, &bytes.Buffer{})
	done := make(chan error, 1)
	go func() { done <- s2.Run(ctx, nil) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestStatusOutput(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)}
	var out bytes.Buffer
	p := &scripted{focus: activity.Focus{AppName: "A"}}
	s := newTestSampler(p, &memStore{}, clock, &bytes.Buffer{}, &out)

	s.handle(Command{Kind: CmdStatus})
	if !strings.Contains(out.String(), "No activities to display.") {
		t.Errorf("empty status: %q", out.String())
	}

	_ = s.tick(context.Background())
	clock.advance(90 * time.Second)
	p.focus = activity.Focus{AppName: "B"}
	_ = s.tick(context.Background())
	out.Reset()
	s.handle(Command{Kind: CmdStatus})
	for _, want := range []string{"Tracking for 1m 30s.", "No active session.", "A: 100.00%"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("status missing %q:\n%s", want, out.String())
		}
	}
}
