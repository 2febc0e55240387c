// Package sampler runs the tracking loop: it polls the window probe, persists
// changes of focus and keeps a live per-session summary.
package sampler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fakeyudi/focuslog/internal/activity"
	"github.com/fakeyudi/focuslog/internal/probe"
	"github.com/fakeyudi/focuslog/internal/render"
)

const (
	DefaultPollInterval = time.Second
	DefaultForceRefresh = 2 * time.Minute
	statusTop           = 5
)

// Appender persists activity records.
type Appender interface {
	Append(ctx context.Context, rec activity.Record) (activity.Record, error)
}

// Config configures a Sampler. Zero values take the defaults.
type Config struct {
	PollInterval time.Duration
	ForceRefresh time.Duration
	RunID        string
	// Classifier returns the identity rules in effect; it is consulted on
	// every persisted record so the rules can change while running.
	Classifier func() *activity.Classifier
	// Out receives operator-facing messages.
	Out io.Writer
	// Now is the clock; nil uses time.Now.
	Now func() time.Time
}

// Sampler is the tracking loop. It is not safe for concurrent use apart from
// SetForceRefresh.
type Sampler struct {
	probe probe.Probe
	store Appender
	cfg   Config
	log   *slog.Logger
	out   io.Writer
	now   func() time.Time
	force atomic.Int64
	cls   func() *activity.Classifier

	state    SessionState
	acc      *Accumulator
	started  time.Time
	last     *activity.Record
	probeErr string
	quit     bool
}

// New returns a Sampler reading from p and appending to st.
func New(p probe.Probe, st Appender, cfg Config, log *slog.Logger) *Sampler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ForceRefresh <= 0 {
		cfg.ForceRefresh = DefaultForceRefresh
	}
	s := &Sampler{probe: p, store: st, cfg: cfg, log: log, out: cfg.Out, now: cfg.Now, cls: cfg.Classifier}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.out == nil {
		s.out = io.Discard
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.cls == nil {
		s.cls = func() *activity.Classifier { return activity.NewClassifier() }
	}
	s.force.Store(int64(cfg.ForceRefresh))
	return s
}

// SetForceRefresh changes the force-refresh interval while running.
func (s *Sampler) SetForceRefresh(d time.Duration) {
	if d > 0 {
		s.force.Store(int64(d))
	}
}

func (s *Sampler) forceRefresh() time.Duration {
	return time.Duration(s.force.Load())
}

// Run samples once per poll interval until ctx is cancelled, a quit command
// arrives or a record cannot be persisted. Only the latter returns an error.
func (s *Sampler) Run(ctx context.Context, cmds <-chan Command) error {
	s.started = s.now()
	s.acc = NewAccumulator(s.started)
	s.log.Info("tracking started", "run_id", s.cfg.RunID, "poll", s.cfg.PollInterval, "force_refresh", s.forceRefresh())
	fmt.Fprintln(s.out, "Tracking started.", Usage)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		cmds = s.drain(cmds)
		if s.quit {
			s.log.Info("tracking stopped by operator")
			return nil
		}
		if err := s.tick(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			s.log.Info("tracking stopped", "reason", ctx.Err())
			return nil
		case <-ticker.C:
		}
	}
}

// drain handles every queued command without blocking. It returns nil once
// the command source is closed.
func (s *Sampler) drain(cmds <-chan Command) <-chan Command {
	for cmds != nil && !s.quit {
		select {
		case cmd, ok := <-cmds:
			if !ok {
				return nil
			}
			s.handle(cmd)
		default:
			return cmds
		}
	}
	return cmds
}

func (s *Sampler) handle(cmd Command) {
	now := s.now()
	switch cmd.Kind {
	case CmdStart:
		if prev := s.state.Start(cmd.Label, now); prev != nil {
			s.log.Info("session replaced", "from", prev.Label, "to", cmd.Label)
			fmt.Fprintf(s.out, "Session %q replaced by %q.\n", prev.Label, cmd.Label)
		} else {
			s.log.Info("session started", "label", cmd.Label)
			fmt.Fprintf(s.out, "Session %q started.\n", cmd.Label)
		}
		s.acc.Reset(now)
	case CmdStop:
		ended, err := s.state.Stop()
		if err != nil {
			fmt.Fprintln(s.out, "No active session to stop.")
			return
		}
		s.log.Info("session stopped", "label", ended.Label, "elapsed", now.Sub(ended.StartTime))
		fmt.Fprintf(s.out, "Session %q stopped after %s.\n", ended.Label, render.Elapsed(now.Sub(ended.StartTime)))
	case CmdStatus:
		s.printStatus(now)
	case CmdQuit:
		s.quit = true
	default:
		fmt.Fprintf(s.out, "Invalid command %q. %s\n", cmd.Raw, Usage)
	}
}

func (s *Sampler) printStatus(now time.Time) {
	fmt.Fprintf(s.out, "Tracking for %s.\n", render.Elapsed(now.Sub(s.started)))
	if cur := s.state.Current(); cur != nil {
		fmt.Fprintf(s.out, "Current session: %s (started %s, elapsed %s)\n",
			cur.Label, cur.StartTime.Format("15:04 02/01/2006"), render.Elapsed(now.Sub(cur.StartTime)))
	} else {
		fmt.Fprintln(s.out, "No active session.")
	}
	top := s.acc.Top(statusTop)
	if len(top) == 0 {
		fmt.Fprintln(s.out, "No activities to display.")
		return
	}
	fmt.Fprintf(s.out, "Top %d activities:\n", len(top))
	for _, sh := range top {
		fmt.Fprintf(s.out, "  %s: %.2f%%\n", sh.Identity, sh.Percent)
	}
}

// tick takes one sample and persists it when focus changed or the last
// record is older than the force-refresh interval.
func (s *Sampler) tick(ctx context.Context) error {
	focus, err := s.probe.Sample(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		if msg := err.Error(); msg != s.probeErr {
			s.log.Warn("probe failed", "error", err)
			s.probeErr = msg
		}
		return nil
	}
	if s.probeErr != "" {
		s.log.Info("probe recovered")
		s.probeErr = ""
	}

	now := s.now()
	if s.last != nil && focus.Equal(s.last.Focus) && now.Sub(s.last.Timestamp) < s.forceRefresh() {
		return nil
	}

	saved, err := s.store.Append(ctx, activity.Record{
		Timestamp: now,
		Focus:     focus,
		Session:   s.state.Label(),
		RunID:     s.cfg.RunID,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("persisting sample: %w", err)
	}
	if s.last != nil {
		s.acc.Add(s.cls().Identity(s.last.Focus), s.last.Timestamp, saved.Timestamp)
	}
	s.last = &saved
	s.log.Debug("recorded", "id", saved.ID, "app", saved.AppName, "title", saved.WindowTitle)
	return nil
}

// Top returns the live accumulator's n leading identities.
func (s *Sampler) Top(n int) []Share {
	if s.acc == nil {
		return nil
	}
	return s.acc.Top(n)
}
