// Package probe reads which application, window and browser URL currently
// hold the user's focus.
package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/fakeyudi/focuslog/internal/activity"
)

var (
	// ErrNoSample is returned when the focused window could not be read.
	// An empty window title is a valid sample, not an error.
	ErrNoSample = errors.New("no focused window")
	// ErrUnsupported is returned on platforms without a probe back-end.
	ErrUnsupported = errors.New("window probing is not supported on this platform")
)

// DefaultTimeout bounds a single Sample call.
const DefaultTimeout = 2 * time.Second

// Probe samples the currently focused window.
type Probe interface {
	Sample(ctx context.Context) (activity.Focus, error)
}

// Func adapts a plain function to the Probe interface.
type Func func(ctx context.Context) (activity.Focus, error)

// Sample implements Probe.
func (f Func) Sample(ctx context.Context) (activity.Focus, error) { return f(ctx) }

// Runner executes an external command and returns its standard output.
// This abstraction allows mocking in tests.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// execRunner runs the command as a real subprocess.
func execRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return string(out), nil
}

// Options configures the platform probe.
type Options struct {
	// IsBrowser decides whether the focused app's tab URL should be read.
	// Nil uses activity.IsBrowser.
	IsBrowser func(appName string) bool
	// Runner executes helper commands; nil runs real subprocesses.
	Runner Runner
	// Timeout bounds each Sample call; zero uses DefaultTimeout.
	Timeout time.Duration
}

func (o Options) runner() Runner {
	if o.Runner == nil {
		return execRunner
	}
	return o.Runner
}

func (o Options) isBrowser(app string) bool {
	if o.IsBrowser == nil {
		return activity.IsBrowser(app)
	}
	return o.IsBrowser(app)
}

// New returns the probe for the running platform, bounded by opts.Timeout.
func New(opts Options) Probe {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return WithTimeout(newPlatform(opts), timeout)
}

// WithTimeout bounds every Sample call of p by d. A call that runs out of
// time fails with ErrNoSample.
func WithTimeout(p Probe, d time.Duration) Probe {
	return Func(func(ctx context.Context) (activity.Focus, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		f, err := p.Sample(ctx)
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrNoSample) {
			return activity.Focus{}, fmt.Errorf("%w: timed out after %s", ErrNoSample, d)
		}
		return f, err
	})
}

// clean trims the trailing newline that command output carries.
func clean(s string) string {
	return strings.TrimSpace(s)
}
