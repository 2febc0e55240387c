//go:build linux

package probe

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fakeyudi/focuslog/internal/activity"
)

// x11Probe reads the active X11 window through xdotool and resolves the owning
// process name from its PID. Browser URLs are not exposed by X11, so URL is
// always nil here.
type x11Probe struct {
	run    Runner
	lookup func(ctx context.Context, pid int32) (string, error)
}

func newPlatform(opts Options) Probe {
	return &x11Probe{run: opts.runner(), lookup: processName}
}

// Sample implements Probe.
func (p *x11Probe) Sample(ctx context.Context) (activity.Focus, error) {
	rawPID, err := p.run(ctx, "xdotool", "getactivewindow", "getwindowpid")
	if err != nil {
		return activity.Focus{}, fmt.Errorf("%w: %v", ErrNoSample, err)
	}
	pid, err := strconv.ParseInt(clean(rawPID), 10, 32)
	if err != nil {
		return activity.Focus{}, fmt.Errorf("%w: bad pid %q", ErrNoSample, clean(rawPID))
	}
	name, err := p.lookup(ctx, int32(pid))
	if err != nil {
		return activity.Focus{}, fmt.Errorf("%w: %v", ErrNoSample, err)
	}

	// A window without a title is still a sample.
	title, err := p.run(ctx, "xdotool", "getactivewindow", "getwindowname")
	if err != nil {
		title = ""
	}
	return activity.Focus{AppName: name, WindowTitle: clean(title)}, nil
}
