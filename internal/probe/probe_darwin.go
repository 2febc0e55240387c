//go:build darwin

package probe

import (
	"context"
	"fmt"

	"github.com/fakeyudi/focuslog/internal/activity"
)

const (
	frontAppScript   = `tell application "System Events" to get name of first application process whose frontmost is true`
	frontTitleScript = `tell application "System Events" to tell (first application process whose frontmost is true) to get name of front window`
)

// browserScripts returns the AppleScript that reads the URL and title of the
// front tab of app. Firefox exposes neither, so only the window title is
// read for it.
func browserScripts(app string) (url, title string, ok bool) {
	switch app {
	case "Safari":
		return `tell application "Safari" to get URL of front document`,
			`tell application "Safari" to get name of front document`, true
	case "Firefox":
		return "", "", false
	default:
		// Chromium-based browsers share Chrome's dictionary.
		return fmt.Sprintf(`tell application %q to get URL of active tab of front window`, app),
			fmt.Sprintf(`tell application %q to get title of active tab of front window`, app), true
	}
}

type macProbe struct {
	run       Runner
	isBrowser func(string) bool
}

func newPlatform(opts Options) Probe {
	return &macProbe{run: opts.runner(), isBrowser: opts.isBrowser}
}

func (p *macProbe) osascript(ctx context.Context, script string) (string, error) {
	out, err := p.run(ctx, "osascript", "-e", script)
	return clean(out), err
}

// Sample implements Probe.
func (p *macProbe) Sample(ctx context.Context) (activity.Focus, error) {
	app, err := p.osascript(ctx, frontAppScript)
	if err != nil {
		return activity.Focus{}, fmt.Errorf("%w: %v", ErrNoSample, err)
	}
	if app == "" {
		return activity.Focus{}, ErrNoSample
	}
	f := activity.Focus{AppName: app}

	if p.isBrowser(app) {
		if urlScript, titleScript, ok := browserScripts(app); ok {
			if u, err := p.osascript(ctx, urlScript); err == nil {
				f.URL = activity.StringPtr(u)
			}
			if t, err := p.osascript(ctx, titleScript); err == nil {
				f.WindowTitle = t
				return f, nil
			}
		}
	}

	if t, err := p.osascript(ctx, frontTitleScript); err == nil {
		f.WindowTitle = t
	}
	return f, nil
}
