//go:build windows

package probe

import (
	"context"
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/fakeyudi/focuslog/internal/activity"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procGetWindowTextW      = user32.NewProc("GetWindowTextW")
	procGetWindowTextLength = user32.NewProc("GetWindowTextLengthW")
)

// win32Probe reads the foreground window through user32. Browser URLs are
// not exposed by the window API, so URL is always nil here.
type win32Probe struct {
	lookup func(ctx context.Context, pid int32) (string, error)
}

func newPlatform(Options) Probe {
	return &win32Probe{lookup: processName}
}

// Sample implements Probe.
func (p *win32Probe) Sample(ctx context.Context) (activity.Focus, error) {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return activity.Focus{}, fmt.Errorf("%w: no foreground window", ErrNoSample)
	}

	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil || pid == 0 {
		return activity.Focus{}, fmt.Errorf("%w: no owning process: %v", ErrNoSample, err)
	}
	name, err := p.lookup(ctx, int32(pid))
	if err != nil {
		return activity.Focus{}, fmt.Errorf("%w: %v", ErrNoSample, err)
	}
	name = strings.TrimSuffix(name, ".exe")

	return activity.Focus{AppName: name, WindowTitle: windowText(hwnd)}, nil
}

func windowText(hwnd windows.HWND) string {
	n, _, _ := procGetWindowTextLength.Call(uintptr(hwnd))
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf)
}
