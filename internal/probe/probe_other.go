//go:build !linux && !darwin && !windows

package probe

import (
	"context"

	"github.com/fakeyudi/focuslog/internal/activity"
)

func newPlatform(Options) Probe {
	return Func(func(context.Context) (activity.Focus, error) {
		return activity.Focus{}, ErrUnsupported
	})
}
