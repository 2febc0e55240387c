package probe

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/process"
)

// processName resolves the executable name of pid.
func processName(ctx context.Context, pid int32) (string, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return "", fmt.Errorf("looking up process %d: %w", pid, err)
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("reading name of process %d: %w", pid, err)
	}
	return name, nil
}
