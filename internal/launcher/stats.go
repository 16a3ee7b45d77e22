package launcher

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a resource usage sample of a server process.
type Stats struct {
	PID        int       `json:"pid"`
	Running    bool      `json:"running"`
	RSSBytes   uint64    `json:"rss_bytes,omitempty"`
	CPUPercent float64   `json:"cpu_percent,omitempty"`
	CreateTime time.Time `json:"create_time,omitzero"`
}

// Stats samples resource usage of the process.
//
// An exited process yields Running=false and no usage figures.
func (p *ChildProcess) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{PID: p.PID()}

	if _, exited := p.Exit(); exited {
		return stats, nil
	}

	return sample(ctx, stats)
}

// sample fills stats for stats.PID using the OS process table.
func sample(ctx context.Context, stats *Stats) (*Stats, error) {
	//nolint:gosec // G115: PIDs fit in int32 on every supported platform
	proc, err := process.NewProcessWithContext(ctx, int32(stats.PID))
	if err != nil {
		if stderrors.Is(err, process.ErrorProcessNotRunning) {
			return stats, nil
		}

		return nil, fmt.Errorf("inspect process %d: %w", stats.PID, err)
	}

	running, err := proc.IsRunningWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("inspect process %d: %w", stats.PID, err)
	}

	stats.Running = running
	if !running {
		return stats, nil
	}

	// Usage figures are best-effort; platforms may not expose all of them.
	if mem, err := proc.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		stats.RSSBytes = mem.RSS
	}

	if cpu, err := proc.CPUPercentWithContext(ctx); err == nil {
		stats.CPUPercent = cpu
	}

	if created, err := proc.CreateTimeWithContext(ctx); err == nil {
		stats.CreateTime = time.UnixMilli(created)
	}

	return stats, nil
}
