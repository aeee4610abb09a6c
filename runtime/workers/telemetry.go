package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"chat-relay/runtime"
)

// TelemetryWorker logs engine health (online sessions, self CPU and
// memory) on a fixed interval.
type TelemetryWorker struct {
	log      *slog.Logger
	registry *runtime.Registry
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, registry *runtime.Registry,
	interval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, registry: registry, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Warn("Failed to collect self stats", "error", err)
				continue
			}
			w.log.Info("Engine stats",
				"online", w.registry.Len(),
				"cpu_percent", cpu,
				"ram_bytes", rss)
		}
	}
}

func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
