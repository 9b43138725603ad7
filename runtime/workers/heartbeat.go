package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"chat-relay/observability"
)

// HeartbeatWorker periodically logs process health (CPU, RSS) together
// with the delivery counters, giving an operator a pulse without a
// metrics stack.
type HeartbeatWorker struct {
	log      *slog.Logger
	stats    *observability.DeliveryStats
	interval time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, stats *observability.DeliveryStats, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, stats: stats, interval: interval}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snapshot := w.stats.Snapshot()
			cpu, err := proc.CPUPercent()
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			mem, err := proc.MemoryInfo()
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			w.log.Info("heartbeat",
				"cpu_percent", cpu,
				"rss_mb", mem.RSS/1024/1024,
				"delivered", snapshot.Delivered,
				"dropped", snapshot.Dropped,
				"connects", snapshot.Connects,
				"disconnects", snapshot.Disconnects,
			)
		}
	}
}
