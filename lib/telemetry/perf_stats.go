package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.opentelemetry.io/otel"
)

var (
	meter                = otel.Meter("mightstone.perf_stats")
	cpuGauge, _          = meter.Float64Gauge("cpu_usage")
	memoryGauge, _       = meter.Int64Gauge("allocated_mb")
	systemMemoryGauge, _ = meter.Float64Gauge("system_memory_used_percent")
	goroutineGauge, _    = meter.Int64Gauge("goroutine_count")
)

// PerfStats is one reading of process and host load.
type PerfStats struct {
	CPUPercent   float64
	AllocatedMB  int64
	SystemMemory float64
	Goroutines   int64
}

// ReadPerfStats samples cpu usage over interval.
func ReadPerfStats(ctx context.Context, interval time.Duration) (PerfStats, error) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := PerfStats{
		AllocatedMB: int64(memStats.Alloc / 1_000_000),
		Goroutines:  int64(runtime.NumGoroutine()),
	}
	usage, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return stats, err
	}
	if len(usage) > 0 {
		stats.CPUPercent = usage[0]
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return stats, err
	}
	stats.SystemMemory = vm.UsedPercent
	return stats, nil
}

// InstrumentPerfStats records PerfStats to the global meter every 30
// seconds until ctx is done.
func InstrumentPerfStats(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Second * 30)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stats, err := ReadPerfStats(ctx, time.Second)
				if err != nil {
					slog.Warn("failed to read perf stats", "err", err)
				}
				cpuGauge.Record(ctx, stats.CPUPercent)
				memoryGauge.Record(ctx, stats.AllocatedMB)
				systemMemoryGauge.Record(ctx, stats.SystemMemory)
				goroutineGauge.Record(ctx, stats.Goroutines)
			case <-ctx.Done():
				return
			}
		}
	}()
}
