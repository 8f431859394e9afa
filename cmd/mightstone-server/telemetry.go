package main

import (
	"context"
	"log/slog"

	"mightstone-backend/internal/app"
	"mightstone-backend/lib/telemetry"
	"mightstone-backend/lib/util/serviceutil"
)

// InitTelemetry installs the logger and the otel providers, the returned
// func flushes them.
func InitTelemetry(ctx context.Context, cfg app.Config, verbose bool) func() {
	level := telemetry.ParseLevel(cfg.Telemetry.LogLevel)
	if verbose {
		level = slog.LevelDebug
	}
	telemetry.InitSlog(level, cfg.Telemetry.LogJSON)

	t, err := telemetry.Setup(ctx, "mightstone-server", cfg.Telemetry)
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	telemetry.InstrumentPerfStats(ctx)

	return func() {
		err := t.Shutdown(context.Background())
		if err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
	}
}
