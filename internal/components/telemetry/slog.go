package telemetry

import (
	"context"
	"log/slog"
	"strconv"
)

// SlogAPI writes reports as structured log records. The zero value logs
// through slog.Default().
type SlogAPI struct {
	Logger *slog.Logger
}

func (s SlogAPI) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func paramAttrs(params []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(params))
	for i, p := range params {
		key := "p" + strconv.Itoa(i)
		switch v := p.(type) {
		case error:
			attrs = append(attrs, slog.String("err", v.Error()))
		case nil:
			attrs = append(attrs, slog.String(key, "<nil>"))
		default:
			attrs = append(attrs, slog.Any(key, v))
		}
	}
	return attrs
}

func (s SlogAPI) emit(level slog.Level, msg, id string, params []any) {
	logger := s.logger()
	ctx := context.Background()
	if !logger.Enabled(ctx, level) {
		return
	}
	attrs := paramAttrs(params)
	if id != "" {
		attrs = append([]slog.Attr{slog.String("id", id)}, attrs...)
	}
	logger.LogAttrs(ctx, level, msg, attrs...)
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	s.emit(slog.LevelError, "broken", id, params)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	s.emit(slog.LevelWarn, "degraded", id, params)
}

func (s SlogAPI) ReportDebug(msg string, params ...any) {
	s.emit(slog.LevelDebug, msg, "", params)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	s.logger().LogAttrs(context.Background(), slog.LevelInfo, "count", slog.String("id", id), slog.Int64("n", count))
}
