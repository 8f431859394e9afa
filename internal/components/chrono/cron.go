package chrono

import (
	"fmt"
	"time"

	"mightstone-backend/internal/components/telemetry"

	"github.com/robfig/cron/v3"
)

const (
	report_cron_job = "cron.job"
	report_cron     = "cron"
)

// CronAPI schedules callbacks. expr accepts five field expressions and
// descriptors such as "@daily" or "@every 1h".
type CronAPI interface {
	Cron(expr string, callback func()) error
}

// StandardCron runs jobs on a robfig/cron scheduler. A panicking job is
// reported and does not stop the scheduler.
type StandardCron struct {
	cron *cron.Cron
	tel  telemetry.API
}

// NewStandardCron creates and starts a StandardCron, call Stop to release it.
func NewStandardCron(tel telemetry.API) StandardCron {
	logger := cronLogger{tel: tel}
	scheduler := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	scheduler.Start()
	return StandardCron{cron: scheduler, tel: tel}
}

func (s StandardCron) Cron(expr string, callback func()) error {
	_, err := s.cron.AddFunc(expr, func() {
		start := time.Now()
		callback()
		s.tel.ReportDebug(report_cron_job, expr, time.Since(start).String())
	})
	if err != nil {
		return fmt.Errorf("cron expression %q: %w", expr, err)
	}
	return nil
}

// Stop waits for running jobs to return.
func (s StandardCron) Stop() {
	<-s.cron.Stop().Done()
}

// cronLogger adapts telemetry.API to cron.Logger.
type cronLogger struct {
	tel telemetry.API
}

func pairs(keysAndValues []any) []any {
	out := make([]any, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out = append(out, fmt.Sprintf("%v=%v", keysAndValues[i], keysAndValues[i+1]))
	}
	return out
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.tel.ReportDebug(report_cron+": "+msg, pairs(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.tel.ReportBroken(report_cron, append([]any{fmt.Errorf("%s: %w", msg, err)}, pairs(keysAndValues)...)...)
}
