// Package scheduler runs the month-end season archive.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is the work run at each month end. The returned error is logged; it
// does not stop the schedule.
type Job func(ctx context.Context) error

// Monthly fires a Job at 23:59 on the last calendar day of every month in
// loc.
type Monthly struct {
	job    Job
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time

	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func NewMonthly(job Job, loc *time.Location, logger *slog.Logger) *Monthly {
	if loc == nil {
		loc = time.UTC
	}
	return &Monthly{
		job:    job,
		loc:    loc,
		logger: logger,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
}

// NextRun returns the first month-end firing time strictly after now,
// expressed in loc.
func NextRun(now time.Time, loc *time.Location) time.Time {
	now = now.In(loc)
	run := monthEnd(now.Year(), now.Month(), loc)
	if !run.After(now) {
		run = monthEnd(now.Year(), now.Month()+1, loc)
	}
	return run
}

// monthEnd is 23:59 on the last day of the given month. Day 0 of the
// following month normalizes to that day.
func monthEnd(year int, month time.Month, loc *time.Location) time.Time {
	return time.Date(year, month+1, 0, 23, 59, 0, 0, loc)
}

// Start blocks until ctx is cancelled or Stop is called.
func (m *Monthly) Start(ctx context.Context) {
	m.wg.Add(1)
	defer m.wg.Done()

	for {
		now := m.now()
		next := NextRun(now, m.loc)
		m.logger.Info("season archive scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			m.logger.Info("scheduler stopped (context cancelled)")
			return
		case <-m.stopCh:
			timer.Stop()
			m.logger.Info("scheduler stopped")
			return
		case <-timer.C:
			m.run(ctx)
		}
	}
}

func (m *Monthly) run(ctx context.Context) {
	start := time.Now()
	if err := m.job(ctx); err != nil {
		m.logger.Error("month-end job failed", "error", err, "duration", time.Since(start))
		return
	}
	m.logger.Info("month-end job finished", "duration", time.Since(start))
}

// Stop signals Start to return and waits for a running job to finish.
func (m *Monthly) Stop() {
	m.once.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}
