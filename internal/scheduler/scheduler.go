// Package scheduler runs periodic ledger maintenance on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/services"
	"github.com/robfig/cron/v3"
)

// sweepTimeout bounds one scheduled sweep.
const sweepTimeout = 4 * time.Minute

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func fieldsOf(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, fieldsOf(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, err, fieldsOf(keysAndValues))
}

// OverdueScheduler runs the overdue sweep on a cron schedule.
type OverdueScheduler struct {
	cron    *cron.Cron
	sweeper services.OverdueSweeper
	log     *logger.Logger
	now     func() time.Time
	spec    string
}

// NewOverdueScheduler validates spec (standard five-field cron syntax) and registers
// the sweep. Overlapping runs are skipped.
func NewOverdueScheduler(spec string, location *time.Location, sweeper services.OverdueSweeper, log *logger.Logger) (*OverdueScheduler, error) {
	if location == nil {
		location = time.UTC
	}
	log = log.WithComponent("scheduler")
	cl := cronLogger{log: log}

	s := &OverdueScheduler{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		sweeper: sweeper,
		log:     log,
		now:     time.Now,
		spec:    spec,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid overdue sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *OverdueScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	result, err := s.sweeper.Sweep(ctx, s.now())
	if err != nil {
		s.log.Error("Scheduled overdue sweep failed", err, nil)
		return
	}
	s.log.Info("Scheduled overdue sweep completed", map[string]interface{}{
		"checked":        result.Checked,
		"marked_overdue": result.MarkedOverdue,
	})
}

// Start begins running the schedule in the background.
func (s *OverdueScheduler) Start() {
	s.cron.Start()
	s.log.Info("Overdue sweep scheduled", map[string]interface{}{"schedule": s.spec})
}

// Stop stops the schedule and waits for a running sweep, bounded by ctx.
func (s *OverdueScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next returns the next scheduled run.
func (s *OverdueScheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
