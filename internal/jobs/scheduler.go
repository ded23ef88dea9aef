// Package jobs runs the recurring director ticks. Each job type fires on
// its own interval; a firing is skipped outright when the previous one of
// the same job is still running, and when this instance is not the
// scheduler leader.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/adrianhensler/botterverse/pkg/logging"
)

// Scheduler wraps robfig/cron with leader gating and per-job time boxing.
type Scheduler struct {
	cron     *cron.Cron
	logger   logging.Logger
	isLeader func() bool
}

// NewScheduler builds a scheduler. isLeader is consulted at every firing;
// pass nil for single-instance deployments.
func NewScheduler(logger logging.Logger, isLeader func() bool) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger:   logger,
		isLeader: isLeader,
	}
}

// Add registers a recurring job. Each run is boxed by timeout so a stalled
// provider call delays only that job's next firing.
func (s *Scheduler) Add(name string, every, timeout time.Duration, fn func(ctx context.Context)) error {
	if every <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	_, err := s.cron.AddJob("@every "+every.String(), cron.FuncJob(func() {
		if s.isLeader != nil && !s.isLeader() {
			s.logger.WithField("job", name).Debug("Skipping job on standby instance")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		fn(ctx)
	}))
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	s.logger.WithFields(logging.Fields{
		"job":      name,
		"interval": every.String(),
	}).Info("Registered scheduler job")
	return nil
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// cronLogger adapts logrus to cron's logging interface.
type cronLogger struct {
	logger logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.logger.WithField("cron", keysAndValues).Debug(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.logger.WithError(err).WithField("cron", keysAndValues).Error(msg)
}
