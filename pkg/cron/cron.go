// Package cron schedules the periodic registry jobs.
package cron

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
	"github.com/tricox-dev/tricox/pkg/jobs"
)

// Scheduler is a cron-like job scheduler.
type Scheduler struct {
	*cron.Cron
	logger *log.Logger
}

// cronLogger adapts a charm logger to the cron logger interface.
type cronLogger struct {
	logger *log.Logger
}

// Info logs routine messages about cron's operation.
func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

// Error logs an error condition.
func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "err", err)...)
}

// NewScheduler returns a new Scheduler. Jobs that panic are recovered and
// runs overlapping a previous run are skipped.
func NewScheduler(ctx context.Context) *Scheduler {
	logger := log.FromContext(ctx).WithPrefix("cron")
	clog := cronLogger{logger}
	return &Scheduler{
		Cron: cron.New(
			cron.WithLogger(clog),
			cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
		),
		logger: logger,
	}
}

// Shutdown stops the Scheduler and waits up to 30 seconds for running jobs.
func (s *Scheduler) Shutdown() {
	ctx, cancel := context.WithTimeout(s.Cron.Stop(), 30*time.Second)
	defer cancel()
	<-ctx.Done()
}

// Start starts the Scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
}

// AddFunc adds a job to the Scheduler.
func (s *Scheduler) AddFunc(spec string, fn func()) (int, error) {
	id, err := s.Cron.AddFunc(spec, fn)
	return int(id), err
}

// Remove removes a job from the Scheduler.
func (s *Scheduler) Remove(id int) {
	s.Cron.Remove(cron.EntryID(id))
}

// AddJobs schedules every registered job. Jobs with an empty spec are
// disabled.
func (s *Scheduler) AddJobs(ctx context.Context) error {
	for name, job := range jobs.List() {
		spec := job.Runner.Spec(ctx)
		if spec == "" {
			s.logger.Debug("job disabled", "job", name)
			continue
		}

		id, err := s.AddFunc(spec, job.Runner.Func(ctx))
		if err != nil {
			return err
		}
		job.ID = id
		s.logger.Debug("scheduled job", "job", name, "spec", spec)
	}

	return nil
}
