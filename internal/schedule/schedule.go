// Package schedule wires the two cron-triggered jobs — binlog sync and
// MSS push — onto robfig/cron, grounded on the teacher's
// pkg/source/cron.CronSource (AddFunc + Start/Stop lifecycle).
package schedule

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/gsoultan/binlogsync/internal/logging"
)

// Job is one scheduled unit of work. Errors are logged, never panicked —
// a single bad run must not take down the scheduler.
type Job func(ctx context.Context) error

// Scheduler wraps a cron.Cron with named jobs logged by the ambient logger.
type Scheduler struct {
	cron *cron.Cron
	log  *logging.Logger
}

// New builds a Scheduler. Each job's run context is the ctx given to AddJob.
func New(log *logging.Logger) *Scheduler {
	return &Scheduler{cron: cron.New(), log: log}
}

// AddJob schedules fn on spec (standard 5-field cron syntax, or a
// descriptor such as "@every 1s"), running it
// under ctx. Returns the entry id for later removal, or an error if spec
// fails to parse.
func (s *Scheduler) AddJob(ctx context.Context, name, spec string, fn Job) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() {
		s.log.Info("scheduled job starting", "job", name)
		if err := fn(ctx); err != nil {
			s.log.Error("scheduled job failed", "job", name, "error", err)
			return
		}
		s.log.Info("scheduled job finished", "job", name)
	})
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler without waiting; the returned context is done
// once any job that was running has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
