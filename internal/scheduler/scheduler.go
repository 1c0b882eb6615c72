// Package scheduler runs independently-timed periodic jobs. Jobs never
// block each other and a failing iteration never stops the loop.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/tinftsol/lenda/internal/observability"
)

// Job is one periodic unit of work. Run is invoked immediately on start and
// then re-armed a fixed Interval after each iteration completes, so
// iterations of the same job never overlap.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler launches registered jobs and keeps them re-arming until the
// context is cancelled. Cancellation is cooperative: an in-flight iteration
// finishes (subject to its own per-call timeouts) and no new iteration
// begins afterwards.
type Scheduler struct {
	jobs   []Job
	logger *log.Logger
	wg     sync.WaitGroup
}

// Options contains configuration for creating a Scheduler.
type Options struct {
	Jobs   []Job
	Logger *log.Logger
}

// New creates a scheduler.
func New(opts Options) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Scheduler{
		jobs:   opts.Jobs,
		logger: logger,
	}
}

// Start launches every registered job in its own goroutine. Each job fires
// immediately and then after its own fixed interval, independent of the
// others. Start returns right away; use Wait to block until all jobs have
// stopped.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go func(job Job) {
			defer s.wg.Done()
			s.runLoop(ctx, job)
		}(job)
	}
	s.logger.Printf("[scheduler] started %d jobs", len(s.jobs))
}

// Wait blocks until every job loop has observed cancellation and returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	s.logger.Printf("[scheduler] job %q started, interval %v", job.Name, job.Interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Printf("[scheduler] job %q stopped", job.Name)
			return
		case <-timer.C:
		}

		s.runOnce(ctx, job)

		// Re-arm after the iteration completes, success or failure.
		timer.Reset(job.Interval)
	}
}

// runOnce executes one iteration. Errors are the iteration's problem only:
// they are logged and the job is re-armed as usual.
func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		observability.RecordJobRun(job.Name, "error", elapsed.Seconds())
		s.logger.Printf("[scheduler] job %q failed after %v: %v", job.Name, elapsed, err)
		return
	}

	observability.RecordJobRun(job.Name, "success", elapsed.Seconds())
	s.logger.Printf("[scheduler] job %q completed in %v", job.Name, elapsed)
}
