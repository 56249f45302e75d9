// Package worker runs the engine's periodic jobs (drip batches and phase
// guard runs) on tickers. Every tick takes a distributed lock first, so any
// number of replicas can run the same schedule.
package worker

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/founders-outreach/internal/pkg/distlock"
	"github.com/ignite/founders-outreach/internal/pkg/logger"
)

// DefaultLockTTL bounds how long a crashed holder can block a job.
const DefaultLockTTL = 10 * time.Minute

// Job is one periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	LockKey  string
	LockTTL  time.Duration
	Run      func(ctx context.Context) error
}

// Runner ticks a set of jobs until its context is cancelled.
type Runner struct {
	locks distlock.Factory
	jobs  []Job
	log   *logger.Logger
}

// NewRunner creates a runner. Jobs with a non-positive interval are skipped.
func NewRunner(locks distlock.Factory, jobs ...Job) *Runner {
	return &Runner{
		locks: locks,
		jobs:  jobs,
		log:   logger.With("component", "worker"),
	}
}

// Start runs every job once immediately and then on its interval. It blocks
// until ctx is cancelled and returns nil on a clean stop.
func (r *Runner) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, job := range r.jobs {
		if job.Interval <= 0 || job.Run == nil {
			r.log.Warn("job disabled", "job", job.Name)
			continue
		}
		job := job
		g.Go(func() error {
			r.loop(ctx, job)
			return nil
		})
	}
	return g.Wait()
}

func (r *Runner) loop(ctx context.Context, job Job) {
	r.log.Info("job started", "job", job.Name, "interval", job.Interval.String())
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	r.RunOnce(ctx, job)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("job stopped", "job", job.Name)
			return
		case <-ticker.C:
			r.RunOnce(ctx, job)
		}
	}
}

// RunOnce executes a job under its lock. A lock held elsewhere is not an
// error; the tick is skipped.
func (r *Runner) RunOnce(ctx context.Context, job Job) {
	start := time.Now()
	var err error
	if r.locks == nil || job.LockKey == "" {
		err = job.Run(ctx)
	} else {
		ttl := job.LockTTL
		if ttl <= 0 {
			ttl = DefaultLockTTL
		}
		err = distlock.Run(ctx, r.locks(job.LockKey, ttl), job.Run)
	}

	switch {
	case err == nil:
		r.log.Debug("job finished", "job", job.Name, "duration", time.Since(start).String())
	case errors.Is(err, distlock.ErrNotAcquired):
		r.log.Debug("job skipped: lock held", "job", job.Name)
	case errors.Is(err, context.Canceled):
	default:
		r.log.Error("job failed", "job", job.Name, "error", err)
	}
}
