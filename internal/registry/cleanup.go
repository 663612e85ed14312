package registry

import (
	"context"
	"time"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/events"
	"github.com/spoke-d/dispatchd/internal/task"
)

// CleanupInterval is how often parentless jobs are looked for.
const CleanupInterval = time.Hour

// RemoveJobs deletes the given jobs together with their descendants.
func (r *Registry) RemoveJobs(ids []int64) error {
	for _, id := range ids {
		if id < 1 {
			return NotFound("job id must be positive, got %d", id)
		}
	}
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		for _, id := range ids {
			if _, err := tx.JobByID(id); err == db.ErrNoSuchObject {
				return NotFound("job %d does not exist", id)
			} else if err != nil {
				return errors.WithStack(err)
			}
		}
		// Removing a parent takes its descendants along, so later ids may
		// already be gone.
		for _, id := range ids {
			if err := tx.JobRemove(id); err != nil && err != db.ErrNoSuchObject {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	if err != nil {
		return Failure(err)
	}
	r.events.Send(events.TypeJob, "job-removed", map[string]interface{}{"ids": ids})
	return nil
}

// RemoveParentlessJobs deletes terminated jobs without a parent that are
// older than the lifetime, and returns how many were removed.
func (r *Registry) RemoveParentlessJobs(lifetime time.Duration) (int, error) {
	if lifetime <= 0 {
		return 0, IllegalArgument("lifetime must be positive")
	}
	before := r.clock.UTC().Add(-lifetime)

	var removed int
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		jobs, err := tx.JobsWithoutParent(before)
		if err != nil {
			return errors.WithStack(err)
		}
		for _, job := range jobs {
			if err := tx.JobRemove(job.ID); err != nil && err != db.ErrNoSuchObject {
				return errors.WithStack(err)
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, Failure(err)
	}
	if removed > 0 {
		level.Info(r.logger).Log("msg", "Removed parentless jobs", "count", removed, "before", before)
	}
	return removed, nil
}

// Run returns a task that periodically removes parentless jobs when
// jobs.parentless_lifetime is set.
func (r *Registry) Run() (task.Func, task.Schedule) {
	cleanupWrapper := func(ctx context.Context) {
		ch := make(chan struct{}, 1)
		go func() {
			r.removeParentless()
			ch <- struct{}{}
		}()
		select {
		case <-ch:
		case <-ctx.Done():
		}
	}
	return cleanupWrapper, task.Every(CleanupInterval, task.SkipFirst)
}

func (r *Registry) removeParentless() {
	config, err := r.config.Read()
	if err != nil {
		level.Error(r.logger).Log("msg", "Failed to read config", "err", err)
		return
	}
	lifetime, err := config.JobsParentlessLifetime()
	if err != nil {
		level.Error(r.logger).Log("msg", "Failed to read parentless lifetime", "err", err)
		return
	}
	if lifetime <= 0 {
		return
	}
	if _, err := r.RemoveParentlessJobs(lifetime); err != nil {
		level.Error(r.logger).Log("msg", "Failed to remove parentless jobs", "err", err)
	}
}
