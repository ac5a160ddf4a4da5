package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/marketplace/internal/domain/job"
)

// JobsRepo is an in-process job queue with the same claim rules as the jobs table.
type JobsRepo struct {
	mu    sync.Mutex
	items []job.Job
}

func NewJobsRepo() *JobsRepo {
	return &JobsRepo{}
}

func (r *JobsRepo) Create(_ context.Context, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)

	r.mu.Lock()
	defer r.mu.Unlock()

	if j.IdempotencyKey != nil {
		for _, existing := range r.items {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *j.IdempotencyKey {
				return j, nil
			}
		}
	}

	r.items = append(r.items, j)

	return j, nil
}

func (r *JobsRepo) ClaimNext(_ context.Context, workerID string) (job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	best := -1

	for i, j := range r.items {
		if j.Status != job.StatusPending || j.RunAt.After(now) || j.Attempts >= j.MaxAttempts {
			continue
		}
		if best < 0 || j.RunAt.Before(r.items[best].RunAt) {
			best = i
		}
	}

	if best < 0 {
		return job.Job{}, job.ErrJobNotFound
	}

	j := &r.items[best]
	j.Status = job.StatusProcessing
	j.LockedAt = &now
	j.LockedBy = &workerID
	j.UpdatedAt = now

	return *j, nil
}

func (r *JobsRepo) update(id string, fn func(j *job.Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID == id {
			fn(&r.items[i])
			r.items[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}

	return job.ErrJobNotFound
}

func unlock(j *job.Job) {
	j.LockedAt = nil
	j.LockedBy = nil
}

func (r *JobsRepo) MarkDone(_ context.Context, id string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusDone
		j.Attempts++
		j.LastError = nil
		unlock(j)
	})
}

func (r *JobsRepo) MarkFailed(_ context.Context, id string, errMsg string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusFailed
		j.Attempts++
		j.LastError = &errMsg
		unlock(j)
	})
}

func (r *JobsRepo) Reschedule(_ context.Context, id string, runAt time.Time, errMsg string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusPending
		j.Attempts++
		j.RunAt = runAt
		j.LastError = &errMsg
		unlock(j)
	})
}

func (r *JobsRepo) RequeueStaleProcessing(_ context.Context, lockTTL time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().UTC().Add(-lockTTL)
	var n int64

	for i := range r.items {
		j := &r.items[i]
		if j.Status == job.StatusProcessing && j.LockedAt != nil && j.LockedAt.Before(cutoff) {
			j.Status = job.StatusPending
			unlock(j)
			n++
		}
	}

	return n, nil
}

// All returns a snapshot of every job, oldest first.
func (r *JobsRepo) All() []job.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]job.Job, len(r.items))
	copy(out, r.items)

	return out
}
