package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/marketplace/internal/domain/job"
	"github.com/geocoder89/marketplace/internal/jobs"
)

var errNoHandler = errors.New("no handler registered")

// ProcessOne claims and runs at most one job. It reports whether a job was claimed.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)

	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}

		return false, err
	}

	// the claimed job is finished and acknowledged even if shutdown starts meanwhile
	runCtx, cancelRun := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.JobTimeout)
	defer cancelRun()

	start := time.Now()
	err = w.execute(runCtx, j)

	if err != nil {
		result, ferr := w.handleFailure(runCtx, j, err)
		w.prom.ObserveJob(j.Type, result, time.Since(start))
		return true, ferr
	}

	if err := w.repo.MarkDone(runCtx, j.ID); err != nil {
		_ = w.repo.MarkFailed(runCtx, j.ID, "mark_done_failed: "+err.Error())
		w.prom.ObserveJob(j.Type, "dead", time.Since(start))
		return true, err
	}

	w.prom.ObserveJob(j.Type, "done", time.Since(start))
	w.log.InfoContext(runCtx, "job done", "job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts+1)

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) (err error) {
	h, ok := w.handlers[jobs.JobType(j.Type)]
	if !ok {
		return fmt.Errorf("%w: %s", errNoHandler, j.Type)
	}

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	return h(ctx, j)
}

func permanent(err error) bool {
	return errors.Is(err, errNoHandler) ||
		errors.Is(err, jobs.ErrInvalidJobType) ||
		errors.Is(err, jobs.ErrInvalidJobPayload) ||
		errors.Is(err, jobs.ErrPayloadTypeMismatch)
}

// handleFailure reschedules with backoff or marks the job dead once its attempts run out.
func (w *Worker) handleFailure(ctx context.Context, j job.Job, cause error) (string, error) {
	attempt := j.Attempts + 1

	if permanent(cause) || attempt >= j.MaxAttempts {
		w.log.ErrorContext(ctx, "job dead", "job_id", j.ID, "job_type", j.Type, "attempt", attempt, "err", cause)

		if err := w.repo.MarkFailed(ctx, j.ID, cause.Error()); err != nil {
			return "dead", fmt.Errorf("mark failed: %w", err)
		}
		return "dead", nil
	}

	delay := ExponentialBackoff(j.Attempts)
	w.log.WarnContext(ctx, "job failed, retrying", "job_id", j.ID, "job_type", j.Type,
		"attempt", attempt, "retry_in", delay.String(), "err", cause)

	if err := w.repo.Reschedule(ctx, j.ID, time.Now().UTC().Add(delay), cause.Error()); err != nil {
		return "retry", fmt.Errorf("reschedule: %w", err)
	}

	return "retry", nil
}
