package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/marketplace/internal/domain/job"
	"github.com/geocoder89/marketplace/internal/jobs"
	"github.com/geocoder89/marketplace/internal/repo/memory"
)

func newWorker(repo *memory.JobsRepo) *Worker {
	return New(Config{
		PollInterval: 5 * time.Millisecond,
		WorkerID:     "test-worker",
		Concurrency:  2,
		LockTTL:      time.Minute,
	}, repo, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func enqueue(t *testing.T, repo *memory.JobsRepo, typ jobs.JobType, maxAttempts int) job.Job {
	t.Helper()

	j, err := repo.Create(context.Background(), job.CreateRequest{
		Type:        string(typ),
		Payload:     []byte(`{}`),
		MaxAttempts: maxAttempts,
	})
	require.NoError(t, err)

	return j
}

func only(t *testing.T, repo *memory.JobsRepo) job.Job {
	t.Helper()

	all := repo.All()
	require.Len(t, all, 1)

	return all[0]
}

func TestProcessOne_EmptyQueue(t *testing.T) {
	w := newWorker(memory.NewJobsRepo())

	processed, err := w.ProcessOne(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestProcessOne_Done(t *testing.T) {
	repo := memory.NewJobsRepo()
	w := newWorker(repo)

	var seen string
	w.Register(jobs.JobOfferSold, func(_ context.Context, j job.Job) error {
		seen = j.ID
		return nil
	})

	j := enqueue(t, repo, jobs.JobOfferSold, 3)

	processed, err := w.ProcessOne(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, j.ID, seen)

	got := only(t, repo)
	assert.Equal(t, job.StatusDone, got.Status)
	assert.Equal(t, 1, got.Attempts)
	assert.Nil(t, got.LockedBy)
}

func TestProcessOne_RetryWithBackoff(t *testing.T) {
	repo := memory.NewJobsRepo()
	w := newWorker(repo)

	w.Register(jobs.JobOfferSold, func(context.Context, job.Job) error {
		return errors.New("smtp down")
	})

	enqueue(t, repo, jobs.JobOfferSold, 3)

	before := time.Now().UTC()
	processed, err := w.ProcessOne(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	got := only(t, repo)
	assert.Equal(t, job.StatusPending, got.Status)
	assert.Equal(t, 1, got.Attempts)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "smtp down", *got.LastError)
	assert.True(t, got.RunAt.After(before.Add(time.Second)))

	// not due yet
	processed, err = w.ProcessOne(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestProcessOne_DeadAfterMaxAttempts(t *testing.T) {
	repo := memory.NewJobsRepo()
	w := newWorker(repo)

	w.Register(jobs.JobOfferSold, func(context.Context, job.Job) error {
		return errors.New("still down")
	})

	enqueue(t, repo, jobs.JobOfferSold, 1)

	_, err := w.ProcessOne(context.Background())
	require.NoError(t, err)

	got := only(t, repo)
	assert.Equal(t, job.StatusFailed, got.Status)
	assert.Equal(t, 1, got.Attempts)
}

func TestProcessOne_PermanentErrorsSkipRetries(t *testing.T) {
	repo := memory.NewJobsRepo()
	w := newWorker(repo)

	w.Register(jobs.JobOfferSold, func(context.Context, job.Job) error {
		return jobs.ErrInvalidJobPayload
	})

	enqueue(t, repo, jobs.JobOfferSold, 10)

	_, err := w.ProcessOne(context.Background())
	require.NoError(t, err)
	assert.Equal(t, job.StatusFailed, only(t, repo).Status)
}

func TestProcessOne_NoHandler(t *testing.T) {
	repo := memory.NewJobsRepo()
	w := newWorker(repo)

	enqueue(t, repo, jobs.JobPaymentReconcile, 10)

	_, err := w.ProcessOne(context.Background())
	require.NoError(t, err)

	got := only(t, repo)
	assert.Equal(t, job.StatusFailed, got.Status)
	require.NotNil(t, got.LastError)
	assert.Contains(t, *got.LastError, "no handler registered")
}

func TestProcessOne_PanicIsRetried(t *testing.T) {
	repo := memory.NewJobsRepo()
	w := newWorker(repo)

	w.Register(jobs.JobOfferSold, func(context.Context, job.Job) error {
		panic("boom")
	})

	enqueue(t, repo, jobs.JobOfferSold, 5)

	_, err := w.ProcessOne(context.Background())
	require.NoError(t, err)

	got := only(t, repo)
	assert.Equal(t, job.StatusPending, got.Status)
	require.NotNil(t, got.LastError)
	assert.Contains(t, *got.LastError, "boom")
}

func TestRun_DrainsQueueAndStops(t *testing.T) {
	repo := memory.NewJobsRepo()
	w := newWorker(repo)

	var handled atomic.Int32
	w.Register(jobs.JobOfferSold, func(context.Context, job.Job) error {
		handled.Add(1)
		return nil
	})

	for i := 0; i < 5; i++ {
		enqueue(t, repo, jobs.JobOfferSold, 3)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return handled.Load() == 5 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, w.Ready())

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	assert.False(t, w.Ready())
	for _, j := range repo.All() {
		assert.Equal(t, job.StatusDone, j.Status)
	}
}

func TestExponentialBackoff(t *testing.T) {
	d := ExponentialBackoff(0)
	assert.GreaterOrEqual(t, d, 2*time.Second)
	assert.Less(t, d, 2*time.Second+250*time.Millisecond)

	d = ExponentialBackoff(2)
	assert.GreaterOrEqual(t, d, 8*time.Second)

	d = ExponentialBackoff(100)
	assert.GreaterOrEqual(t, d, 5*time.Minute)
	assert.Less(t, d, 5*time.Minute+250*time.Millisecond)
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := newWorker(memory.NewJobsRepo())

	get := func(h http.Handler, path string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	h := w.HealthHandler(pinger{})
	assert.Equal(t, http.StatusOK, get(h, "/healthz"))
	assert.Equal(t, http.StatusServiceUnavailable, get(h, "/readyz"))

	w.setReady(true)
	assert.Equal(t, http.StatusOK, get(h, "/readyz"))

	h = w.HealthHandler(pinger{err: errors.New("down")})
	assert.Equal(t, http.StatusServiceUnavailable, get(h, "/readyz"))
}
