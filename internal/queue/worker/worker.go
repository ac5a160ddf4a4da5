// Package worker drains the jobs table: claim, run the registered handler,
// then mark done, reschedule with backoff, or mark dead.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/geocoder89/marketplace/internal/domain/job"
	"github.com/geocoder89/marketplace/internal/jobs"
	"github.com/geocoder89/marketplace/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

type HandlerFunc func(ctx context.Context, j job.Job) error

type Config struct {
	PollInterval  time.Duration
	WorkerID      string
	Concurrency   int
	ShutdownGrace time.Duration
	LockTTL       time.Duration
	JobTimeout    time.Duration
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	handlers map[jobs.JobType]HandlerFunc
	log      *slog.Logger
	prom     *observability.Prom

	readyMu sync.RWMutex
	ready   bool
}

func DefaultWorkerID() string {
	host, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func New(cfg Config, repo JobsRepository, log *slog.Logger, prom *observability.Prom) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.WorkerID == "" {
		cfg.WorkerID = DefaultWorkerID()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = time.Minute
	}
	if cfg.JobTimeout <= 0 || cfg.JobTimeout > cfg.LockTTL {
		cfg.JobTimeout = cfg.LockTTL
	}
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		handlers: make(map[jobs.JobType]HandlerFunc),
		log:      log,
		prom:     prom,
	}
}

// Register binds a handler to a job type. Call before Run.
func (w *Worker) Register(t jobs.JobType, h HandlerFunc) {
	w.handlers[t] = h
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) Ready() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()

	return w.ready
}

// Run polls with cfg.Concurrency loops until ctx is cancelled. In-flight jobs
// get ShutdownGrace to finish.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	w.log.Info("worker started", "worker_id", w.cfg.WorkerID, "concurrency", w.cfg.Concurrency)

	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < w.cfg.Concurrency; i++ {
		g.Go(func() error {
			w.loop(gctx)
			return nil
		})
	}

	g.Go(func() error {
		w.reap(gctx)
		return nil
	})

	<-gctx.Done()
	w.setReady(false)
	w.log.Info("worker received shutdown signal", "worker_id", w.cfg.WorkerID)

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		return err
	case <-time.After(w.cfg.ShutdownGrace):
		return errors.New("worker shutdown grace exceeded")
	}
}

func (w *Worker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		// drain without waiting while there is work
		for ctx.Err() == nil {
			processed, err := w.ProcessOne(ctx)
			if err != nil {
				w.log.Error("worker step failed", "worker_id", w.cfg.WorkerID, "err", err)
			}
			if !processed {
				break
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) reap(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.LockTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.repo.RequeueStaleProcessing(ctx, w.cfg.LockTTL)
			if err != nil {
				w.log.Error("requeue stale jobs failed", "err", err)
				continue
			}
			if n > 0 {
				w.log.Warn("requeued stale jobs", "count", n)
			}
		}
	}
}
