package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geocoder89/marketplace/internal/billing"
	"github.com/geocoder89/marketplace/internal/breaker"
	"github.com/geocoder89/marketplace/internal/cache"
	"github.com/geocoder89/marketplace/internal/checkout"
	"github.com/geocoder89/marketplace/internal/config"
	"github.com/geocoder89/marketplace/internal/db"
	"github.com/geocoder89/marketplace/internal/jobs"
	"github.com/geocoder89/marketplace/internal/notifications"
	"github.com/geocoder89/marketplace/internal/observability"
	"github.com/geocoder89/marketplace/internal/queue/worker"
	"github.com/geocoder89/marketplace/internal/repo/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env).With("component", "worker")
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	pool, err := db.NewPool(ctx, cfg.DB.DSN(), cfg.DB.MaxConns)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	jobsRepo := postgres.NewJobsRepo(pool, prom)
	usersRepo := postgres.NewUsersRepo(pool, prom)
	offersRepo := postgres.NewOffersRepo(pool, prom)
	paymentsRepo := postgres.NewPaymentsRepo(pool, prom, jobsRepo)
	deliveries := postgres.NewSaleNotificationsRepo(pool, prom)

	// Only a shared redis store can invalidate what the api caches. An
	// in-process store here would bump a counter nobody else reads.
	var invalidator checkout.Invalidator
	if store, shared := cache.NewStore(cfg.Redis, cfg.CacheTTL); shared {
		if rs, ok := store.(*cache.RedisStore); ok {
			defer rs.Close()
		}
		invalidator = cache.NewCachedOffers(offersRepo, store, log, prom)
	} else {
		log.Warn("REDIS_ADDR not set, reconciled sales stay visible in api memory caches until CACHE_TTL")
	}

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		breaker.Config{
			Timeout:          2 * time.Second,
			FailureThreshold: 3,
			Cooldown:         15 * time.Second,
			HalfOpenMaxCalls: 1,
		},
	)
	sales := notifications.NewSaleHandler(notifier, deliveries, usersRepo, log)

	// reconcile never charges; the processor is only here to satisfy the service
	checkoutSvc := checkout.NewService(checkout.Deps{
		Offers:    offersRepo,
		Sales:     paymentsRepo,
		Jobs:      jobsRepo,
		Processor: billing.NewStripeProcessor(cfg.Stripe),
		Cache:     invalidator,
		Currency:  cfg.Offers.Currency,
		Log:       log,
		Prom:      prom,
	})

	w := worker.New(worker.Config{
		PollInterval:  cfg.Worker.PollInterval,
		WorkerID:      worker.DefaultWorkerID(),
		Concurrency:   cfg.Worker.Concurrency,
		ShutdownGrace: cfg.Worker.ShutdownGrace,
		LockTTL:       cfg.Worker.LockTTL,
	}, jobsRepo, log, prom)

	w.Register(jobs.JobOfferSold, sales.Handle)
	w.Register(jobs.JobPaymentReconcile, checkoutSvc.HandleReconcile)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", w.HealthHandler(pool))

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Worker.HealthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("worker health server starting", "port", cfg.Worker.HealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("worker health server failed", "err", err)
		}
	}()

	log.Info("worker has started", "concurrency", cfg.Worker.Concurrency)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("worker health server shutdown failed", "err", err)
	}

	log.Info("worker shutdown complete")
}
