package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/geocoder89/marketplace/internal/billing"
	"github.com/geocoder89/marketplace/internal/breaker"
	"github.com/geocoder89/marketplace/internal/cache"
	"github.com/geocoder89/marketplace/internal/checkout"
	"github.com/geocoder89/marketplace/internal/config"
	"github.com/geocoder89/marketplace/internal/db"
	httpx "github.com/geocoder89/marketplace/internal/http"
	"github.com/geocoder89/marketplace/internal/media"
	"github.com/geocoder89/marketplace/internal/observability"
	"github.com/geocoder89/marketplace/internal/repo/postgres"
)

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTELServiceName, cfg.OTELEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(ctx, cfg.DB.DSN(), cfg.DB.MaxConns)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(pool); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	usersRepo := postgres.NewUsersRepo(pool, prom)
	offersRepo := postgres.NewOffersRepo(pool, prom)
	jobsRepo := postgres.NewJobsRepo(pool, prom)
	paymentsRepo := postgres.NewPaymentsRepo(pool, prom, jobsRepo)

	if err := db.EnsureSeedUser(ctx, usersRepo, cfg); err != nil {
		log.Error("seed user failed", "err", err)
		os.Exit(1)
	}

	// read cache: redis when configured, in-process otherwise
	store, shared := cache.NewStore(cfg.Redis, cfg.CacheTTL)
	if rs, ok := store.(*cache.RedisStore); ok {
		defer rs.Close()

		if err := rs.Ping(ctx); err != nil {
			log.Warn("redis unreachable, cache reads will fall through", "addr", cfg.Redis.Addr, "err", err)
		}
	}
	if !shared {
		log.Warn("offer cache is process-local, run a single api replica or set REDIS_ADDR")
	}
	cachedOffers := cache.NewCachedOffers(offersRepo, store, log, prom)

	var uploader media.Uploader = media.Disabled{}
	if cfg.Media.Enabled() {
		s3, err := media.NewS3Uploader(ctx, cfg.Media)
		if err != nil {
			log.Error("media init failed", "err", err)
			os.Exit(1)
		}
		uploader = s3
	} else {
		log.Warn("media storage not configured, picture uploads disabled")
	}

	processor := billing.NewProtectedProcessor(
		billing.NewStripeProcessor(cfg.Stripe),
		breaker.Config{
			Timeout:          cfg.Stripe.Timeout,
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
			HalfOpenMaxCalls: 1,
		},
	)

	checkoutSvc := checkout.NewService(checkout.Deps{
		Offers:    offersRepo,
		Sales:     paymentsRepo,
		Jobs:      jobsRepo,
		Processor: processor,
		Cache:     cachedOffers,
		Currency:  cfg.Offers.Currency,
		Log:       log,
		Prom:      prom,
	})

	// set up routers with the log
	router := httpx.NewRouter(httpx.Deps{
		Config:   cfg,
		Log:      log,
		Prom:     prom,
		Gatherer: reg,
		Ping:     pool.Ping,
		Users:    usersRepo,
		Offers:   cachedOffers,
		Checkout: checkoutSvc,
		Media:    uploader,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
