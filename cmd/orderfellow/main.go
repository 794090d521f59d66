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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	ofhttp "github.com/orderfellow/orderfellow/internal/adapter/http"
	ofnats "github.com/orderfellow/orderfellow/internal/adapter/nats"
	"github.com/orderfellow/orderfellow/internal/adapter/otel"
	"github.com/orderfellow/orderfellow/internal/adapter/postgres"
	"github.com/orderfellow/orderfellow/internal/adapter/ristretto"
	"github.com/orderfellow/orderfellow/internal/adapter/smtp"
	"github.com/orderfellow/orderfellow/internal/adapter/ws"
	"github.com/orderfellow/orderfellow/internal/config"
	"github.com/orderfellow/orderfellow/internal/logger"
	"github.com/orderfellow/orderfellow/internal/middleware"
	"github.com/orderfellow/orderfellow/internal/port/messagequeue"
	"github.com/orderfellow/orderfellow/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	// Telemetry
	shutdownTelemetry, err := otel.Setup(ctx, cfg.Telemetry, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS (optional; integration events are skipped without it)
	var queue messagequeue.Queue
	if cfg.NATS.URL != "" {
		q, err := ofnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = q.Close() }()
		queue = q
	}

	// Credential cache
	credCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer credCache.Close()

	// --- Services ---
	store := postgres.NewStore(pool)
	hub := ws.NewHub()
	mailer := smtp.New(cfg.SMTP)

	dispatcher := service.NewDispatcher(store, mailer,
		cfg.Dispatch.Workers, cfg.Dispatch.QueueSize, cfg.Dispatch.RetryParallel, metrics)
	dispatcher.Start()

	webhookSvc := service.NewWebhookService(store, dispatcher, queue, hub, metrics)
	orderSvc := service.NewOrderService(store)

	// --- HTTP ---
	handlers := ofhttp.NewHandlers(webhookSvc, orderSvc, hub)
	handlers.DB = pool

	r := chi.NewRouter()
	r.Use(ofhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(ofhttp.Logger)
	r.Use(ofhttp.SecurityHeaders)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))

	ofhttp.MountRoutes(r, handlers, store, credCache, cfg.Rate, cfg.Cache.CredentialTTL)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Drain queued notifications before exiting.
	dispatcher.Stop()

	return shutdownTelemetry(shutdownCtx)
}
