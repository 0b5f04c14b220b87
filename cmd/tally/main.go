package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/catalog"
	"tally/internal/config"
	apphttp "tally/internal/http"
	"tally/internal/journal"
	"tally/internal/kv"
	"tally/internal/kv/memory"
	"tally/internal/kv/sqlitekv"
	applog "tally/internal/log"
	"tally/internal/services"
)

func main() {
	// .env is optional, real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("Failed to load catalog", "error", err, "path", cfg.CatalogPath)
		os.Exit(1)
	}

	var store kv.Store
	switch cfg.DataBackend {
	case "sqlite":
		db, err := sqlitekv.New(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to open SQLite store", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer db.Close()
		store = db
		logger.Info("Initialized sqlite backend", applog.FieldBackend, cfg.DataBackend, "path", cfg.SQLiteDBPath)
	default:
		store = memory.New()
		logger.Info("Initialized memory backend", applog.FieldBackend, cfg.DataBackend)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load is fail-soft: a broken blob starts an empty journal rather than
	// refusing to boot.
	journalStore := journal.New(store, cfg.JournalKey, cfg.PollInterval)
	journalStore.Load(ctx)

	// AMQP is optional: without a URL sale events are simply skipped.
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.Connect(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 3)
		if err != nil {
			logger.Warn("AMQP unavailable, sale events disabled", "error", err)
			events = nil
		} else {
			logger.Info("Connected to AMQP", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	sales := services.NewSalesService(cat, journalStore, events)
	defer sales.Close()

	srv := apphttp.NewServer(":"+cfg.Port, sales, journalStore, cat, store, apphttp.Options{
		ThemeKey: cfg.ThemeKey,
		TopItems: cfg.TopItemsLimit,
		CacheTTL: cfg.CacheTTL,
		Changes:  journalStore.Subscribe(),
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		journalStore.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting tally server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			applog.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
