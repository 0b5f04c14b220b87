package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tally/internal/amqp"
	"tally/internal/config"
	applog "tally/internal/log"
	"tally/internal/services"
)

func main() {
	// .env is optional, real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(cfg.LogLevel, cfg.LogFormat).WithComponent(applog.ComponentWorker)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	client, err := amqp.Connect(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 5)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	auditor := services.NewEventAuditor()

	logger.Info("Starting sale event worker",
		applog.FieldOperation, applog.OpStartup,
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	go func() {
		if err := client.ConsumeSaleEvents(ctx, auditor.Handle); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Event consumption failed", "error", err)
			}
			cancel()
		}
	}()

	<-ctx.Done()

	totals := auditor.Snapshot()
	logger.Info("Worker stopped",
		applog.FieldOperation, applog.OpShutdown,
		"recorded", totals.Recorded,
		"deleted", totals.Deleted,
		"skipped", totals.Skipped,
		applog.FieldTotal, totals.Revenue.String())
}
