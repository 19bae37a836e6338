package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/luchesigui/finance-manager-sub000/internal/amqp"
	"github.com/luchesigui/finance-manager-sub000/internal/config"
	gsheet "github.com/luchesigui/finance-manager-sub000/internal/export/google"
	applog "github.com/luchesigui/finance-manager-sub000/internal/log"
	"github.com/luchesigui/finance-manager-sub000/internal/storage"
	"github.com/luchesigui/finance-manager-sub000/internal/worker"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting sync worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var sheetsClient *gsheet.Client
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err = gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sheetsClient == nil {
		logger.Info("No export target configured, consuming and discarding events")
	}

	syncWorker := newWorker(repo, sheetsClient)

	go func() {
		handler := func(msg *amqp.TransactionEventMessage) error {
			return syncWorker.HandleEvent(ctx, msg)
		}
		if err := amqpClient.ConsumeTransactionEvents(ctx, handler); err != nil {
			if err != context.Canceled {
				logger.Error("Event consumption failed", "error", err)
			}
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()

	// Give in-flight deliveries a moment to ack before closing.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}

func newWorker(repo *storage.SQLiteRepository, sheetsClient *gsheet.Client) *worker.SyncWorker {
	// A typed nil inside a non-nil interface would defeat the worker's
	// nil checks, so wire the interfaces only when a client exists.
	if sheetsClient == nil {
		return worker.NewSyncWorker(repo, nil, nil)
	}
	return worker.NewSyncWorker(repo, sheetsClient, sheetsClient)
}
