package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/benvon/sparkreply/internal/config"
	"github.com/benvon/sparkreply/internal/database"
	"github.com/benvon/sparkreply/internal/generation"
	"github.com/benvon/sparkreply/internal/logger"
	"github.com/benvon/sparkreply/internal/metrics"
	"github.com/benvon/sparkreply/internal/queue"
	"github.com/benvon/sparkreply/internal/workers"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const serviceName = "sparkreply-worker"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env file: %v", err)
	}

	cfg, err := config.LoadWorker()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewForService(serviceName, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Fatal("worker_failed", zap.Error(err))
	}
}

func run(cfg *config.Config, zapLogger *zap.Logger) error {
	zapLogger.Info("starting_worker", zap.Int("prefetch", cfg.RabbitMQPrefetch))

	dsn, err := cfg.PersistenceDSN()
	if err != nil {
		return err
	}
	db, err := database.New(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	store := &generation.StoreSink{
		Generations: database.NewGenerationRepository(db),
		Saved:       database.NewSavedContentRepository(db),
	}

	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	messages, errs, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	persister := workers.NewPersister(store, zapLogger, metrics.NewCollector())
	zapLogger.Info("worker_started")
	persister.Run(ctx, messages, errs)

	zapLogger.Info("worker_stopped")
	return nil
}
