// Package main is the entry point for the Sorvetão background worker.
// It relays placed orders from the outbox to Kafka and cleans up expired
// bookkeeping rows.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	appctx "sorvetao/internal/core/context"
	"sorvetao/internal/infrastructure/messaging/kafka"
	"sorvetao/internal/infrastructure/storage/postgres"
	"sorvetao/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, cancel := context.WithCancel(appctx.WithTrace(context.Background(), appctx.NewTraceContext()))
	defer cancel()

	log.Info("starting sorvetao worker")

	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	poolCfg.MaxConns = 4
	poolCfg.ApplicationName = "sorvetao-worker"
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	codec, err := postgres.NewPayloadCodec(0)
	if err != nil {
		log.Fatalw("failed to create payload codec", "error", err)
	}
	defer codec.Close()

	topic := getEnv("KAFKA_TOPIC", kafka.DefaultTopic)
	writer := kafka.NewWriter(getEnv("KAFKA_BROKERS", ""), topic)
	publisher := kafka.NewOrderPublisher(writer)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warnw("failed to close kafka writer", "error", err)
		}
	}()

	worker := &Worker{
		pool:  pool,
		relay: postgres.NewOutboxRelay(txManager, codec, publisher, postgres.RelayConfig{
			BatchSize:  getEnvInt("OUTBOX_BATCH_SIZE", 100),
			MaxRetries: getEnvInt("OUTBOX_MAX_RETRIES", 5),
		}),
		idempotency:     postgres.NewIdempotencyStore(txManager, 0),
		pollInterval:    getEnvDuration("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
		cleanupInterval: getEnvDuration("CLEANUP_INTERVAL", time.Hour),
		log:             log.WithComponent("worker"),
	}

	log.Infow("relaying orders", "topic", topic, "poll_interval", worker.pollInterval)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker runs the outbox relay and periodic cleanup.
type Worker struct {
	pool            *postgres.Pool
	relay           *postgres.OutboxRelay
	idempotency     *postgres.IdempotencyStore
	pollInterval    time.Duration
	cleanupInterval time.Duration
	log             *logger.Logger
}

// Run blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.relay.Run(ctx, w.pollInterval)
	}()

	cleanupTicker := time.NewTicker(w.cleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-cleanupTicker.C:
			w.moveToDLQ(ctx)
			w.cleanupIdempotency(ctx)
			w.pool.LogStats(ctx)
		}
	}
}

func (w *Worker) moveToDLQ(ctx context.Context) {
	n, err := w.relay.MoveToDLQ(ctx)
	if err != nil {
		w.log.Errorw("failed to move failed messages to DLQ", "error", err)
		return
	}
	if n > 0 {
		w.log.Warnw("moved failed outbox messages to DLQ", "count", n)
	}
}

func (w *Worker) cleanupIdempotency(ctx context.Context) {
	n, err := w.idempotency.CleanupExpired(ctx)
	if err != nil {
		w.log.Errorw("failed to clean up idempotency keys", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
