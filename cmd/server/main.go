// Package main is the entry point for the Sorvetão order-entry API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	corenumerator "sorvetao/internal/core/numerator"
	"sorvetao/internal/domain/checkout"
	"sorvetao/internal/domain/ordering"
	"sorvetao/internal/domain/promotion"
	"sorvetao/internal/infrastructure/cache"
	v1 "sorvetao/internal/infrastructure/http/v1"
	"sorvetao/internal/infrastructure/numerator"
	"sorvetao/internal/infrastructure/session"
	"sorvetao/internal/infrastructure/storage/postgres"
	"sorvetao/internal/infrastructure/storage/postgres/catalog_repo"
	"sorvetao/pkg/logger"
)

var version = "dev"

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

	ctx := context.Background()
	log.Infow("starting sorvetao server", "version", version)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Catalog ---
	catalogCache := cache.NewCatalogCache(pool.Pool, catalog_repo.NewCatalogRepo(txManager))
	if err := catalogCache.Start(ctx); err != nil {
		log.Fatalw("failed to load catalog", "error", err)
	}
	defer catalogCache.Stop()
	catalogCache.OnInvalidation(catalogCache.LogReloads(log.WithComponent("catalog")))

	stats := catalogCache.GetStats()
	log.Infow("catalog loaded", "categories", stats.Categories, "products", stats.Products)

	clients := catalog_repo.NewClientRepo(txManager)

	// --- Promotions ---
	var promos ordering.PromotionEvaluator
	if path := getEnv("PROMOTIONS_FILE", ""); path != "" {
		rules, err := promotion.LoadRules(path)
		if err != nil {
			log.Fatalw("failed to load promotions", "path", path, "error", err)
		}
		engine, err := promotion.NewEngine(rules)
		if err != nil {
			log.Fatalw("invalid promotion rules", "path", path, "error", err)
		}
		promos = engine
		log.Infow("promotions loaded", "rules", engine.Len())
	}

	// --- Sessions ---
	sessions := session.NewMemoryStore(session.Config{
		TTL: getEnvDuration("SESSION_TTL", 2*time.Hour),
	})
	sessions.Start(ctx)
	defer sessions.Stop()

	orderingService := ordering.NewService(ordering.ServiceConfig{
		Catalog:    catalogCache,
		Clients:    clients,
		Store:      sessions,
		Promotions: promos,
	})

	// --- Checkout ---
	codec, err := postgres.NewPayloadCodec(getEnvInt("OUTBOX_COMPRESS_THRESHOLD", 0))
	if err != nil {
		log.Fatalw("failed to create payload codec", "error", err)
	}
	defer codec.Close()

	numOpts := &corenumerator.Options{Strategy: corenumerator.StrategyStrict}
	if getEnv("ORDER_NUMBER_STRATEGY", "strict") == "cached" {
		numOpts = &corenumerator.Options{
			Strategy:  corenumerator.StrategyCached,
			BlockSize: int64(getEnvInt("ORDER_NUMBER_BLOCK_SIZE", int(corenumerator.DefaultBlockSize))),
		}
	}

	checkoutService := checkout.NewService(checkout.ServiceConfig{
		Sessions:      orderingService,
		Numerator:     numerator.New(pool.Pool),
		NumberOptions: numOpts,
		TxManager:     txManager,
		Publisher:     postgres.NewOrderPublisher(postgres.NewOutbox(txManager, codec)),
	})

	// --- Router ---
	var idempotency *postgres.IdempotencyStore
	if getEnv("IDEMPOTENCY_ENABLED", "true") == "true" {
		idempotency = postgres.NewIdempotencyStore(txManager, getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour))
	}

	routerCfg := v1.RouterConfig{
		Logger:       log,
		Ordering:     orderingService,
		Checkout:     checkoutService,
		Clients:      clients,
		DB:           pool,
		CatalogCache: catalogCache,
		Version:      version,
	}
	if idempotency != nil {
		routerCfg.Idempotency = idempotency
	}
	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	pool.LogStats(ctx)
	log.Infow("server stopped", "open_sessions", sessions.Len())
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
