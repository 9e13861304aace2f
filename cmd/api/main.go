// Package main is the entry point for the ItemHub API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/itemhub/itemhub/internal/analytics"
	"github.com/itemhub/itemhub/internal/auth"
	"github.com/itemhub/itemhub/internal/cache"
	"github.com/itemhub/itemhub/internal/config"
	"github.com/itemhub/itemhub/internal/database"
	"github.com/itemhub/itemhub/internal/handlers"
	"github.com/itemhub/itemhub/internal/idgen"
	"github.com/itemhub/itemhub/internal/metrics"
	"github.com/itemhub/itemhub/internal/repository"
	"github.com/itemhub/itemhub/internal/server"
	"github.com/itemhub/itemhub/internal/services"
	"github.com/itemhub/itemhub/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(os.Stdout, cfg.App.LogLevel)
	log.Info("starting itemhub", "env", cfg.App.Env)

	ctx := context.Background()
	srv := server.New(cfg, log)

	var (
		itemRepo repository.ItemRepository
		userRepo repository.UserRepository
	)

	// Storage: Postgres when configured, in-memory otherwise.
	if cfg.DatabaseEnabled() {
		pool, err := database.NewPool(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		migrator, err := database.NewMigrator(pool)
		if err != nil {
			return fmt.Errorf("loading migrations: %w", err)
		}
		applied, err := migrator.Up(ctx)
		if err != nil {
			return fmt.Errorf("applying migrations: %w", err)
		}
		if applied > 0 {
			log.Info("migrations applied", "count", applied)
		}

		itemRepo = repository.NewPostgresItemRepository(pool)
		userRepo = repository.NewPostgresUserRepository(pool)

		srv.HealthHandler().AddCheck("database", func() bool {
			return pool.HealthCheck(ctx) == nil
		})
		log.Info("database connected", "host", cfg.Database.Host, "name", cfg.Database.DBName)
	} else {
		gen, err := idgen.NewSnowflakeGenerator(1)
		if err != nil {
			return fmt.Errorf("creating id generator: %w", err)
		}
		itemRepo = repository.NewMemoryItemRepository(gen)
		userRepo = repository.NewMemoryUserRepository()
		log.Warn("no database configured, using in-memory storage")
	}

	// Cache: wrap the item repository when Redis is configured.
	if cfg.RedisEnabled() {
		redisCache, err := cache.NewRedisCache(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer redisCache.Close()

		itemCache := cache.NewItemCache(redisCache, "", cfg.Redis.CacheTTL)
		itemRepo = repository.NewCachedItemRepository(itemRepo, itemCache, cfg.Redis.CacheTTL, metrics.CacheRecorder{})

		srv.HealthHandler().AddCheck("cache", func() bool {
			return redisCache.Ping(ctx) == nil
		})
		log.Info("redis cache enabled", "host", cfg.Redis.Host, "ttl", cfg.Redis.CacheTTL.String())
	}

	srv.SetItemRepository(itemRepo)

	// View analytics: buffered counter flushed to storage in batches.
	flusher := analytics.NewRepositoryFlusher(itemRepo, log)
	counter := analytics.NewViewCounter(analytics.DefaultConfig(), flusher)
	defer counter.Stop()

	// Auth. Production requires an explicit secret; development falls back
	// to a per-process random one, so tokens do not survive restarts.
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn("AUTH_JWT_SECRET not set, using a random per-process secret")
	}
	tokens, err := auth.NewTokenManager(secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token manager: %w", err)
	}
	srv.SetTokenVerifier(tokens)

	itemService := services.NewItemService(itemRepo, counter)
	authService := services.NewAuthService(userRepo, tokens, cfg.Auth.BcryptCost)

	srv.SetItemHandler(handlers.NewItemHandler(itemService))
	srv.SetAuthHandler(handlers.NewAuthHandler(authService))

	// Run until interrupted, then drain connections and pending views.
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	counter.Stop()
	log.Info("itemhub stopped")
	return nil
}
