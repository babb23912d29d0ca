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
	_ "time/tzdata"

	"github.com/Lixing-Zhang/foodstand-backend/internal/config"
	"github.com/Lixing-Zhang/foodstand-backend/internal/handlers"
	"github.com/Lixing-Zhang/foodstand-backend/internal/locker"
	"github.com/Lixing-Zhang/foodstand-backend/internal/opday"
	"github.com/Lixing-Zhang/foodstand-backend/internal/repository"
	"github.com/Lixing-Zhang/foodstand-backend/internal/seed"
	"github.com/Lixing-Zhang/foodstand-backend/internal/service"
	"github.com/Lixing-Zhang/foodstand-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped gracefully")
}

func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("starting food stand api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"store", cfg.Store.Backend,
		"lock", cfg.Lock.Backend,
		"timezone", cfg.Business.Timezone,
		"log_level", cfg.LogLevel,
	)

	clock, err := opday.LoadClock(cfg.Business.Timezone, cfg.Business.DayStartHour)
	if err != nil {
		return fmt.Errorf("failed to create operating-day clock: %w", err)
	}

	ctx := context.Background()

	store, redisClient, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close store", "error", err)
		}
	}()

	lock, closeLock, err := openLocker(ctx, cfg, redisClient, log)
	if err != nil {
		return err
	}
	defer closeLock()

	if err := seedStore(ctx, cfg, store, clock, log); err != nil {
		return err
	}

	// Initialize services
	inventoryService := service.NewInventoryService(store, lock, clock, cfg.Business.LowStockThreshold, log)
	menuService := service.NewMenuService(store, lock, clock, log)
	orderService := service.NewOrderService(store, lock, clock, log)
	reportService := service.NewReportService(store, clock, log)

	var check func(context.Context) error
	if p, ok := store.(repository.Pinger); ok {
		check = p.Ping
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Health:         handlers.NewHealthHandler(cfg.Store.Backend, check, log),
		Ingredients:    handlers.NewIngredientHandler(inventoryService, log),
		Menu:           handlers.NewMenuHandler(menuService, log),
		Orders:         handlers.NewOrderHandler(orderService, log),
		Reports:        handlers.NewReportHandler(reportService, log),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: cfg.RequestDeadline(),
		Logger:         log,
	})

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// openStore builds the configured store. The redis client is returned when
// the store owns one so the locker can share it.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.Store, *redis.Client, error) {
	switch cfg.Store.Backend {
	case "file":
		store, err := repository.NewFileStore(cfg.Store.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file store: %w", err)
		}
		log.Info("using file store", "data_dir", cfg.Store.DataDir)
		return store, nil, nil

	case "postgres":
		store, err := repository.NewPostgresStore(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("failed to migrate postgres schema: %w", err)
		}
		log.Info("using postgres store")
		return store, nil, nil

	case "redis":
		client, err := repository.NewRedisClient(ctx, redisOptions(cfg))
		if err != nil {
			return nil, nil, err
		}
		log.Info("using redis store", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.KeyPrefix)
		return repository.NewRedisStore(client, cfg.Redis.KeyPrefix), client, nil

	default:
		log.Warn("using in-memory store, data is lost on restart")
		return repository.NewInMemoryStore(), nil, nil
	}
}

// openLocker builds the configured locker and a func releasing any
// connection it opened on its own.
func openLocker(ctx context.Context, cfg *config.Config, shared *redis.Client, log *slog.Logger) (locker.Locker, func(), error) {
	if cfg.Lock.Backend != "redis" {
		return locker.NewLocal(), func() {}, nil
	}

	ttl := time.Duration(cfg.Lock.TTL) * time.Second
	key := cfg.Redis.KeyPrefix + ":lock"
	if shared != nil {
		return locker.NewRedis(shared, key, ttl, log), func() {}, nil
	}

	client, err := repository.NewRedisClient(ctx, redisOptions(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect lock backend: %w", err)
	}
	return locker.NewRedis(client, key, ttl, log), func() {
		if err := client.Close(); err != nil {
			log.Error("failed to close lock client", "error", err)
		}
	}, nil
}

// seedStore loads the configured seed sources into empty collections.
func seedStore(ctx context.Context, cfg *config.Config, store repository.Store, clock *opday.Clock, log *slog.Logger) error {
	if len(cfg.Seed.Files) == 0 && len(cfg.Seed.URLs) == 0 {
		return nil
	}

	loader := seed.NewLoader(nil, log)
	var docs []*seed.Document
	if len(cfg.Seed.Files) > 0 {
		doc, err := loader.LoadFromFiles(ctx, cfg.Seed.Files)
		if err != nil {
			return fmt.Errorf("failed to load seed files: %w", err)
		}
		docs = append(docs, doc)
	}
	if len(cfg.Seed.URLs) > 0 {
		doc, err := loader.LoadFromURLs(ctx, cfg.Seed.URLs)
		if err != nil {
			return fmt.Errorf("failed to load seed urls: %w", err)
		}
		docs = append(docs, doc)
	}

	for _, doc := range docs {
		applied, err := doc.Apply(ctx, store, clock.Now())
		if err != nil {
			return fmt.Errorf("failed to apply seed data: %w", err)
		}
		log.Info("seed data applied",
			"ingredients", applied.Ingredients,
			"menu_items", applied.MenuItems,
		)
	}
	return nil
}

func redisOptions(cfg *config.Config) repository.RedisOptions {
	return repository.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}
