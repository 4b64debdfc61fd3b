package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/unitdesk/internal/app"
	"github.com/odyssey-erp/unitdesk/internal/observability"
	"github.com/odyssey-erp/unitdesk/internal/platform/cache"
	"github.com/odyssey-erp/unitdesk/internal/platform/db"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	var (
		stores app.Stores
		pool   *pgxpool.Pool
		ready  func(context.Context) error
	)
	switch cfg.StoreDriver {
	case app.DriverMemory:
		logger.Warn("using in-memory stores; data is lost on restart")
		stores = app.MemoryStores()
	default:
		pool, err = db.New(ctx, db.PoolOptions{
			DSN:             cfg.PGDSN,
			MaxConns:        cfg.PGMaxConns,
			MaxConnIdleTime: cfg.PGMaxIdle,
		})
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		stores = app.PostgresStores(pool)
		ready = pool.Ping
	}

	redisClient, err := cache.New(ctx, cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		// counts fall back to direct store reads
		logger.Warn("redis unavailable, status cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	if redisClient != nil {
		defer func(c *redis.Client) {
			if err := c.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}(redisClient)
	}

	metrics := observability.NewMetrics()
	services := app.NewServices(cfg, logger, metrics, stores, redisClient)

	router := app.NewRouter(app.RouterParams{
		Logger:   logger,
		Config:   cfg,
		Handlers: services.Handlers(logger),
		Metrics:  metrics,
		Ready:    ready,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("store", cfg.StoreDriver),
			slog.Bool("status_cache", redisClient != nil))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
