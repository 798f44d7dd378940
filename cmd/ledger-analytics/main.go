package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/analytics"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/cache"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/config"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/loader"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/middleware"
	"github.com/XavierBriggs/fortuna/services/ledger-analytics/internal/retry"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	logger.Info("Starting ledger analytics service",
		zap.String("addr", cfg.Server.Addr),
		zap.String("source", cfg.Ledger.Source),
		zap.Int("reporting_year", cfg.Ledger.ReportingYear))

	ledgerLoader, closeLoader, err := buildLoader(cfg)
	if err != nil {
		logger.Fatal("Failed to create ledger loader", zap.Error(err))
	}
	defer closeLoader()

	if cfg.Redis.URL != "" {
		redisClient, err := connectRedis(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()

		ledgerCache := cache.NewRedisCache(redisClient, cfg.Redis.CacheTTL)
		key := cache.LedgerKey(ledgerLoader.Source(), loader.Location(ledgerLoader))
		ledgerLoader = loader.NewCachedLoader(ledgerLoader, ledgerCache, key, cache.ErrMiss, logger)

		logger.Info("Ledger cache enabled",
			zap.String("key", key),
			zap.Duration("ttl", cfg.Redis.CacheTTL))
	}

	mode, err := analytics.ParseAttributionMode(cfg.Analytics.AttributionMode)
	if err != nil {
		logger.Fatal("Invalid attribution mode", zap.Error(err))
	}
	engine := analytics.NewEngine(analytics.Options{
		Buckets: cfg.Analytics.MarketBuckets,
		Mode:    mode,
	})

	handler := handlers.NewHandler(ledgerLoader, engine, logger).
		WithLoadTimeout(cfg.Server.RequestTimeout)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Ledger analytics listening",
			zap.String("addr", cfg.Server.Addr),
			zap.Strings("buckets", engine.Buckets()),
			zap.String("attribution_mode", string(engine.Mode())))

		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", zap.Error(err))
		}

	case sig := <-shutdown:
		logger.Info("Received signal", zap.String("signal", sig.String()))

		// Give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("Graceful shutdown failed", zap.Error(err))
			if err := srv.Close(); err != nil {
				logger.Error("Could not stop server", zap.Error(err))
			}
		}
	}

	logger.Info("Shutdown complete")
}

func newLogger(level string) (*zap.Logger, error) {
	if strings.EqualFold(level, "debug") {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(strings.ToLower(level))
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}

// buildLoader creates the configured ledger source and its cleanup function
func buildLoader(cfg *config.Config) (loader.Loader, func(), error) {
	year := cfg.Ledger.ReportingYear
	noop := func() {}

	switch cfg.Ledger.Source {
	case config.SourceSheets:
		l, err := loader.NewSheetsLoader(cfg.Ledger.SheetURL, year,
			loader.WithRetryPolicy(retry.NewRetryPolicy(cfg.Ledger.FetchMaxAttempts, cfg.Ledger.FetchRetryDelay)))
		if err != nil {
			return nil, nil, err
		}
		return l, noop, nil

	case config.SourceFile:
		return loader.NewFileLoader(cfg.Ledger.File, year), noop, nil

	case config.SourcePostgres:
		db, err := loader.OpenPostgres(cfg.Ledger.DSN)
		if err != nil {
			return nil, nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}

		l, err := loader.NewPostgresLoader(db, cfg.Ledger.Table, cfg.Ledger.OrderColumn, year)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := l.CheckColumns(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("checking ledger table: %w", err)
		}
		return l, func() { l.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown ledger source %q", cfg.Ledger.Source)
	}
}

// connectRedis accepts either a redis:// URL or a bare host:port
func connectRedis(cfg config.RedisConfig) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(cfg.URL, "://") {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: cfg.URL}
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
