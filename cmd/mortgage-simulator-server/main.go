package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iwvelando/mortgage-simulator/internal/cache"
	"github.com/iwvelando/mortgage-simulator/internal/config"
	"github.com/iwvelando/mortgage-simulator/internal/cronrunner"
	"github.com/iwvelando/mortgage-simulator/internal/db"
	"github.com/iwvelando/mortgage-simulator/internal/logging"
	"github.com/iwvelando/mortgage-simulator/internal/planpago"
	"github.com/iwvelando/mortgage-simulator/internal/repository"
	gormrepository "github.com/iwvelando/mortgage-simulator/internal/repository/gorm"
	"github.com/iwvelando/mortgage-simulator/internal/server"
	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/iwvelando/mortgage-simulator/pkg/loans"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	// The web client reads amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

func run(cfg *server.Config, logger *zap.Logger) error {
	conf, err := config.LoadConfiguration(cfg.CatalogFile)
	if err != nil {
		return fmt.Errorf("load catalog configuration %s: %w", cfg.CatalogFile, err)
	}
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	repo, closeRepo, err := openRepository(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	store, closeStore := openCache(cfg.Cache, logger)
	defer closeStore()

	svc := planpago.NewService(logger, loans.NewEngine(logger, conf.EngineOptions()), conf.Catalog(), repo, store,
		planpago.Options{
			BonoRules:  conf.BonoRules(),
			TipoCambio: conf.DefaultTipoCambio(),
			CacheTTL:   cfg.Cache.TTL,
		})

	var limiter *server.RateLimiter
	if cfg.RateLimit.Capacity > 0 {
		limiter = server.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.Window)
		defer limiter.Stop()
	}

	if logger.Core().Enabled(zap.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr: cfg.Address,
		Handler: server.NewHandler(logger, svc, server.Options{
			MaxBodySize: cfg.BodySizeBytes(),
			Version:     version,
			Limiter:     limiter,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Retention.MaxAge > 0 {
		runner := cronrunner.New(logger, ctx)
		if _, err := runner.Add(cfg.Retention.Schedule, cronrunner.RetentionJob(logger, svc, cfg.Retention.MaxAge)); err != nil {
			return fmt.Errorf("schedule plan retention %q: %w", cfg.Retention.Schedule, err)
		}
		runner.Start()
		defer runner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting",
			zap.String("op", "main"),
			zap.String("addr", cfg.Address),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested", zap.String("op", "main"))
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openRepository connects to Postgres when a DSN is configured and falls back
// to the in-memory store otherwise.
func openRepository(cfg db.Config, logger *zap.Logger) (repository.PlanRepository, func(), error) {
	if cfg.DSN == "" {
		logger.Warn("no database configured, plans are kept in memory",
			zap.String("op", "main.openRepository"),
		)
		return repository.NewMemory(), func() {}, nil
	}

	conn, err := db.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		_ = db.Close(conn)
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("database ready", zap.String("op", "main.openRepository"))
	return gormrepository.New(conn.Gorm), func() {
		if err := db.Close(conn); err != nil {
			logger.Warn("failed to close database", zap.String("op", "main.openRepository"), zap.Error(err))
		}
	}, nil
}

// openCache returns nil when caching is disabled. An unreachable Redis is
// reported and replaced by the in-process cache.
func openCache(cfg server.CacheConfig, logger *zap.Logger) (cache.Store, func()) {
	if !cfg.Enabled {
		return nil, func() {}
	}
	if cfg.RedisAddr == "" {
		return cache.NewMemoryStore(), func() {}
	}

	store := cache.NewRedisStore(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, "ms:")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, using in-memory simulation cache",
			zap.String("op", "main.openCache"),
			zap.String("addr", cfg.RedisAddr),
			zap.Error(err),
		)
		_ = store.Close()
		return cache.NewMemoryStore(), func() {}
	}
	return store, func() { _ = store.Close() }
}
