package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/win-bin/win_bin/internal/config"
	"github.com/win-bin/win_bin/internal/infra"
	"github.com/win-bin/win_bin/internal/ledger"
	"github.com/win-bin/win_bin/internal/logging"
	"github.com/win-bin/win_bin/internal/notification"
	"github.com/win-bin/win_bin/internal/routes"
	"github.com/win-bin/win_bin/internal/server"
	"github.com/win-bin/win_bin/internal/session"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	checks := map[string]routes.HealthCheck{}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
		checks["redis"] = func(ctx context.Context) error { return cache.Ping(ctx).Err() }
	}

	kv, closeStore, err := openStore(ctx, cfg, cache, checks)
	if err != nil {
		logger.Error("open account store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	logger.Info("account store ready", "backend", cfg.StoreBackend, "max_accounts", cfg.MaxAccounts)

	store := ledger.NewStore(kv, ledger.WithMaxAccounts(cfg.MaxAccounts), ledger.WithLogger(logger))

	var tokens session.TokenStore
	if cache != nil {
		tokens = session.NewRedisTokenStore(cache, cfg.SessionTTL)
	} else {
		logger.Warn("REDIS_URL not set; session tokens are kept in memory")
		tokens = session.NewMemoryTokenStore(cfg.SessionTTL)
	}

	var notifier notification.Notifier = notification.NewLoggerNotifier(logger)
	if cache != nil {
		notifier = notification.Multi{notifier, notification.NewRedisNotifier(cache, "")}
	}
	registry := session.NewRegistry(tokens, func(p session.Pointer) *session.Session {
		return session.New(store, p, session.WithLogger(logger), session.WithNotifier(notifier))
	}, logger, session.WithIdleTimeout(cfg.SessionTTL))

	srv, err := server.New(routes.Deps{
		Cfg:        cfg,
		Store:      store,
		Sessions:   registry,
		Classifier: newClassifier(cfg, logger),
		Cache:      cache,
		Checks:     checks,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
