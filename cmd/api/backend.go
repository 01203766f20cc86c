package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/win-bin/win_bin/internal/classifier"
	"github.com/win-bin/win_bin/internal/config"
	"github.com/win-bin/win_bin/internal/infra"
	"github.com/win-bin/win_bin/internal/ledger"
	"github.com/win-bin/win_bin/internal/routes"
)

// openStore connects the configured account backend and registers its health
// check. The returned func releases the backend.
func openStore(ctx context.Context, cfg config.Config, cache *redis.Client, checks map[string]routes.HealthCheck) (ledger.KV, func(), error) {
	noop := func() {}

	switch cfg.StoreBackend {
	case config.BackendMemory:
		return ledger.NewInMemory(), noop, nil

	case config.BackendRedis:
		if cache == nil {
			return nil, noop, fmt.Errorf("redis backend needs REDIS_URL")
		}
		return ledger.NewRedisKV(cache), noop, nil

	case config.BackendPostgres:
		pool, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		kv, err := ledger.NewPostgresKV(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		checks["postgres"] = pool.Ping
		return kv, pool.Close, nil

	case config.BackendSQLite:
		kv, err := ledger.NewSQLiteKV(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		checks["sqlite"] = kv.Ping
		return kv, func() { kv.Close() }, nil

	case config.BackendMongo:
		client, err := infra.NewMongoClient(ctx, cfg.MongoURL)
		if err != nil {
			return nil, noop, err
		}
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		return ledger.NewMongoKV(client.Database(cfg.MongoDatabase)), func() {
			client.Disconnect(context.Background())
		}, nil
	}
	return nil, noop, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// newClassifier returns the HTTP classifier, or a stub that reports every
// photo as a generic bottle when none is configured in development.
func newClassifier(cfg config.Config, logger *slog.Logger) classifier.Classifier {
	if cfg.ClassifierURL != "" {
		return classifier.NewHTTPClient(cfg.ClassifierURL, cfg.ClassifierAPIKey, cfg.ClassifierTimeout)
	}
	if cfg.IsDevelopment() {
		logger.Warn("CLASSIFIER_URL not set; every scan is detected as a generic bottle")
		return classifier.Static{Result: classifier.Result{
			IsBottle:    true,
			Suggestions: []classifier.Suggestion{{Type: "Water Bottle"}},
		}}
	}
	logger.Warn("CLASSIFIER_URL not set; scans will fail")
	return classifier.Static{Err: classifier.ErrUpstream}
}
