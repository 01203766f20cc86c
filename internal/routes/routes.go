package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/win-bin/win_bin/internal/classifier"
	"github.com/win-bin/win_bin/internal/config"
	"github.com/win-bin/win_bin/internal/ledger"
	"github.com/win-bin/win_bin/internal/metrics"
	"github.com/win-bin/win_bin/internal/middleware"
	"github.com/win-bin/win_bin/internal/session"
)

// HealthCheck pings one backing service.
type HealthCheck func(ctx context.Context) error

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg        config.Config
	Store      *ledger.Store
	Sessions   *session.Registry
	Classifier classifier.Classifier
	Cache      *redis.Client
	Checks     map[string]HealthCheck
	Logger     *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Store == nil || d.Sessions == nil {
		return fmt.Errorf("store and session registry are required")
	}
	if d.Classifier == nil {
		return fmt.Errorf("classifier is required")
	}
	// Redis backs idempotency and login throttling outside of dev.
	if !d.Cfg.IsDevelopment() && d.Cache == nil {
		return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  d.Cfg.AllowedOrigins,
		AllowHeaders:  strings.Join([]string{fiber.HeaderContentType, middleware.SessionTokenHeader, "Idempotency-Key", "X-Request-ID"}, ", "),
		ExposeHeaders: "X-Request-ID",
	}))
	if d.Cfg.IsDevelopment() {
		// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger))
	app.Use(metrics.Middleware())

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.GetRequestID(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterAuthRoutes(api, d.Sessions, middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit))

	// Protected routes
	protected := api.Group("", middleware.SessionAuth(d.Sessions))
	idem := middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	RegisterMeRoute(protected)
	RegisterScanRoutes(protected, d.Classifier, d.Logger)
	RegisterBottleRoutes(protected, idem)
	RegisterRedemptionRoutes(protected, idem)

	return nil
}
