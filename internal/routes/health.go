package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterHealthRoutes adds liveness/readiness style endpoints.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		healthy := true
		checks := fiber.Map{}
		for name, check := range d.Checks {
			if err := check(ctx); err != nil {
				checks[name] = err.Error()
				healthy = false
				continue
			}
			checks[name] = "ok"
		}

		accounts, err := d.Store.Count(ctx)
		if err != nil {
			checks["store"] = err.Error()
			healthy = false
		} else {
			checks["store"] = "ok"
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"status":       checks,
			"accounts":     accounts,
			"max_accounts": d.Store.MaxAccounts(),
			"sessions":     d.Sessions.Len(),
			"timestamp":    time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
