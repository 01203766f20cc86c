package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/win-bin/win_bin/internal/ledger"
	"github.com/win-bin/win_bin/internal/middleware"
)

type addBottleRequest struct {
	Type   string `json:"type"`
	SizeMl int    `json:"size_ml"`
}

type addBottleResponse struct {
	Bottle      ledger.BottleRecord `json:"bottle"`
	EcoCoins    int64               `json:"eco_coins"`
	BottleCount int                 `json:"bottle_count"`
}

// RegisterBottleRoutes records confirmed bottles.
func RegisterBottleRoutes(r fiber.Router, idempotency fiber.Handler) {
	r.Post("/bottles", idempotency, func(c *fiber.Ctx) error {
		sess := middleware.CurrentSession(c)
		if sess == nil {
			return fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}
		var req addBottleRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		bottle, err := sess.AddBottle(c.UserContext(), req.Type, req.SizeMl)
		if err != nil {
			return httpError(err)
		}
		view := sess.Snapshot()
		return c.Status(http.StatusCreated).JSON(addBottleResponse{
			Bottle:      bottle,
			EcoCoins:    view.EcoCoins,
			BottleCount: len(view.Bottles),
		})
	})
}
