package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/win-bin/win_bin/internal/ledger"
	"github.com/win-bin/win_bin/internal/middleware"
	"github.com/win-bin/win_bin/internal/session"
)

type accountResponse struct {
	Name        string                `json:"name"`
	Mobile      string                `json:"mobile"`
	EcoCoins    int64                 `json:"eco_coins"`
	BottleCount int                   `json:"bottle_count"`
	Bottles     []ledger.BottleRecord `json:"bottles"`
}

func toAccountResponse(v session.View) accountResponse {
	return accountResponse{
		Name:        v.Name,
		Mobile:      v.Mobile,
		EcoCoins:    v.EcoCoins,
		BottleCount: len(v.Bottles),
		Bottles:     v.Bottles,
	}
}

// RegisterMeRoute exposes the logged-in user's profile, balance and history.
func RegisterMeRoute(r fiber.Router) {
	r.Get("/me", func(c *fiber.Ctx) error {
		sess := middleware.CurrentSession(c)
		if sess == nil {
			return fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}
		return c.Status(http.StatusOK).JSON(toAccountResponse(sess.Snapshot()))
	})
}
