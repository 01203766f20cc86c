package routes

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/win-bin/win_bin/internal/middleware"
	"github.com/win-bin/win_bin/internal/rewards"
)

type catalogEntry struct {
	rewards.Option
	Affordable bool  `json:"affordable"`
	Shortfall  int64 `json:"shortfall"`
}

type redeemRequest struct {
	OptionID string `json:"option_id"`
}

type redeemResponse struct {
	Option   rewards.Option `json:"option"`
	EcoCoins int64          `json:"eco_coins"`
	Redirect string         `json:"redirect,omitempty"`
}

// RegisterRedemptionRoutes lists and redeems catalog options.
func RegisterRedemptionRoutes(r fiber.Router, idempotency fiber.Handler) {
	r.Get("/redemptions", func(c *fiber.Ctx) error {
		sess := middleware.CurrentSession(c)
		if sess == nil {
			return fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}
		balance := sess.Snapshot().EcoCoins
		options := rewards.Catalog()
		entries := make([]catalogEntry, 0, len(options))
		for _, o := range options {
			entry := catalogEntry{Option: o, Affordable: rewards.CanAfford(balance, o.Cost)}
			if !entry.Affordable {
				entry.Shortfall = o.Cost - balance
			}
			entries = append(entries, entry)
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"eco_coins": balance,
			"options":   entries,
		})
	})

	r.Post("/redemptions", idempotency, func(c *fiber.Ctx) error {
		sess := middleware.CurrentSession(c)
		if sess == nil {
			return fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}
		var req redeemRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		option, err := sess.Redeem(c.UserContext(), req.OptionID)
		var insufficient *rewards.InsufficientBalanceError
		if errors.As(err, &insufficient) {
			return c.Status(http.StatusPaymentRequired).JSON(fiber.Map{
				"error":     insufficient.Error(),
				"eco_coins": insufficient.Balance,
				"shortfall": insufficient.Shortfall(),
			})
		}
		if err != nil {
			return httpError(err)
		}
		return c.Status(http.StatusOK).JSON(redeemResponse{
			Option:   option,
			EcoCoins: sess.Snapshot().EcoCoins,
			Redirect: option.RedirectPath(),
		})
	})
}
