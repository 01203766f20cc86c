package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/win-bin/win_bin/internal/middleware"
	"github.com/win-bin/win_bin/internal/session"
)

type loginRequest struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	NewUser bool            `json:"new_user"`
	Account accountResponse `json:"account"`
}

// RegisterAuthRoutes wires login and logout.
func RegisterAuthRoutes(r fiber.Router, sessions *session.Registry, rateLimiter fiber.Handler) {
	group := r.Group("/auth")

	login := func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		token, res, err := sessions.Login(c.UserContext(), req.Name, req.Mobile)
		if err != nil {
			return httpError(err)
		}
		status := http.StatusOK
		if res.NewUser {
			status = http.StatusCreated
		}
		return c.Status(status).JSON(loginResponse{
			Token:   token,
			NewUser: res.NewUser,
			Account: toAccountResponse(res.View),
		})
	}
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, login)
	} else {
		group.Post("/login", login)
	}

	group.Post("/logout", func(c *fiber.Ctx) error {
		sessions.Logout(c.UserContext(), middleware.SessionToken(c))
		return c.SendStatus(http.StatusNoContent)
	})
}
