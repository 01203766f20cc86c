package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/win-bin/win_bin/internal/ledger"
	"github.com/win-bin/win_bin/internal/session"
)

// SessionTokenHeader carries the opaque token issued at login.
const SessionTokenHeader = "X-Session-Token"

const sessionLocalsKey = "session"

// SessionOpener resolves a token to a live session.
type SessionOpener interface {
	Open(ctx context.Context, token string) (*session.Session, error)
}

// SessionAuth rejects requests without a valid session token and exposes the
// session to handlers through CurrentSession.
func SessionAuth(sessions SessionOpener) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := SessionToken(c)
		if token == "" {
			return fiber.NewError(http.StatusUnauthorized, "missing session token")
		}
		sess, err := sessions.Open(c.UserContext(), token)
		if errors.Is(err, ledger.ErrStorageUnavailable) {
			return fiber.NewError(http.StatusServiceUnavailable, "storage unavailable")
		}
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "session expired or invalid")
		}
		c.Locals(sessionLocalsKey, sess)
		return c.Next()
	}
}

// SessionToken returns the trimmed session token header.
func SessionToken(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Get(SessionTokenHeader))
}

// CurrentSession returns the session attached by SessionAuth.
func CurrentSession(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(sessionLocalsKey).(*session.Session)
	return sess
}
