package routes

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/win-bin/win_bin/internal/classifier"
	"github.com/win-bin/win_bin/internal/ledger"
	"github.com/win-bin/win_bin/internal/rewards"
	"github.com/win-bin/win_bin/internal/session"
)

// httpError maps domain errors onto API status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, session.ErrInvalidName),
		errors.Is(err, session.ErrInvalidMobile),
		errors.Is(err, session.ErrInvalidBottleType),
		errors.Is(err, session.ErrInvalidBottleSize),
		errors.Is(err, rewards.ErrInvalidCost),
		errors.Is(err, classifier.ErrInvalidDataURI),
		errors.Is(err, classifier.ErrUnsupportedImage):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, session.ErrNotAuthenticated):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, session.ErrNameMismatch):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, rewards.ErrUnknownOption), errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrCapacityExceeded):
		return fiber.NewError(http.StatusInsufficientStorage, "user registry is full")
	case errors.Is(err, ledger.ErrStorageUnavailable):
		return fiber.NewError(http.StatusServiceUnavailable, "storage unavailable, try again")
	case errors.Is(err, classifier.ErrUpstream):
		return fiber.NewError(http.StatusBadGateway, "bottle classifier unavailable")
	default:
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
}

// ErrorHandler renders every error as {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	msg := "internal error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
