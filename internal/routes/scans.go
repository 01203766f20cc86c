package routes

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/win-bin/win_bin/internal/classifier"
	"github.com/win-bin/win_bin/internal/metrics"
)

type scanRequest struct {
	PhotoDataURI string `json:"photo_data_uri"`
}

type scanResponse struct {
	Detected    bool                    `json:"detected"`
	Type        string                  `json:"type,omitempty"`
	Suggestions []classifier.Suggestion `json:"suggestions,omitempty"`
}

// RegisterScanRoutes classifies a captured photo. Nothing is recorded until the
// client confirms the bottle via POST /bottles.
func RegisterScanRoutes(r fiber.Router, cls classifier.Classifier, logger *slog.Logger) {
	r.Post("/scans", func(c *fiber.Ctx) error {
		var req scanRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		img, err := classifier.ParseDataURI(req.PhotoDataURI)
		if err != nil {
			return httpError(err)
		}

		result, err := cls.Classify(c.UserContext(), img)
		if err != nil {
			metrics.RecordScan(metrics.ScanError)
			logger.Error("classify bottle", slog.Any("error", err))
			return httpError(err)
		}

		bottleType, ok := result.Detected()
		if !ok {
			metrics.RecordScan(metrics.ScanNone)
			return c.Status(http.StatusOK).JSON(scanResponse{Detected: false})
		}
		metrics.RecordScan(metrics.ScanDetected)
		return c.Status(http.StatusOK).JSON(scanResponse{
			Detected:    true,
			Type:        bottleType,
			Suggestions: result.Suggestions,
		})
	})
}
