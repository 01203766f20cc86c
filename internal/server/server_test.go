package server

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/win-bin/win_bin/internal/classifier"
	"github.com/win-bin/win_bin/internal/config"
	"github.com/win-bin/win_bin/internal/ledger"
	"github.com/win-bin/win_bin/internal/logging"
	"github.com/win-bin/win_bin/internal/routes"
	"github.com/win-bin/win_bin/internal/session"
)

func testDeps(env string) routes.Deps {
	store := ledger.NewStore(ledger.NewInMemory())
	return routes.Deps{
		Cfg:        config.Config{AppName: "Win-Bin", AppEnv: env, Port: "0", AllowedOrigins: "*"},
		Store:      store,
		Sessions:   session.NewRegistry(session.NewMemoryTokenStore(0), func(p session.Pointer) *session.Session { return session.New(store, p) }, nil),
		Classifier: classifier.Static{},
		Logger:     logging.Discard(),
	}
}

func TestNewRequiresRedisOutsideDevelopment(t *testing.T) {
	if _, err := New(testDeps("production")); err == nil {
		t.Fatalf("expected production server without redis to fail")
	}
}

func TestUnknownRouteRendersJSONError(t *testing.T) {
	srv, err := New(testDeps("development"))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	resp, err := srv.App().Test(httptest.NewRequest(fiber.MethodGet, "/nope", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get(fiber.HeaderContentType); ct != fiber.MIMEApplicationJSON {
		t.Fatalf("expected json error body, got %q", ct)
	}
}
