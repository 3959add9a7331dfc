package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-api/internal/models"
)

func roleApp(role string, guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_role", role)
		return c.Next()
	})
	app.Use(guard)
	app.Post("/leaderboard/calculate", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func requestCalculate(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/leaderboard/calculate", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestRequireRoleAllowsAuthorizedRoles(t *testing.T) {
	app := roleApp("admin", RequireRole(models.RoleAdmin))

	resp := requestCalculate(t, app)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRoleMatchesCaseInsensitively(t *testing.T) {
	// JWT claims carry lowercase roles while the model constants are
	// uppercase; the guard must accept both spellings.
	app := roleApp("ADMIN", RequireRole(models.RoleAdmin, models.RoleTeacher))

	resp := requestCalculate(t, app)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRoleRejectsUnauthorizedRoles(t *testing.T) {
	app := roleApp("student", RequireRole(models.RoleAdmin, models.RoleTeacher))

	resp := requestCalculate(t, app)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	app := fiber.New()
	app.Use(RequireRole(models.RoleAdmin))
	app.Post("/leaderboard/calculate", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp := requestCalculate(t, app)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
