package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/service"
)

func appWithIdentity(identity *service.Identity, guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if identity != nil {
			c.Locals(localIdentity, *identity)
		}
		return c.Next()
	})
	app.Use(guard)
	app.Get("/admin", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireRoleAllowsAuthorizedRoles(t *testing.T) {
	app := appWithIdentity(&service.Identity{UserID: 1, Role: models.RoleAdmin}, RequireRole(models.RoleAdmin, models.RoleFaculty))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRoleRejectsUnauthorizedRoles(t *testing.T) {
	app := appWithIdentity(&service.Identity{UserID: 2, Role: models.RoleStudent}, RequireRole(models.RoleAdmin, models.RoleFaculty))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRoleRejectsUnknownRoleAndAnonymous(t *testing.T) {
	app := appWithIdentity(&service.Identity{UserID: 3, Role: models.Role("guest")}, RequireRole(models.RoleAdmin, models.Role("guest")))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	anonymous := appWithIdentity(nil, RequireRole(models.RoleAdmin))
	resp, err = anonymous.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
