package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/service"
	"github.com/noah-isme/exam-portal-api/internal/utils"
)

// RequireRole ensures that the authenticated user possesses one of the allowed roles.
func RequireRole(roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		if role.Valid() {
			allowed[role] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFrom(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, service.ErrUnauthorized.Error())
		}
		if _, permitted := allowed[identity.Role]; !permitted {
			return utils.SendError(c, fiber.StatusForbidden, service.ErrForbidden.Error())
		}
		return c.Next()
	}
}
