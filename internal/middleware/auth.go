package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/service"
	"github.com/noah-isme/exam-portal-api/internal/utils"
)

const (
	localUser     = "user"
	localUserID   = "user_id"
	localUserRole = "user_role"
	localIdentity = "identity"
)

type identityKey struct{}

// Authenticator resolves an access token to the account it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

// Authenticate requires a valid access token, read from the auth cookie first and the bearer
// header second. The resolved user and identity are attached to the request.
func Authenticate(authenticator Authenticator, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c, cookieName)
		if token == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, service.ErrUnauthorized.Error())
		}

		user, err := authenticator.Authenticate(c.UserContext(), token)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, service.ErrUnauthorized.Error())
		}

		identity := service.IdentityFromUser(user)
		c.Locals(localUser, user)
		c.Locals(localUserID, user.ID)
		c.Locals(localUserRole, user.Role)
		c.Locals(localIdentity, identity)
		c.SetUserContext(context.WithValue(c.UserContext(), identityKey{}, identity))

		return c.Next()
	}
}

// IdentityFrom returns the identity attached by Authenticate.
func IdentityFrom(c *fiber.Ctx) (service.Identity, bool) {
	if c == nil {
		return service.Identity{}, false
	}
	identity, ok := c.Locals(localIdentity).(service.Identity)
	return identity, ok && identity.UserID != 0
}

// IdentityFromContext returns the identity carried by a request context.
func IdentityFromContext(ctx context.Context) (service.Identity, bool) {
	if ctx == nil {
		return service.Identity{}, false
	}
	identity, ok := ctx.Value(identityKey{}).(service.Identity)
	return identity, ok
}

// CurrentUser returns the authenticated account without its password hash.
func CurrentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals(localUser).(models.User)
	if !ok {
		return models.User{}, false
	}
	user.PasswordHash = ""
	return user, true
}

func extractToken(c *fiber.Ctx, cookieName string) string {
	if cookieName != "" {
		if token := strings.TrimSpace(c.Cookies(cookieName)); token != "" {
			return token
		}
	}

	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	const bearer = "bearer "
	if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return ""
	}
	return strings.TrimSpace(authorization[len(bearer):])
}
