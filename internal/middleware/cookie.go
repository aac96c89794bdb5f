package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// CookieConfig describes the auth cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

func (cfg CookieConfig) sameSite() string {
	if cfg.Secure {
		return fiber.CookieSameSiteNoneMode
	}
	return fiber.CookieSameSiteLaxMode
}

// SetAuthCookie stores token in an HttpOnly cookie that lives as long as the token.
func SetAuthCookie(c *fiber.Ctx, cfg CookieConfig, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		Expires:  time.Now().Add(cfg.TTL),
		HTTPOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.sameSite(),
	})
}

// ClearAuthCookie expires the auth cookie.
func ClearAuthCookie(c *fiber.Ctx, cfg CookieConfig) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.sameSite(),
	})
}
