package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/middleware"
	"github.com/noah-isme/exam-portal-api/internal/service"
	"github.com/noah-isme/exam-portal-api/internal/utils"
)

// AuthHandler serves registration, login and the caller's own profile.
type AuthHandler struct {
	service service.AuthService
	cookie  middleware.CookieConfig
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, cookie middleware.CookieConfig, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookie:  cookie,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterPublic attaches the unauthenticated endpoints. limit guards register and login.
func (h *AuthHandler) RegisterPublic(router fiber.Router, limit fiber.Handler) {
	if limit == nil {
		limit = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Post("/register", limit, h.register)
	router.Post("/login", limit, h.login)
	router.Post("/logout", h.logout)
}

// Register attaches the endpoints that need an authenticated caller.
func (h *AuthHandler) Register(router fiber.Router, authenticate fiber.Handler) {
	router.Get("/me", authenticate, h.me)
	router.Patch("/me", authenticate, h.updateMe)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.UserCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	resp, err := h.service.Register(c.UserContext(), payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	middleware.SetAuthCookie(c, h.cookie, resp.Token)
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "user registered", resp)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	resp, err := h.service.Login(c.UserContext(), payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	middleware.SetAuthCookie(c, h.cookie, resp.Token)
	return utils.SendSuccess(c, "login successful", resp)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	middleware.ClearAuthCookie(c, h.cookie)
	return utils.SendSuccess(c, "logged out", nil)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	profile, err := h.service.Profile(c.UserContext(), caller)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "profile retrieved", profile)
}

func (h *AuthHandler) updateMe(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	var payload dto.ProfileUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	profile, err := h.service.UpdateProfile(c.UserContext(), caller, payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "profile updated", profile)
}
