package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-portal-api/internal/middleware"
	"github.com/noah-isme/exam-portal-api/internal/service"
	"github.com/noah-isme/exam-portal-api/internal/utils"
)

var errInvalidIdentifier = errors.New("invalid identifier")

// writeError translates a service error into the response envelope.
func writeError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var validationErr *service.ValidationError
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErr):
		var details interface{}
		if len(validationErr.Details) > 0 {
			details = validationErr.Details
		}
		return utils.Fail(c, fiber.StatusBadRequest, validationErr.Error(), details)
	case errors.As(err, &validationErrors):
		details := make(map[string]string, len(validationErrors))
		for _, fe := range validationErrors {
			details[fe.Field()] = fe.Tag()
		}
		return utils.Fail(c, fiber.StatusBadRequest, service.ErrValidation.Error(), details)
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrBadRequest):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// identity returns the authenticated caller. Routes are mounted behind Authenticate, so a
// missing identity means the handler was wired without it.
func identity(c *fiber.Ctx) (service.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return service.Identity{}, service.ErrUnauthorized
	}
	return id, nil
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	parsed, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errInvalidIdentifier
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

// parseQueryUint reads an optional positive id filter.
func parseQueryUint(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return nil, errors.New("invalid " + key)
	}
	id := uint(parsed)
	return &id, nil
}

func badRequest(c *fiber.Ctx, err error) error {
	return utils.SendError(c, fiber.StatusBadRequest, err.Error())
}
