package handler

import (
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/middleware"
	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/service"
	"github.com/noah-isme/exam-portal-api/internal/utils"
)

// UserHandler wires the account administration routes.
type UserHandler struct {
	service        service.UserService
	uploadMaxBytes int64
	logger         zerolog.Logger
}

// NewUserHandler constructs the handler. uploadMaxBytes caps bulk upload files.
func NewUserHandler(service service.UserService, uploadMaxBytes int64, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service:        service,
		uploadMaxBytes: uploadMaxBytes,
		logger:         logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register attaches user endpoints to the router group.
func (h *UserHandler) Register(router fiber.Router) {
	admin := middleware.RequireRole(models.RoleAdmin)

	router.Get("", admin, h.list)
	router.Post("", admin, h.create)
	router.Post("/bulk", admin, h.bulkCreate)
	router.Delete("/bulk", admin, h.bulkDelete)
	router.Get("/:id", h.get)
	router.Patch("/:id", admin, h.update)
	router.Delete("/:id", admin, h.delete)
}

func (h *UserHandler) list(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext(), dto.UserListRequest{
		Role:   c.Query("role"),
		Search: c.Query("search"),
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "users retrieved", users)
}

func (h *UserHandler) get(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	user, err := h.service.Get(c.UserContext(), caller, id)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "user retrieved", user)
}

func (h *UserHandler) create(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	var payload dto.UserCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	user, err := h.service.Create(c.UserContext(), caller, payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "user created", user)
}

func (h *UserHandler) update(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	var payload dto.UserUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	user, err := h.service.Update(c.UserContext(), caller, id, payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "user updated", user)
}

func (h *UserHandler) delete(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	if err := h.service.Delete(c.UserContext(), caller, id); err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "user deleted", fiber.Map{"id": id})
}

// bulkCreate accepts either {"users": [...]} or a multipart "file" holding a JSON array.
func (h *UserHandler) bulkCreate(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	var users []dto.UserCreateRequest
	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		data, err := h.readUpload(c)
		if err != nil {
			return writeError(c, h.logger, err)
		}
		users, err = service.DecodeBulkUsers(data)
		if err != nil {
			return writeError(c, h.logger, err)
		}
	} else {
		var payload dto.BulkUserCreateRequest
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
		users = payload.Users
	}

	resp, err := h.service.BulkCreate(c.UserContext(), caller, users)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, fmt.Sprintf("%d users created", resp.CreatedCount), resp)
}

func (h *UserHandler) bulkDelete(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	var payload dto.BulkUserDeleteRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	resp, err := h.service.BulkDelete(c.UserContext(), caller, payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, fmt.Sprintf("%d users deleted", resp.DeletedCount), resp)
}

func (h *UserHandler) readUpload(c *fiber.Ctx) ([]byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: file is required", service.ErrValidation)
	}
	if h.uploadMaxBytes > 0 && header.Size > h.uploadMaxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", service.ErrValidation, h.uploadMaxBytes)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	limit := h.uploadMaxBytes
	if limit <= 0 {
		limit = header.Size
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", service.ErrValidation, limit)
	}
	return data, nil
}
