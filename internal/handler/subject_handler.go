package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/middleware"
	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/service"
	"github.com/noah-isme/exam-portal-api/internal/utils"
)

// SubjectHandler wires subject routes.
type SubjectHandler struct {
	service service.SubjectService
	logger  zerolog.Logger
}

// NewSubjectHandler constructs the handler.
func NewSubjectHandler(service service.SubjectService, logger zerolog.Logger) *SubjectHandler {
	return &SubjectHandler{
		service: service,
		logger:  logger.With().Str("component", "subject_handler").Logger(),
	}
}

// Register attaches subject endpoints to the router group.
func (h *SubjectHandler) Register(router fiber.Router) {
	staff := middleware.RequireRole(models.RoleFaculty, models.RoleAdmin)

	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", staff, h.create)
	router.Patch("/:id", staff, h.update)
	router.Delete("/:id", staff, h.delete)
}

func (h *SubjectHandler) list(c *fiber.Ctx) error {
	facultyID, err := parseQueryUint(c, "faculty_id")
	if err != nil {
		return badRequest(c, err)
	}
	semester, err := parseQueryInt(c, "semester")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid semester")
	}

	subjects, err := h.service.List(c.UserContext(), dto.SubjectListRequest{
		FacultyID:  facultyID,
		Department: c.Query("department"),
		Semester:   semester,
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "subjects retrieved", subjects)
}

func (h *SubjectHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	subject, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "subject retrieved", subject)
}

func (h *SubjectHandler) create(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	var payload dto.SubjectCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	subject, err := h.service.Create(c.UserContext(), caller, payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "subject created", subject)
}

func (h *SubjectHandler) update(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	var payload dto.SubjectUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	subject, err := h.service.Update(c.UserContext(), caller, id, payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "subject updated", subject)
}

func (h *SubjectHandler) delete(c *fiber.Ctx) error {
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
	return utils.SendSuccess(c, "subject deleted", fiber.Map{"id": id})
}
