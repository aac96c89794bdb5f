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

// ExamPaperHandler wires exam paper authoring and review routes.
type ExamPaperHandler struct {
	service service.ExamPaperService
	logger  zerolog.Logger
}

// NewExamPaperHandler constructs the handler.
func NewExamPaperHandler(service service.ExamPaperService, logger zerolog.Logger) *ExamPaperHandler {
	return &ExamPaperHandler{
		service: service,
		logger:  logger.With().Str("component", "exam_paper_handler").Logger(),
	}
}

// Register attaches exam paper endpoints to the router group.
func (h *ExamPaperHandler) Register(router fiber.Router) {
	faculty := middleware.RequireRole(models.RoleFaculty)
	staff := middleware.RequireRole(models.RoleFaculty, models.RoleAdmin)
	admin := middleware.RequireRole(models.RoleAdmin)

	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", faculty, h.create)
	router.Put("/:id", staff, h.update)
	router.Delete("/:id", staff, h.delete)
	router.Post("/:id/approve", admin, h.approve)
	router.Post("/:id/reject", admin, h.reject)
}

func (h *ExamPaperHandler) list(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	subjectID, err := parseQueryUint(c, "subject_id")
	if err != nil {
		return badRequest(c, err)
	}

	papers, err := h.service.List(c.UserContext(), caller, dto.ExamPaperListRequest{
		Status:    c.Query("status"),
		SubjectID: subjectID,
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "exam papers retrieved", papers)
}

func (h *ExamPaperHandler) get(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	paper, err := h.service.Get(c.UserContext(), caller, id)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "exam paper retrieved", paper)
}

func (h *ExamPaperHandler) create(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	var payload dto.ExamPaperCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	paper, err := h.service.Create(c.UserContext(), caller, payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exam paper created", paper)
}

func (h *ExamPaperHandler) update(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	var payload dto.ExamPaperUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	paper, err := h.service.Update(c.UserContext(), caller, id, payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "exam paper updated", paper)
}

func (h *ExamPaperHandler) delete(c *fiber.Ctx) error {
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
	return utils.SendSuccess(c, "exam paper deleted", fiber.Map{"id": id})
}

func (h *ExamPaperHandler) approve(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	paper, err := h.service.Approve(c.UserContext(), caller, id)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "exam paper approved", paper)
}

func (h *ExamPaperHandler) reject(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	var payload dto.ExamPaperRejectRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	paper, err := h.service.Reject(c.UserContext(), caller, id, payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "exam paper rejected", paper)
}
