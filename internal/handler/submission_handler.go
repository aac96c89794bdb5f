package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/middleware"
	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/service"
	"github.com/noah-isme/exam-portal-api/internal/utils"
)

// SubmissionHandler wires the submission workflow routes.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission endpoints to the router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	student := middleware.RequireRole(models.RoleStudent)
	faculty := middleware.RequireRole(models.RoleFaculty)
	admin := middleware.RequireRole(models.RoleAdmin)

	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", student, h.submit)
	router.Put("/:id/evaluate", faculty, h.evaluate)
	router.Put("/:id/submit-to-admin", faculty, h.submitToAdmin)
	router.Put("/:id/publish", admin, h.publish)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	paperID, err := parseQueryUint(c, "exam_paper_id")
	if err != nil {
		return badRequest(c, err)
	}

	submissions, err := h.service.List(c.UserContext(), caller, dto.SubmissionListRequest{
		Status:      c.Query("status"),
		ExamPaperID: paperID,
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	submission, err := h.service.Get(c.UserContext(), caller, id)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	submission, err := h.service.Submit(c.UserContext(), caller, payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exam submitted", submission)
}

func (h *SubmissionHandler) evaluate(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	var payload dto.SubmissionEvaluateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	submission, err := h.service.Evaluate(c.UserContext(), caller, id, payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submission evaluated", submission)
}

func (h *SubmissionHandler) submitToAdmin(c *fiber.Ctx) error {
	return h.transition(c, "submission sent to admin", h.service.SubmitToAdmin)
}

func (h *SubmissionHandler) publish(c *fiber.Ctx) error {
	return h.transition(c, "result published", h.service.Publish)
}

type submissionTransition func(ctx context.Context, identity service.Identity, id uint) (dto.SubmissionResponse, error)

func (h *SubmissionHandler) transition(c *fiber.Ctx, message string, apply submissionTransition) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	submission, err := apply(c.UserContext(), caller, id)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, message, submission)
}
