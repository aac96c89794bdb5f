package handler

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/middleware"
	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/service"
	"github.com/noah-isme/exam-portal-api/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ResultHandler wires published result routes.
type ResultHandler struct {
	service service.ResultService
	logger  zerolog.Logger
	now     func() time.Time
}

// NewResultHandler constructs the handler.
func NewResultHandler(service service.ResultService, logger zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		service: service,
		logger:  logger.With().Str("component", "result_handler").Logger(),
		now:     time.Now,
	}
}

// Register attaches result endpoints to the router group.
func (h *ResultHandler) Register(router fiber.Router) {
	staff := middleware.RequireRole(models.RoleFaculty, models.RoleAdmin)

	router.Get("", h.list)
	router.Get("/stats", staff, h.stats)
	router.Get("/export", staff, h.export)
	router.Get("/:id", h.get)
}

func (h *ResultHandler) filter(c *fiber.Ctx) (dto.ResultListRequest, error) {
	paperID, err := parseQueryUint(c, "exam_paper_id")
	if err != nil {
		return dto.ResultListRequest{}, err
	}
	return dto.ResultListRequest{ExamPaperID: paperID}, nil
}

func (h *ResultHandler) list(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	req, err := h.filter(c)
	if err != nil {
		return badRequest(c, err)
	}

	results, err := h.service.List(c.UserContext(), caller, req)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "results retrieved", results)
}

func (h *ResultHandler) get(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	result, err := h.service.Get(c.UserContext(), caller, id)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "result retrieved", result)
}

func (h *ResultHandler) stats(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	req, err := h.filter(c)
	if err != nil {
		return badRequest(c, err)
	}

	stats, err := h.service.Stats(c.UserContext(), caller, req)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "result statistics retrieved", stats)
}

func (h *ResultHandler) export(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	req, err := h.filter(c)
	if err != nil {
		return badRequest(c, err)
	}

	data, err := h.service.Export(c.UserContext(), caller, req)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	filename := fmt.Sprintf("results-%s.xlsx", h.now().UTC().Format("20060102-150405"))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Status(fiber.StatusOK).Send(data)
}
