package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/service"
	"github.com/noah-isme/exam-portal-api/internal/utils"
)

// ActivityHandler exposes the activity log and its live stream.
type ActivityHandler struct {
	service service.ActivityService
	feed    service.ActivityFeed
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, feed service.ActivityFeed, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		feed:    feed,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches activity routes to the router group. Callers gate the group to admins.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)

	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.stream))
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}
	userID, err := parseQueryUint(c, "user_id")
	if err != nil {
		return badRequest(c, err)
	}

	req := dto.ActivityListRequest{
		Page:     page,
		PageSize: pageSize,
		Type:     c.Query("type"),
	}
	if userID != nil {
		req.UserID = *userID
	}

	resp, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return utils.OK(c, resp.Items, "activities retrieved", resp.Pagination)
}

// stream pushes every recorded activity to the client until either side goes away.
func (h *ActivityHandler) stream(conn *websocket.Conn) {
	events, unsubscribe := h.feed.Subscribe()
	defer unsubscribe()

	logger := h.logger.With().Interface("correlation_id", conn.Locals("correlation_id")).Logger()
	logger.Info().Msg("activity stream connected")
	defer logger.Info().Msg("activity stream disconnected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The client never sends anything meaningful; reading detects the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case activity, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(activity); err != nil {
				logger.Debug().Err(err).Msg("activity stream write failed")
				return
			}
		}
	}
}
