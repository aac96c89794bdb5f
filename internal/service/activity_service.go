package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/observability"
	"github.com/noah-isme/exam-portal-api/internal/repository"
)

const defaultActivityPageSize = 20

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	UserID  *uint
	Action  string
	Type    models.ActivityType
	Details string
}

// ActivityRecorder defines behaviour for recording activity logs.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error)
}

// ActivityPublisher receives every persisted activity, typically to push it to live dashboards.
type ActivityPublisher interface {
	Publish(ctx context.Context, activity dto.ActivityResponse)
}

// ActivityService exposes methods to query and persist activity logs.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
}

type activityService struct {
	repo      repository.ActivityRepository
	publisher ActivityPublisher
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewActivityService constructs the activity log service. publisher may be nil.
func NewActivityService(repo repository.ActivityRepository, publisher ActivityPublisher, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:      repo,
		publisher: publisher,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	action := strings.TrimSpace(s.sanitizer.Sanitize(entry.Action))
	if action == "" {
		return dto.ActivityResponse{}, fmt.Errorf("action is required")
	}
	if !entry.Type.Valid() {
		return dto.ActivityResponse{}, fmt.Errorf("unknown activity type %q", entry.Type)
	}

	model := models.Activity{
		UserID:  entry.UserID,
		Action:  action,
		Type:    entry.Type,
		Details: strings.TrimSpace(s.sanitizer.Sanitize(entry.Details)),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("failed to persist activity log")
		return dto.ActivityResponse{}, err
	}

	observability.ActivityEvents().WithLabelValues(string(model.Type)).Inc()

	response := dto.NewActivityResponse(model)
	if s.publisher != nil {
		s.publisher.Publish(ctx, response)
	}

	return response, nil
}

func (s *activityService) List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	page := maxInt(req.Page, 1)
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultActivityPageSize
	}
	if pageSize > 100 {
		pageSize = 100
	}

	filter := repository.ActivityFilter{
		Page:     page,
		PageSize: pageSize,
	}
	if kind := models.ActivityType(strings.ToLower(strings.TrimSpace(req.Type))); kind != "" {
		if !kind.Valid() {
			return dto.ActivityListResponse{}, newValidationError("invalid activity type", map[string]interface{}{
				"type": "type must be user, paper or result",
			})
		}
		filter.Type = kind
	}
	if req.UserID > 0 {
		userID := req.UserID
		filter.UserID = &userID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	responses := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewActivityResponse(entry))
	}

	pagination := dto.PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}

	return dto.ActivityListResponse{Items: responses, Pagination: pagination}, nil
}

// recordActivity records entry and logs, rather than returns, any failure. The state change that
// triggered it has already been persisted.
func recordActivity(ctx context.Context, recorder ActivityRecorder, logger zerolog.Logger, entry ActivityEntry) {
	if recorder == nil {
		return
	}
	if _, err := recorder.Record(ctx, entry); err != nil {
		logger.Warn().Err(err).Str("action", entry.Action).Msg("failed to record activity")
	}
}

func uintPtr(v uint) *uint {
	return &v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
