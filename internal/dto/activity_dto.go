package dto

import (
	"time"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

// ActivityListRequest defines filters for the activity log.
type ActivityListRequest struct {
	Page     int
	PageSize int
	Type     string
	UserID   uint
}

// ActivityResponse serializes an activity log entry.
type ActivityResponse struct {
	ID        uint                `json:"id"`
	UserID    *uint               `json:"user_id"`
	User      *UserLite           `json:"user,omitempty"`
	Action    string              `json:"action"`
	Type      models.ActivityType `json:"type"`
	Details   string              `json:"details,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// ActivityListResponse wraps a paginated activity response.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse converts an activity model into a DTO.
func NewActivityResponse(model models.Activity) ActivityResponse {
	return ActivityResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		User:      newUserLite(model.User),
		Action:    model.Action,
		Type:      model.Type,
		Details:   model.Details,
		CreatedAt: model.CreatedAt,
	}
}
