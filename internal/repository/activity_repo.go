package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

// ActivityFilter narrows activity log queries.
type ActivityFilter struct {
	Page     int
	PageSize int
	UserID   *uint
	Type     models.ActivityType
}

// ActivityRepository persists audit trail events.
type ActivityRepository interface {
	Create(ctx context.Context, entry *models.Activity) error
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs the activity log repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, entry *models.Activity) error {
	return r.db.WithContext(ctx).Omit("User").Create(entry).Error
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var entries []models.Activity
	if err := query.Preload("User").Order("created_at DESC").Order("id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
