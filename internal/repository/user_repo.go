package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

// UserFilter narrows user listings.
type UserFilter struct {
	Role   models.Role
	Search string
}

// UserIdentifier names a uniquely indexed account column.
type UserIdentifier string

const (
	IdentifierEmail     UserIdentifier = "email"
	IdentifierStudentID UserIdentifier = "student_id"
	IdentifierFacultyID UserIdentifier = "faculty_id"
)

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	CreateBatch(ctx context.Context, users []models.User) error
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context, filter UserFilter) ([]models.User, error)
	ExistingEmails(ctx context.Context, emails []string) ([]string, error)
	IdentifierTaken(ctx context.Context, field UserIdentifier, value string, excludeID uint) (bool, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) (int64, error)
	DeleteMany(ctx context.Context, ids []uint) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a gorm backed user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) CreateBatch(ctx context.Context, users []models.User) error {
	if len(users) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&users).Error
	})
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]models.User, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var users []models.User
	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) ExistingEmails(ctx context.Context, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	var existing []string
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email IN ?", emails).
		Order("email").
		Pluck("email", &existing).Error
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// IdentifierTaken reports whether another account already uses value. excludeID skips the account being edited.
func (r *userRepository) IdentifierTaken(ctx context.Context, field UserIdentifier, value string, excludeID uint) (bool, error) {
	switch field {
	case IdentifierEmail, IdentifierStudentID, IdentifierFacultyID:
	default:
		return false, fmt.Errorf("unknown user identifier %q", field)
	}

	query := r.db.WithContext(ctx).Model(&models.User{}).Where(string(field)+" = ?", value)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.User{}, id)
	return result.RowsAffected, result.Error
}

func (r *userRepository) DeleteMany(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.User{})
	return result.RowsAffected, result.Error
}

func (r *userRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{})
	return result.RowsAffected, result.Error
}
