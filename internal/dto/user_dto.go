package dto

import (
	"time"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

// UserCreateRequest is the payload for registration, admin creation and bulk imports.
type UserCreateRequest struct {
	Name           string `json:"name" validate:"required,min=3,max=50"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	Role           string `json:"role" validate:"omitempty,role"`
	School         string `json:"school" validate:"omitempty,school"`
	Department     string `json:"department" validate:"omitempty,department"`
	Specialization string `json:"specialization" validate:"omitempty,specialization"`
	Semester       *int   `json:"semester" validate:"omitempty,gte=1,lte=8"`
	StudentID      string `json:"student_id" validate:"omitempty,studentid"`
	FacultyID      string `json:"faculty_id" validate:"omitempty,facultyid"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserUpdateRequest is an admin partial update; omitted fields keep their stored values.
type UserUpdateRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=3,max=50"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Password       *string `json:"password" validate:"omitempty,min=6"`
	Role           *string `json:"role" validate:"omitempty,role"`
	School         *string `json:"school" validate:"omitempty,school"`
	Department     *string `json:"department" validate:"omitempty,department"`
	Specialization *string `json:"specialization" validate:"omitempty,specialization"`
	Semester       *int    `json:"semester" validate:"omitempty,gte=1,lte=8"`
	StudentID      *string `json:"student_id" validate:"omitempty,studentid"`
	FacultyID      *string `json:"faculty_id" validate:"omitempty,facultyid"`
}

// ProfileUpdateRequest lets a user edit their own placement details.
type ProfileUpdateRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=3,max=50"`
	School         *string `json:"school" validate:"omitempty,school"`
	Department     *string `json:"department" validate:"omitempty,department"`
	Specialization *string `json:"specialization" validate:"omitempty,specialization"`
	Semester       *int    `json:"semester" validate:"omitempty,gte=1,lte=8"`
}

// UserListRequest filters the admin user listing.
type UserListRequest struct {
	Role   string
	Search string
}

// BulkUserCreateRequest wraps a batch of users to insert together.
type BulkUserCreateRequest struct {
	Users []UserCreateRequest `json:"users"`
}

// BulkUserDeleteRequest names the users to remove.
type BulkUserDeleteRequest struct {
	UserIDs []uint `json:"user_ids" validate:"required,min=1,dive,gt=0"`
}

// InvalidUserRecord itemises why a bulk record was rejected.
type InvalidUserRecord struct {
	Index  int               `json:"index"`
	Email  string            `json:"email,omitempty"`
	Errors map[string]string `json:"errors"`
}

// UserResponse serializes an account without its password hash.
type UserResponse struct {
	ID             uint        `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Role           models.Role `json:"role"`
	School         string      `json:"school,omitempty"`
	Department     string      `json:"department,omitempty"`
	Specialization string      `json:"specialization,omitempty"`
	Semester       *int        `json:"semester,omitempty"`
	StudentID      *string     `json:"student_id,omitempty"`
	FacultyID      *string     `json:"faculty_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// BulkUserCreateResponse reports the inserted batch.
type BulkUserCreateResponse struct {
	CreatedCount int            `json:"created_count"`
	Users        []UserResponse `json:"users"`
}

// BulkUserDeleteResponse reports how many users were removed.
type BulkUserDeleteResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}

// NewUserResponse converts a User model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:             model.ID,
		Name:           model.Name,
		Email:          model.Email,
		Role:           model.Role,
		School:         model.School,
		Department:     model.Department,
		Specialization: model.Specialization,
		Semester:       model.Semester,
		StudentID:      model.StudentNumber,
		FacultyID:      model.FacultyID,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// NewUserResponses converts a slice of users.
func NewUserResponses(items []models.User) []UserResponse {
	responses := make([]UserResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewUserResponse(item))
	}
	return responses
}
