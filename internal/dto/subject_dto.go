package dto

import (
	"time"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

// SubjectCreateRequest describes a new subject. FacultyID defaults to the caller for faculty.
type SubjectCreateRequest struct {
	Name           string `json:"name" validate:"required,min=3,max=100"`
	Faculty        string `json:"faculty" validate:"omitempty,max=100"`
	FacultyID      uint   `json:"faculty_id"`
	School         string `json:"school" validate:"required,school"`
	Department     string `json:"department" validate:"required,department"`
	Specialization string `json:"specialization" validate:"required,specialization"`
	Semester       int    `json:"semester" validate:"required,gte=1,lte=8"`
}

// SubjectUpdateRequest is a partial subject update.
type SubjectUpdateRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=3,max=100"`
	Faculty        *string `json:"faculty" validate:"omitempty,max=100"`
	FacultyID      *uint   `json:"faculty_id" validate:"omitempty,gt=0"`
	School         *string `json:"school" validate:"omitempty,school"`
	Department     *string `json:"department" validate:"omitempty,department"`
	Specialization *string `json:"specialization" validate:"omitempty,specialization"`
	Semester       *int    `json:"semester" validate:"omitempty,gte=1,lte=8"`
}

// SubjectListRequest filters subject listings.
type SubjectListRequest struct {
	FacultyID  *uint
	Department string
	Semester   int
}

// SubjectResponse serializes a subject.
type SubjectResponse struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Faculty        string    `json:"faculty"`
	FacultyID      uint      `json:"faculty_id"`
	School         string    `json:"school"`
	Department     string    `json:"department"`
	Specialization string    `json:"specialization"`
	Semester       int       `json:"semester"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewSubjectResponse converts a Subject model into a DTO.
func NewSubjectResponse(model models.Subject) SubjectResponse {
	return SubjectResponse{
		ID:             model.ID,
		Name:           model.Name,
		Faculty:        model.FacultyName,
		FacultyID:      model.FacultyID,
		School:         model.School,
		Department:     model.Department,
		Specialization: model.Specialization,
		Semester:       model.Semester,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}
