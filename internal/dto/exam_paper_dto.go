package dto

import (
	"time"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

// QuestionPayload describes one question. Options and CorrectAnswer are checked against the type by the service.
type QuestionPayload struct {
	Question      string   `json:"question" validate:"required"`
	Type          string   `json:"type" validate:"required,oneof=mcq subjective"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Marks         int      `json:"marks" validate:"required,gte=1"`
}

// ExamPaperCreateRequest describes a new exam paper.
type ExamPaperCreateRequest struct {
	Title        string            `json:"title" validate:"required,min=3,max=100"`
	Description  string            `json:"description" validate:"required"`
	SubjectID    uint              `json:"subject_id" validate:"required,gt=0"`
	Duration     int               `json:"duration" validate:"required,gte=1"`
	TotalMarks   int               `json:"total_marks" validate:"required,gte=1"`
	PassingMarks *int              `json:"passing_marks" validate:"required,gte=0"`
	Questions    []QuestionPayload `json:"questions" validate:"required,min=1,dive"`
	Instructions string            `json:"instructions" validate:"required"`
	StartTime    *time.Time        `json:"start_time"`
	EndTime      *time.Time        `json:"end_time"`
}

// ExamPaperUpdateRequest is a partial update. Status only accepts completed.
type ExamPaperUpdateRequest struct {
	Title        *string           `json:"title" validate:"omitempty,min=3,max=100"`
	Description  *string           `json:"description" validate:"omitempty,min=1"`
	SubjectID    *uint             `json:"subject_id" validate:"omitempty,gt=0"`
	Duration     *int              `json:"duration" validate:"omitempty,gte=1"`
	TotalMarks   *int              `json:"total_marks" validate:"omitempty,gte=1"`
	PassingMarks *int              `json:"passing_marks" validate:"omitempty,gte=0"`
	Questions    []QuestionPayload `json:"questions" validate:"omitempty,min=1,dive"`
	Instructions *string           `json:"instructions" validate:"omitempty,min=1"`
	Status       *string           `json:"status" validate:"omitempty,oneof=completed"`
	StartTime    *time.Time        `json:"start_time"`
	EndTime      *time.Time        `json:"end_time"`
}

// ExamPaperRejectRequest carries the reviewer's reason.
type ExamPaperRejectRequest struct {
	Reason string `json:"reason" validate:"max=2000"`
}

// ExamPaperListRequest filters staff listings.
type ExamPaperListRequest struct {
	Status    string
	SubjectID *uint
}

// ExamPaperResponse serializes an exam paper. IsSubmitted and IsAvailable are only set for students.
type ExamPaperResponse struct {
	ID              uint                   `json:"id"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	SubjectID       uint                   `json:"subject_id"`
	Subject         SubjectLite            `json:"subject"`
	FacultyID       uint                   `json:"faculty_id"`
	Department      string                 `json:"department"`
	Specialization  string                 `json:"specialization"`
	Duration        int                    `json:"duration"`
	TotalMarks      int                    `json:"total_marks"`
	PassingMarks    int                    `json:"passing_marks"`
	Questions       []models.Question      `json:"questions"`
	Instructions    string                 `json:"instructions"`
	Status          models.ExamPaperStatus `json:"status"`
	RejectionReason string                 `json:"rejection_reason,omitempty"`
	IsActive        bool                   `json:"is_active"`
	StartTime       *time.Time             `json:"start_time,omitempty"`
	EndTime         *time.Time             `json:"end_time,omitempty"`
	IsSubmitted     *bool                  `json:"is_submitted,omitempty"`
	IsAvailable     *bool                  `json:"is_available,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// NewExamPaperResponse converts an ExamPaper model into a DTO. Placement is read from the
// preloaded subject when present so a stale stored mirror is never served.
func NewExamPaperResponse(model models.ExamPaper) ExamPaperResponse {
	department := model.Department
	specialization := model.Specialization
	if model.Subject.ID != 0 {
		department = model.Subject.Department
		specialization = model.Subject.Specialization
	}

	questions := []models.Question(model.Questions)
	if questions == nil {
		questions = []models.Question{}
	}

	return ExamPaperResponse{
		ID:              model.ID,
		Title:           model.Title,
		Description:     model.Description,
		SubjectID:       model.SubjectID,
		Subject:         newSubjectLite(model.Subject),
		FacultyID:       model.FacultyID,
		Department:      department,
		Specialization:  specialization,
		Duration:        model.Duration,
		TotalMarks:      model.TotalMarks,
		PassingMarks:    model.PassingMarks,
		Questions:       questions,
		Instructions:    model.Instructions,
		Status:          model.Status,
		RejectionReason: model.RejectionReason,
		IsActive:        model.IsActive,
		StartTime:       model.StartTime,
		EndTime:         model.EndTime,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}
