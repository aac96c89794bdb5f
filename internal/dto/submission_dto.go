package dto

import (
	"time"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

// AnswerPayload is one answer in a submission. Both fields must be present.
type AnswerPayload struct {
	QuestionIndex  *int    `json:"question_index" validate:"required,gte=0"`
	SelectedOption *string `json:"selected_option" validate:"required"`
}

// SubmissionCreateRequest describes a student's attempt.
type SubmissionCreateRequest struct {
	ExamPaperID uint            `json:"exam_paper_id" validate:"required,gt=0"`
	Answers     []AnswerPayload `json:"answers" validate:"required,dive"`
	StartTime   *time.Time      `json:"start_time"`
	EndTime     *time.Time      `json:"end_time"`
}

// EvaluationPayload carries marks and an optional comment for one answered question.
type EvaluationPayload struct {
	QuestionIndex int      `json:"question_index" validate:"gte=0"`
	Marks         *float64 `json:"marks" validate:"omitempty,gte=0"`
	Comment       string   `json:"comment" validate:"max=2000"`
}

// SubmissionEvaluateRequest is the faculty's evaluation of a submission.
type SubmissionEvaluateRequest struct {
	Score       *float64            `json:"score" validate:"required,gte=0"`
	Evaluations []EvaluationPayload `json:"evaluations" validate:"required,dive"`
	Feedback    string              `json:"feedback" validate:"max=5000"`
}

// SubmissionListRequest filters submission listings.
type SubmissionListRequest struct {
	Status      string
	ExamPaperID *uint
}

// SubmissionResponse serializes a submission.
type SubmissionResponse struct {
	ID                 uint                    `json:"id"`
	StudentID          uint                    `json:"student_id"`
	Student            *UserLite               `json:"student,omitempty"`
	ExamPaperID        uint                    `json:"exam_paper_id"`
	ExamPaper          *ExamPaperLite          `json:"exam_paper,omitempty"`
	Answers            []models.Answer         `json:"answers"`
	Score              *float64                `json:"score"`
	Feedback           string                  `json:"feedback,omitempty"`
	StartTime          time.Time               `json:"start_time"`
	EndTime            time.Time               `json:"end_time"`
	IsSubmitted        bool                    `json:"is_submitted"`
	Status             models.SubmissionStatus `json:"status"`
	EvaluatedBy        *uint                   `json:"evaluated_by,omitempty"`
	EvaluatedAt        *time.Time              `json:"evaluated_at,omitempty"`
	SubmittedToAdminAt *time.Time              `json:"submitted_to_admin_at,omitempty"`
	PublishedAt        *time.Time              `json:"published_at,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	answers := []models.Answer(model.Answers)
	if answers == nil {
		answers = []models.Answer{}
	}

	return SubmissionResponse{
		ID:                 model.ID,
		StudentID:          model.StudentID,
		Student:            newUserLite(model.Student),
		ExamPaperID:        model.ExamPaperID,
		ExamPaper:          newExamPaperLite(model.ExamPaper),
		Answers:            answers,
		Score:              model.Score,
		Feedback:           model.Feedback,
		StartTime:          model.StartTime,
		EndTime:            model.EndTime,
		IsSubmitted:        model.IsSubmitted,
		Status:             model.Status,
		EvaluatedBy:        model.EvaluatedBy,
		EvaluatedAt:        model.EvaluatedAt,
		SubmittedToAdminAt: model.SubmittedToAdminAt,
		PublishedAt:        model.PublishedAt,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}
