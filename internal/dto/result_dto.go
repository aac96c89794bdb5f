package dto

import (
	"time"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

// ResultListRequest filters result listings, stats and exports.
type ResultListRequest struct {
	ExamPaperID *uint
}

// ResultResponse serializes a published result.
type ResultResponse struct {
	ID           uint           `json:"id"`
	StudentID    uint           `json:"student_id"`
	Student      *UserLite      `json:"student,omitempty"`
	ExamPaperID  uint           `json:"exam_paper_id"`
	ExamPaper    *ExamPaperLite `json:"exam_paper,omitempty"`
	SubmissionID uint           `json:"submission_id"`
	Score        float64        `json:"score"`
	TotalMarks   int            `json:"total_marks"`
	Percentage   float64        `json:"percentage"`
	Passed       *bool          `json:"passed,omitempty"`
	Feedback     string         `json:"feedback,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ResultStatsResponse aggregates published results.
type ResultStatsResponse struct {
	AverageScore      float64 `json:"average_score"`
	HighestScore      float64 `json:"highest_score"`
	LowestScore       float64 `json:"lowest_score"`
	AveragePercentage float64 `json:"average_percentage"`
	TotalStudents     int64   `json:"total_students"`
	PassCount         int64   `json:"pass_count"`
}

// NewResultResponse converts a Result model into a DTO.
func NewResultResponse(model models.Result) ResultResponse {
	response := ResultResponse{
		ID:           model.ID,
		StudentID:    model.StudentID,
		Student:      newUserLite(model.Student),
		ExamPaperID:  model.ExamPaperID,
		ExamPaper:    newExamPaperLite(model.ExamPaper),
		SubmissionID: model.SubmissionID,
		Score:        model.Score,
		TotalMarks:   model.TotalMarks,
		Percentage:   model.Percentage,
		Feedback:     model.Feedback,
		CreatedAt:    model.CreatedAt,
	}
	if model.ExamPaper != nil && model.ExamPaper.ID != 0 {
		passed := model.Score >= float64(model.ExamPaper.PassingMarks)
		response.Passed = &passed
	}
	return response
}
