package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubmissionStatus is a step in the linear evaluation workflow.
type SubmissionStatus string

const (
	SubmissionPending          SubmissionStatus = "pending"
	SubmissionEvaluated        SubmissionStatus = "evaluated"
	SubmissionSubmittedToAdmin SubmissionStatus = "submitted_to_admin"
	SubmissionPublished        SubmissionStatus = "published"
)

// Answer is a student's response to the question at QuestionIndex, plus any evaluator marks.
type Answer struct {
	QuestionIndex  int      `json:"question_index"`
	SelectedOption string   `json:"selected_option"`
	Marks          *float64 `json:"marks,omitempty"`
	Comment        string   `json:"comment,omitempty"`
}

// Submission is one student's attempt at an exam paper.
type Submission struct {
	ID                 uint                        `gorm:"primaryKey" json:"id"`
	StudentID          uint                        `gorm:"not null;uniqueIndex:idx_submissions_student_paper" json:"student_id"`
	Student            *User                       `gorm:"foreignKey:StudentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student,omitempty"`
	ExamPaperID        uint                        `gorm:"not null;uniqueIndex:idx_submissions_student_paper;index" json:"exam_paper_id"`
	ExamPaper          *ExamPaper                  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"exam_paper,omitempty"`
	Answers            datatypes.JSONSlice[Answer] `gorm:"type:json" json:"answers"`
	Score              *float64                    `json:"score"`
	Feedback           string                      `gorm:"type:text" json:"feedback,omitempty"`
	StartTime          time.Time                   `json:"start_time"`
	EndTime            time.Time                   `json:"end_time"`
	IsSubmitted        bool                        `gorm:"not null;default:false" json:"is_submitted"`
	Status             SubmissionStatus            `gorm:"size:32;not null;default:pending;index" json:"status"`
	EvaluatedBy        *uint                       `json:"evaluated_by,omitempty"`
	EvaluatedAt        *time.Time                  `json:"evaluated_at,omitempty"`
	SubmittedToAdminAt *time.Time                  `json:"submitted_to_admin_at,omitempty"`
	PublishedAt        *time.Time                  `json:"published_at,omitempty"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

// MergeEvaluations copies marks and comments onto the answers with a matching question index.
// Evaluations for indices the student did not answer are ignored.
func (s *Submission) MergeEvaluations(evaluations []Answer) {
	byIndex := make(map[int]Answer, len(evaluations))
	for _, evaluation := range evaluations {
		byIndex[evaluation.QuestionIndex] = evaluation
	}

	merged := make(datatypes.JSONSlice[Answer], len(s.Answers))
	for i, answer := range s.Answers {
		if evaluation, ok := byIndex[answer.QuestionIndex]; ok {
			if evaluation.Marks != nil {
				marks := *evaluation.Marks
				answer.Marks = &marks
			}
			if evaluation.Comment != "" {
				answer.Comment = evaluation.Comment
			}
		}
		merged[i] = answer
	}
	s.Answers = merged
}
