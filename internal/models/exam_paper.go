package models

import (
	"time"

	"gorm.io/datatypes"
)

// ExamPaperStatus tracks the approval lifecycle of an exam paper.
type ExamPaperStatus string

const (
	ExamPaperPending   ExamPaperStatus = "pending"
	ExamPaperApproved  ExamPaperStatus = "approved"
	ExamPaperRejected  ExamPaperStatus = "rejected"
	ExamPaperCompleted ExamPaperStatus = "completed"
)

// QuestionType distinguishes auto-checkable questions from free-form ones.
type QuestionType string

const (
	QuestionMCQ        QuestionType = "mcq"
	QuestionSubjective QuestionType = "subjective"
)

// MCQOptionCount is the number of options every multiple choice question carries.
const MCQOptionCount = 4

// Question is a single item on an exam paper.
type Question struct {
	Question      string       `json:"question"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Marks         int          `json:"marks"`
}

// ExamPaper is a question set authored by faculty. Department and Specialization mirror the subject.
type ExamPaper struct {
	ID              uint                          `gorm:"primaryKey" json:"id"`
	Title           string                        `gorm:"size:100;not null" json:"title"`
	Description     string                        `gorm:"type:text;not null" json:"description"`
	SubjectID       uint                          `gorm:"not null;index" json:"subject_id"`
	Subject         Subject                       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"subject"`
	FacultyID       uint                          `gorm:"not null;index" json:"faculty_id"`
	Department      string                        `gorm:"size:16" json:"department"`
	Specialization  string                        `gorm:"size:32" json:"specialization"`
	Duration        int                           `gorm:"not null" json:"duration"`
	TotalMarks      int                           `gorm:"not null" json:"total_marks"`
	PassingMarks    int                           `gorm:"not null" json:"passing_marks"`
	Questions       datatypes.JSONSlice[Question] `gorm:"type:json" json:"questions"`
	Instructions    string                        `gorm:"type:text;not null" json:"instructions"`
	Status          ExamPaperStatus               `gorm:"size:16;not null;default:pending;index" json:"status"`
	RejectionReason string                        `gorm:"type:text" json:"rejection_reason,omitempty"`
	IsActive        bool                          `gorm:"not null;default:false" json:"is_active"`
	StartTime       *time.Time                    `json:"start_time,omitempty"`
	EndTime         *time.Time                    `json:"end_time,omitempty"`
	CreatedAt       time.Time                     `json:"created_at"`
	UpdatedAt       time.Time                     `json:"updated_at"`
}

// MirrorSubject copies the subject-derived placement onto the paper.
func (p *ExamPaper) MirrorSubject(subject Subject) {
	p.SubjectID = subject.ID
	p.Subject = subject
	p.Department = subject.Department
	p.Specialization = subject.Specialization
}

// WithinWindow reports whether now falls inside the optional start/end window.
func (p ExamPaper) WithinWindow(now time.Time) bool {
	if p.StartTime != nil && now.Before(*p.StartTime) {
		return false
	}
	if p.EndTime != nil && now.After(*p.EndTime) {
		return false
	}
	return true
}

// WithoutAnswers returns a copy of the questions with correct answers removed.
func (p ExamPaper) WithoutAnswers() []Question {
	questions := make([]Question, len(p.Questions))
	for i, q := range p.Questions {
		q.CorrectAnswer = ""
		questions[i] = q
	}
	return questions
}
