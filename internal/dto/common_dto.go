package dto

import (
	"time"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// UserLite summarizes a user without exposing the full profile.
type UserLite struct {
	ID        uint        `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	StudentID *string     `json:"student_id,omitempty"`
}

// SubjectLite summarizes a subject inside exam paper responses.
type SubjectLite struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Faculty        string `json:"faculty"`
	School         string `json:"school"`
	Department     string `json:"department"`
	Specialization string `json:"specialization"`
	Semester       int    `json:"semester"`
}

// ExamPaperLite summarizes an exam paper inside submission and result responses.
type ExamPaperLite struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	SubjectID    uint       `json:"subject_id"`
	SubjectName  string     `json:"subject_name,omitempty"`
	TotalMarks   int        `json:"total_marks"`
	PassingMarks int        `json:"passing_marks"`
	Duration     int        `json:"duration"`
	FacultyID    uint       `json:"faculty_id"`
	EndTime      *time.Time `json:"end_time,omitempty"`
}

func newUserLite(user *models.User) *UserLite {
	if user == nil || user.ID == 0 {
		return nil
	}
	return &UserLite{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		StudentID: user.StudentNumber,
	}
}

func newSubjectLite(subject models.Subject) SubjectLite {
	return SubjectLite{
		ID:             subject.ID,
		Name:           subject.Name,
		Faculty:        subject.FacultyName,
		School:         subject.School,
		Department:     subject.Department,
		Specialization: subject.Specialization,
		Semester:       subject.Semester,
	}
}

func newExamPaperLite(paper *models.ExamPaper) *ExamPaperLite {
	if paper == nil || paper.ID == 0 {
		return nil
	}
	return &ExamPaperLite{
		ID:           paper.ID,
		Title:        paper.Title,
		SubjectID:    paper.SubjectID,
		SubjectName:  paper.Subject.Name,
		TotalMarks:   paper.TotalMarks,
		PassingMarks: paper.PassingMarks,
		Duration:     paper.Duration,
		FacultyID:    paper.FacultyID,
		EndTime:      paper.EndTime,
	}
}
