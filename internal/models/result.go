package models

import "time"

// Result is the student-facing snapshot created when a submission is published.
type Result struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	StudentID    uint       `gorm:"not null;index" json:"student_id"`
	Student      *User      `gorm:"foreignKey:StudentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student,omitempty"`
	ExamPaperID  uint       `gorm:"not null;index" json:"exam_paper_id"`
	ExamPaper    *ExamPaper `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"exam_paper,omitempty"`
	SubmissionID uint       `gorm:"not null;uniqueIndex" json:"submission_id"`
	Score        float64    `gorm:"not null" json:"score"`
	TotalMarks   int        `gorm:"not null" json:"total_marks"`
	Percentage   float64    `gorm:"not null" json:"percentage"`
	Feedback     string     `gorm:"type:text" json:"feedback,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Percentage returns score as a share of totalMarks, scaled to 100.
func Percentage(score float64, totalMarks int) float64 {
	if totalMarks <= 0 {
		return 0
	}
	return score / float64(totalMarks) * 100
}
