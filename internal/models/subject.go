package models

import "time"

// Subject is a course offered to a semester of a department, owned by one faculty member.
type Subject struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	FacultyName    string    `gorm:"column:faculty;size:100;not null" json:"faculty"`
	FacultyID      uint      `gorm:"not null;index" json:"faculty_id"`
	School         string    `gorm:"size:16;not null" json:"school"`
	Department     string    `gorm:"size:16;not null;index" json:"department"`
	Specialization string    `gorm:"size:32" json:"specialization"`
	Semester       int       `gorm:"not null;index" json:"semester"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OpenToAllSpecializations reports whether the subject is offered regardless of specialization.
func (s Subject) OpenToAllSpecializations() bool {
	return s.Specialization == "" || s.Specialization == NoSpecialization
}
