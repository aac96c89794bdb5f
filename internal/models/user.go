package models

import "time"

// Academic placement vocabularies.
const (
	SchoolSOET   = "SOET"
	SchoolSoPHAS = "SoPHAS"
	SchoolSoM    = "SoM"

	NoSpecialization = "No Specialization"
)

var (
	// Schools enumerates the accepted school codes.
	Schools = []string{SchoolSOET, SchoolSoPHAS, SchoolSoM}
	// Departments enumerates the accepted department codes.
	Departments = []string{"CSE", "MECH", "ECE", "BSc", "BBA"}
	// Specializations enumerates the accepted specializations.
	Specializations = []string{
		"AIML", "DSML", "CSBS", "CN", "Forensic Science", "Anesthesia",
		"Radiology", "Optometry", "Pharmacy", "Agriculture", NoSpecialization,
	}
)

// MaxSemester returns the highest semester offered by a school, or 0 when the school is unknown.
func MaxSemester(school string) int {
	switch school {
	case SchoolSOET:
		return 8
	case SchoolSoPHAS, SchoolSoM:
		return 6
	default:
		return 0
	}
}

// User is an account of any role. StudentNumber is set only for students and FacultyID only for faculty.
// StudentNumber keeps the student_id column but must not share a field name with the StudentID
// foreign keys on Submission and Result, or gorm resolves those associations as has-one.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:50;not null" json:"name"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"column:password;size:255;not null" json:"-"`
	Role           Role      `gorm:"size:16;not null;default:student;index" json:"role"`
	School         string    `gorm:"size:16" json:"school,omitempty"`
	Department     string    `gorm:"size:16" json:"department,omitempty"`
	Specialization string    `gorm:"size:32" json:"specialization,omitempty"`
	Semester       *int      `json:"semester,omitempty"`
	StudentNumber  *string   `gorm:"column:student_id;size:32;uniqueIndex" json:"student_id,omitempty"`
	FacultyID      *string   `gorm:"size:16;uniqueIndex" json:"faculty_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NormalizeIdentifiers drops the role-specific identifier that does not belong to the user's role.
func (u *User) NormalizeIdentifiers() {
	switch u.Role {
	case RoleStudent:
		u.FacultyID = nil
	case RoleFaculty:
		u.StudentNumber = nil
	default:
		u.StudentNumber = nil
		u.FacultyID = nil
	}
}
