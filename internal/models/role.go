package models

import "strings"

// Role is the closed set of account roles.
type Role string

const (
	// RoleStudent takes exams and reads their own results.
	RoleStudent Role = "student"
	// RoleFaculty authors exam papers and evaluates submissions.
	RoleFaculty Role = "faculty"
	// RoleAdmin approves papers, publishes results and manages accounts.
	RoleAdmin Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleStudent, RoleFaculty, RoleAdmin}

// ParseRole normalises the input and reports whether it names a known role.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	return role, role.Valid()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
