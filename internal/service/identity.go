package service

import "github.com/noah-isme/exam-portal-api/internal/models"

// Identity is the authenticated caller as seen by the services.
type Identity struct {
	UserID         uint
	Role           models.Role
	School         string
	Department     string
	Specialization string
	Semester       *int
}

// IdentityFromUser derives the caller identity from a loaded account.
func IdentityFromUser(user models.User) Identity {
	return Identity{
		UserID:         user.ID,
		Role:           user.Role,
		School:         user.School,
		Department:     user.Department,
		Specialization: user.Specialization,
		Semester:       user.Semester,
	}
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// HasRole reports whether the caller holds one of roles.
func (i Identity) HasRole(roles ...models.Role) bool {
	for _, role := range roles {
		if i.Role == role {
			return true
		}
	}
	return false
}
