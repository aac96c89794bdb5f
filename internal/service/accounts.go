package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/repository"
)

// ErrAccountExists is returned when a concurrent write claimed one of the account's unique identifiers.
var ErrAccountExists = kindError(ErrConflict, "an account with these identifiers already exists")

// accounts holds the account construction rules shared by registration and user management.
type accounts struct {
	users     repository.UserRepository
	hasher    PasswordHasher
	validator *validator.Validate
}

// build validates the payload and returns an unsaved user with a hashed password.
func (a accounts) build(payload dto.UserCreateRequest, defaultRole models.Role) (models.User, error) {
	if err := checkStruct(a.validator, payload); err != nil {
		return models.User{}, err
	}

	role := defaultRole
	if strings.TrimSpace(payload.Role) != "" {
		parsed, ok := models.ParseRole(payload.Role)
		if !ok {
			return models.User{}, newValidationError("invalid role", map[string]interface{}{"role": "role must be student, faculty or admin"})
		}
		role = parsed
	}

	user := models.User{
		Name:           strings.TrimSpace(payload.Name),
		Email:          normalizeEmail(payload.Email),
		Role:           role,
		School:         payload.School,
		Department:     payload.Department,
		Specialization: payload.Specialization,
		Semester:       payload.Semester,
		StudentNumber:  optionalString(payload.StudentID),
		FacultyID:      optionalString(payload.FacultyID),
	}
	user.NormalizeIdentifiers()

	if err := validateAccount(user); err != nil {
		return models.User{}, err
	}

	hash, err := a.hasher.Hash(payload.Password)
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = hash

	return user, nil
}

// ensureUnique rejects identifiers already used by another account.
func (a accounts) ensureUnique(ctx context.Context, user models.User) error {
	checks := []struct {
		field repository.UserIdentifier
		value *string
		err   error
	}{
		{repository.IdentifierEmail, &user.Email, ErrEmailExists},
		{repository.IdentifierStudentID, user.StudentNumber, ErrStudentIDExists},
		{repository.IdentifierFacultyID, user.FacultyID, ErrFacultyIDExists},
	}

	for _, check := range checks {
		if check.value == nil || *check.value == "" {
			continue
		}
		taken, err := a.users.IdentifierTaken(ctx, check.field, *check.value, user.ID)
		if err != nil {
			return err
		}
		if taken {
			return check.err
		}
	}
	return nil
}

func mapUserWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAccountExists
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// maskEmail keeps the first and last character of the local part for log lines.
func maskEmail(email string) string {
	local, domain, ok := strings.Cut(normalizeEmail(email), "@")
	switch {
	case !ok || local == "":
		return "***"
	case len(local) <= 2:
		return local[:1] + "***@" + domain
	default:
		return local[:1] + "***" + local[len(local)-1:] + "@" + domain
	}
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
