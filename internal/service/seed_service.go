package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/repository"
)

// ErrSeedDisabled indicates no admin credentials were configured.
var ErrSeedDisabled = errors.New("admin email and password must be configured")

// AdminSeed describes the bootstrap administrator.
type AdminSeed struct {
	Name     string
	Email    string
	Password string
	// Reset removes every account before the admin is created.
	Reset bool
}

// SeedResult reports what a seeding run changed.
type SeedResult struct {
	Removed int64
	Created bool
	User    dto.UserResponse
}

// SeedService bootstraps the accounts a fresh deployment needs.
type SeedService interface {
	SeedAdmin(ctx context.Context, seed AdminSeed) (SeedResult, error)
}

type seedService struct {
	users    repository.UserRepository
	accounts accounts
	logger   zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(users repository.UserRepository, hasher PasswordHasher, validate *validator.Validate, logger zerolog.Logger) SeedService {
	return &seedService{
		users:    users,
		accounts: accounts{users: users, hasher: hasher, validator: validate},
		logger:   logger.With().Str("component", "seed_service").Logger(),
	}
}

// SeedAdmin creates the configured admin unless an account with that email already exists.
func (s *seedService) SeedAdmin(ctx context.Context, seed AdminSeed) (SeedResult, error) {
	email := normalizeEmail(seed.Email)
	if email == "" || seed.Password == "" {
		return SeedResult{}, ErrSeedDisabled
	}

	var result SeedResult
	if seed.Reset {
		removed, err := s.users.DeleteAll(ctx)
		if err != nil {
			return SeedResult{}, fmt.Errorf("remove users: %w", err)
		}
		result.Removed = removed
		s.logger.Warn().Int64("removed", removed).Msg("all users removed")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		result.User = dto.NewUserResponse(existing)
		s.logger.Info().Str("email", maskEmail(email)).Msg("admin already present")
		return result, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return SeedResult{}, fmt.Errorf("lookup admin: %w", err)
	}

	name := strings.TrimSpace(seed.Name)
	if name == "" {
		name = "Administrator"
	}
	user, err := s.accounts.build(dto.UserCreateRequest{
		Name:     name,
		Email:    email,
		Password: seed.Password,
		Role:     string(models.RoleAdmin),
	}, models.RoleAdmin)
	if err != nil {
		return SeedResult{}, err
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return SeedResult{}, mapUserWriteError(err)
	}

	result.Created = true
	result.User = dto.NewUserResponse(user)
	s.logger.Info().Str("email", maskEmail(email)).Uint("user_id", user.ID).Msg("admin created")
	return result, nil
}
