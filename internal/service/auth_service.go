package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/repository"
)

// AuthService registers accounts, verifies credentials and resolves tokens to users.
type AuthService interface {
	Register(ctx context.Context, payload dto.UserCreateRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
	Authenticate(ctx context.Context, token string) (models.User, error)
	Profile(ctx context.Context, identity Identity) (dto.UserResponse, error)
	UpdateProfile(ctx context.Context, identity Identity, payload dto.ProfileUpdateRequest) (dto.UserResponse, error)
}

type authService struct {
	accounts accounts
	users    repository.UserRepository
	tokens   *TokenManager
	activity ActivityRecorder
	logger   zerolog.Logger
}

// NewAuthService constructs the authentication service.
func NewAuthService(users repository.UserRepository, hasher PasswordHasher, tokens *TokenManager, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) AuthService {
	return &authService{
		accounts: accounts{users: users, hasher: hasher, validator: validate},
		users:    users,
		tokens:   tokens,
		activity: activity,
		logger:   logger.With().Str("component", "auth_service").Logger(),
	}
}

// Register creates a student or faculty account. Admin accounts are provisioned by admins only.
func (s *authService) Register(ctx context.Context, payload dto.UserCreateRequest) (dto.AuthResponse, error) {
	if role, ok := models.ParseRole(payload.Role); ok && role == models.RoleAdmin {
		return dto.AuthResponse{}, newValidationError("invalid role", map[string]interface{}{
			"role": "self registration is limited to student and faculty accounts",
		})
	}

	user, err := s.accounts.build(payload, models.RoleStudent)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	if err := s.accounts.ensureUnique(ctx, user); err != nil {
		return dto.AuthResponse{}, err
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return dto.AuthResponse{}, mapUserWriteError(err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		UserID: uintPtr(user.ID),
		Action: "New user registered: " + user.Name,
		Type:   models.ActivityUser,
	})

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	if !s.accounts.hasher.Compare(user.PasswordHash, payload.Password) {
		s.logger.Warn().Str("email", maskEmail(user.Email)).Msg("login rejected: wrong password")
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	return s.issue(user)
}

// Authenticate resolves a token to its stored user. Every failure is reported as ErrUnauthorized.
func (s *authService) Authenticate(ctx context.Context, token string) (models.User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return models.User{}, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to load authenticated user")
		}
		return models.User{}, ErrUnauthorized
	}
	return user, nil
}

func (s *authService) Profile(ctx context.Context, identity Identity) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *authService) UpdateProfile(ctx context.Context, identity Identity, payload dto.ProfileUpdateRequest) (dto.UserResponse, error) {
	if err := checkStruct(s.accounts.validator, payload); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	if payload.Name != nil {
		user.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.School != nil {
		user.School = *payload.School
	}
	if payload.Department != nil {
		user.Department = *payload.Department
	}
	if payload.Specialization != nil {
		user.Specialization = *payload.Specialization
	}
	if payload.Semester != nil {
		semester := *payload.Semester
		user.Semester = &semester
	}

	if err := validateAccount(user); err != nil {
		return dto.UserResponse{}, err
	}
	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, mapUserWriteError(err)
	}

	return dto.NewUserResponse(user), nil
}

func (s *authService) issue(user models.User) (dto.AuthResponse, error) {
	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	return dto.AuthResponse{User: dto.NewUserResponse(user), Token: token}, nil
}
