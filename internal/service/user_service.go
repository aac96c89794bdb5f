package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/repository"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// UserService manages accounts on behalf of administrators.
type UserService interface {
	List(ctx context.Context, req dto.UserListRequest) ([]dto.UserResponse, error)
	Get(ctx context.Context, identity Identity, id uint) (dto.UserResponse, error)
	Create(ctx context.Context, actor Identity, payload dto.UserCreateRequest) (dto.UserResponse, error)
	Update(ctx context.Context, actor Identity, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error)
	Delete(ctx context.Context, actor Identity, id uint) error
	BulkCreate(ctx context.Context, actor Identity, payloads []dto.UserCreateRequest) (dto.BulkUserCreateResponse, error)
	BulkDelete(ctx context.Context, actor Identity, payload dto.BulkUserDeleteRequest) (dto.BulkUserDeleteResponse, error)
}

type userService struct {
	accounts accounts
	users    repository.UserRepository
	activity ActivityRecorder
	logger   zerolog.Logger
}

// NewUserService constructs the user management service.
func NewUserService(users repository.UserRepository, hasher PasswordHasher, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) UserService {
	return &userService{
		accounts: accounts{users: users, hasher: hasher, validator: validate},
		users:    users,
		activity: activity,
		logger:   logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) List(ctx context.Context, req dto.UserListRequest) ([]dto.UserResponse, error) {
	filter := repository.UserFilter{Search: req.Search}
	if strings.TrimSpace(req.Role) != "" {
		role, ok := models.ParseRole(req.Role)
		if !ok {
			return nil, newValidationError("invalid role", map[string]interface{}{"role": "role must be student, faculty or admin"})
		}
		filter.Role = role
	}

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponses(users), nil
}

// Get returns any account to admins and only their own account to everyone else.
func (s *userService) Get(ctx context.Context, identity Identity, id uint) (dto.UserResponse, error) {
	switch identity.Role {
	case models.RoleAdmin:
	case models.RoleStudent, models.RoleFaculty:
		if identity.UserID != id {
			return dto.UserResponse{}, ErrForbidden
		}
	default:
		return dto.UserResponse{}, ErrForbidden
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) Create(ctx context.Context, actor Identity, payload dto.UserCreateRequest) (dto.UserResponse, error) {
	user, err := s.accounts.build(payload, models.RoleStudent)
	if err != nil {
		return dto.UserResponse{}, err
	}
	if err := s.accounts.ensureUnique(ctx, user); err != nil {
		return dto.UserResponse{}, err
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return dto.UserResponse{}, mapUserWriteError(err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		UserID:  uintPtr(actor.UserID),
		Action:  "Created user: " + user.Name,
		Type:    models.ActivityUser,
		Details: fmt.Sprintf("role %s", user.Role),
	})

	return dto.NewUserResponse(user), nil
}

// Update applies the provided fields and keeps the stored value of every omitted one.
func (s *userService) Update(ctx context.Context, actor Identity, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error) {
	if err := checkStruct(s.accounts.validator, payload); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return dto.UserResponse{}, err
	}

	if payload.Name != nil {
		user.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Email != nil {
		user.Email = normalizeEmail(*payload.Email)
	}
	if payload.Role != nil {
		role, ok := models.ParseRole(*payload.Role)
		if !ok {
			return dto.UserResponse{}, newValidationError("invalid role", map[string]interface{}{"role": "role must be student, faculty or admin"})
		}
		user.Role = role
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
	if payload.StudentID != nil {
		user.StudentNumber = optionalString(*payload.StudentID)
	}
	if payload.FacultyID != nil {
		user.FacultyID = optionalString(*payload.FacultyID)
	}
	user.NormalizeIdentifiers()

	if err := validateAccount(user); err != nil {
		return dto.UserResponse{}, err
	}
	if err := s.accounts.ensureUnique(ctx, user); err != nil {
		return dto.UserResponse{}, err
	}

	if payload.Password != nil {
		hash, err := s.accounts.hasher.Hash(*payload.Password)
		if err != nil {
			return dto.UserResponse{}, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, mapUserWriteError(err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		UserID: uintPtr(actor.UserID),
		Action: "Updated user: " + user.Name,
		Type:   models.ActivityUser,
	})

	return dto.NewUserResponse(user), nil
}

func (s *userService) Delete(ctx context.Context, actor Identity, id uint) error {
	if actor.UserID == id {
		return newValidationError("cannot delete your own account", nil)
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.users.Delete(ctx, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrUserNotFound
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		UserID: uintPtr(actor.UserID),
		Action: "Deleted user: " + user.Name,
		Type:   models.ActivityUser,
	})
	return nil
}

// BulkCreate inserts every record or none. Records are validated one by one, then checked for
// duplicate emails inside the batch and against stored accounts.
func (s *userService) BulkCreate(ctx context.Context, actor Identity, payloads []dto.UserCreateRequest) (dto.BulkUserCreateResponse, error) {
	if len(payloads) == 0 {
		return dto.BulkUserCreateResponse{}, newValidationError("no users provided", nil)
	}

	users := make([]models.User, 0, len(payloads))
	var invalid []dto.InvalidUserRecord
	for i, payload := range payloads {
		user, err := s.accounts.build(payload, models.RoleStudent)
		if err != nil {
			invalid = append(invalid, invalidRecord(i, payload.Email, err))
			continue
		}
		users = append(users, user)
	}
	if len(invalid) > 0 {
		return dto.BulkUserCreateResponse{}, newValidationError("some users have invalid or missing fields", map[string]interface{}{
			"invalid_users": invalid,
		})
	}

	seen := make(map[string]struct{}, len(users))
	var duplicates []string
	emails := make([]string, 0, len(users))
	for _, user := range users {
		if _, exists := seen[user.Email]; exists {
			duplicates = appendUnique(duplicates, user.Email)
			continue
		}
		seen[user.Email] = struct{}{}
		emails = append(emails, user.Email)
	}
	if len(duplicates) > 0 {
		return dto.BulkUserCreateResponse{}, newValidationError("duplicate emails in request", map[string]interface{}{
			"duplicates": duplicates,
		})
	}

	existing, err := s.users.ExistingEmails(ctx, emails)
	if err != nil {
		return dto.BulkUserCreateResponse{}, err
	}
	if len(existing) > 0 {
		return dto.BulkUserCreateResponse{}, newValidationError("some emails already exist", map[string]interface{}{
			"emails": existing,
		})
	}

	if err := s.users.CreateBatch(ctx, users); err != nil {
		return dto.BulkUserCreateResponse{}, mapUserWriteError(err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		UserID: uintPtr(actor.UserID),
		Action: fmt.Sprintf("Bulk created %d users", len(users)),
		Type:   models.ActivityUser,
	})

	return dto.BulkUserCreateResponse{CreatedCount: len(users), Users: dto.NewUserResponses(users)}, nil
}

func (s *userService) BulkDelete(ctx context.Context, actor Identity, payload dto.BulkUserDeleteRequest) (dto.BulkUserDeleteResponse, error) {
	if err := checkStruct(s.accounts.validator, payload); err != nil {
		return dto.BulkUserDeleteResponse{}, err
	}
	for _, id := range payload.UserIDs {
		if id == actor.UserID {
			return dto.BulkUserDeleteResponse{}, newValidationError("cannot delete your own account", nil)
		}
	}

	deleted, err := s.users.DeleteMany(ctx, payload.UserIDs)
	if err != nil {
		return dto.BulkUserDeleteResponse{}, err
	}
	if deleted == 0 {
		return dto.BulkUserDeleteResponse{}, ErrUserNotFound
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		UserID: uintPtr(actor.UserID),
		Action: fmt.Sprintf("Bulk deleted %d users", deleted),
		Type:   models.ActivityUser,
	})

	return dto.BulkUserDeleteResponse{DeletedCount: deleted}, nil
}

func (s *userService) load(ctx context.Context, id uint) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// DecodeBulkUsers parses an uploaded JSON array of users. A leading UTF-8 byte order mark is ignored.
func DecodeBulkUsers(data []byte) ([]dto.UserCreateRequest, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, newValidationError("uploaded file is empty", nil)
	}

	detected := mimetype.Detect(data)
	if !detected.Is("application/json") && !strings.HasPrefix(detected.String(), "text/plain") {
		return nil, newValidationError("uploaded file must be JSON", map[string]interface{}{"content_type": detected.String()})
	}

	var users []dto.UserCreateRequest
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, newValidationError("file must contain a JSON array of users", nil)
	}
	return users, nil
}

func invalidRecord(index int, email string, err error) dto.InvalidUserRecord {
	record := dto.InvalidUserRecord{Index: index, Email: email, Errors: map[string]string{}}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) && len(validationErr.Details) > 0 {
		for field, detail := range validationErr.Details {
			record.Errors[field] = fmt.Sprint(detail)
		}
		return record
	}
	record.Errors["record"] = err.Error()
	return record
}

func appendUnique(values []string, value string) []string {
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}
