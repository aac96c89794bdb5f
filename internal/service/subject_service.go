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

// SubjectService manages the subject catalog.
type SubjectService interface {
	List(ctx context.Context, req dto.SubjectListRequest) ([]dto.SubjectResponse, error)
	Get(ctx context.Context, id uint) (dto.SubjectResponse, error)
	Create(ctx context.Context, identity Identity, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error)
	Update(ctx context.Context, identity Identity, id uint, payload dto.SubjectUpdateRequest) (dto.SubjectResponse, error)
	Delete(ctx context.Context, identity Identity, id uint) error
}

type subjectService struct {
	subjects  repository.SubjectRepository
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSubjectService constructs the subject service.
func NewSubjectService(subjects repository.SubjectRepository, users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) SubjectService {
	return &subjectService{
		subjects:  subjects,
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "subject_service").Logger(),
	}
}

func (s *subjectService) List(ctx context.Context, req dto.SubjectListRequest) ([]dto.SubjectResponse, error) {
	subjects, err := s.subjects.List(ctx, repository.SubjectFilter{
		FacultyID:  req.FacultyID,
		Department: strings.TrimSpace(req.Department),
		Semester:   req.Semester,
	})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		responses = append(responses, dto.NewSubjectResponse(subject))
	}
	return responses, nil
}

func (s *subjectService) Get(ctx context.Context, id uint) (dto.SubjectResponse, error) {
	subject, err := s.load(ctx, id)
	if err != nil {
		return dto.SubjectResponse{}, err
	}
	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Create(ctx context.Context, identity Identity, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error) {
	if err := checkStruct(s.validator, payload); err != nil {
		return dto.SubjectResponse{}, err
	}

	var facultyID uint
	switch identity.Role {
	case models.RoleFaculty:
		if payload.FacultyID != 0 && payload.FacultyID != identity.UserID {
			return dto.SubjectResponse{}, ErrForbidden
		}
		facultyID = identity.UserID
	case models.RoleAdmin:
		if payload.FacultyID == 0 {
			return dto.SubjectResponse{}, newValidationError("faculty is required", map[string]interface{}{"faculty_id": "faculty id is required"})
		}
		facultyID = payload.FacultyID
	default:
		return dto.SubjectResponse{}, ErrForbidden
	}

	faculty, err := s.facultyMember(ctx, facultyID)
	if err != nil {
		return dto.SubjectResponse{}, err
	}
	if err := validateSemesterForSchool(payload.School, payload.Semester); err != nil {
		return dto.SubjectResponse{}, err
	}

	subject := models.Subject{
		Name:           strings.TrimSpace(payload.Name),
		FacultyName:    strings.TrimSpace(payload.Faculty),
		FacultyID:      faculty.ID,
		School:         payload.School,
		Department:     payload.Department,
		Specialization: payload.Specialization,
		Semester:       payload.Semester,
	}
	if subject.FacultyName == "" {
		subject.FacultyName = faculty.Name
	}

	if err := s.subjects.Create(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}
	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Update(ctx context.Context, identity Identity, id uint, payload dto.SubjectUpdateRequest) (dto.SubjectResponse, error) {
	if err := checkStruct(s.validator, payload); err != nil {
		return dto.SubjectResponse{}, err
	}

	subject, err := s.load(ctx, id)
	if err != nil {
		return dto.SubjectResponse{}, err
	}
	if err := s.authorizeOwner(identity, subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	if payload.FacultyID != nil && *payload.FacultyID != subject.FacultyID {
		if !identity.IsAdmin() {
			return dto.SubjectResponse{}, ErrForbidden
		}
		faculty, err := s.facultyMember(ctx, *payload.FacultyID)
		if err != nil {
			return dto.SubjectResponse{}, err
		}
		subject.FacultyID = faculty.ID
		if payload.Faculty == nil {
			subject.FacultyName = faculty.Name
		}
	}
	if payload.Name != nil {
		subject.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Faculty != nil {
		subject.FacultyName = strings.TrimSpace(*payload.Faculty)
	}
	if payload.School != nil {
		subject.School = *payload.School
	}
	if payload.Department != nil {
		subject.Department = *payload.Department
	}
	if payload.Specialization != nil {
		subject.Specialization = *payload.Specialization
	}
	if payload.Semester != nil {
		subject.Semester = *payload.Semester
	}

	if err := validateSemesterForSchool(subject.School, subject.Semester); err != nil {
		return dto.SubjectResponse{}, err
	}

	if err := s.subjects.Update(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}
	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Delete(ctx context.Context, identity Identity, id uint) error {
	subject, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeOwner(identity, subject); err != nil {
		return err
	}

	papers, err := s.subjects.CountExamPapers(ctx, id)
	if err != nil {
		return err
	}
	if papers > 0 {
		return ErrSubjectInUse
	}

	if err := s.subjects.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		return err
	}
	return nil
}

func (s *subjectService) authorizeOwner(identity Identity, subject models.Subject) error {
	switch identity.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleFaculty:
		if subject.FacultyID != identity.UserID {
			return ErrForbidden
		}
		return nil
	case models.RoleStudent:
		return ErrForbidden
	default:
		return ErrForbidden
	}
}

func (s *subjectService) facultyMember(ctx context.Context, id uint) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, newValidationError("invalid faculty", map[string]interface{}{"faculty_id": "faculty member not found"})
		}
		return models.User{}, err
	}
	if user.Role != models.RoleFaculty {
		return models.User{}, newValidationError("invalid faculty", map[string]interface{}{"faculty_id": "user is not a faculty member"})
	}
	return user, nil
}

func (s *subjectService) load(ctx context.Context, id uint) (models.Subject, error) {
	subject, err := s.subjects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Subject{}, ErrSubjectNotFound
		}
		return models.Subject{}, err
	}
	return subject, nil
}
