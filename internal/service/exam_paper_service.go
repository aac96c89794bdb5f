package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/observability"
	"github.com/noah-isme/exam-portal-api/internal/repository"
)

// ExamPaperService drives the authoring and approval lifecycle of exam papers.
type ExamPaperService interface {
	List(ctx context.Context, identity Identity, req dto.ExamPaperListRequest) ([]dto.ExamPaperResponse, error)
	Get(ctx context.Context, identity Identity, id uint) (dto.ExamPaperResponse, error)
	Create(ctx context.Context, identity Identity, payload dto.ExamPaperCreateRequest) (dto.ExamPaperResponse, error)
	Update(ctx context.Context, identity Identity, id uint, payload dto.ExamPaperUpdateRequest) (dto.ExamPaperResponse, error)
	Delete(ctx context.Context, identity Identity, id uint) error
	Approve(ctx context.Context, identity Identity, id uint) (dto.ExamPaperResponse, error)
	Reject(ctx context.Context, identity Identity, id uint, payload dto.ExamPaperRejectRequest) (dto.ExamPaperResponse, error)
}

type examPaperService struct {
	papers      repository.ExamPaperRepository
	subjects    repository.SubjectRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewExamPaperService constructs the exam paper service.
func NewExamPaperService(
	papers repository.ExamPaperRepository,
	subjects repository.SubjectRepository,
	submissions repository.SubmissionRepository,
	validate *validator.Validate,
	activity ActivityRecorder,
	logger zerolog.Logger,
) ExamPaperService {
	return &examPaperService{
		papers:      papers,
		subjects:    subjects,
		submissions: submissions,
		validator:   validate,
		activity:    activity,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "exam_paper_service").Logger(),
		now:         time.Now,
	}
}

func (s *examPaperService) List(ctx context.Context, identity Identity, req dto.ExamPaperListRequest) ([]dto.ExamPaperResponse, error) {
	filter := repository.ExamPaperFilter{SubjectID: req.SubjectID}
	if status := strings.TrimSpace(req.Status); status != "" {
		filter.Status = models.ExamPaperStatus(strings.ToLower(status))
	}

	switch identity.Role {
	case models.RoleFaculty:
		filter.FacultyID = uintPtr(identity.UserID)
	case models.RoleAdmin:
	case models.RoleStudent:
		return s.listForStudent(ctx, identity)
	default:
		return nil, ErrForbidden
	}

	papers, err := s.papers.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ExamPaperResponse, 0, len(papers))
	for _, paper := range papers {
		responses = append(responses, dto.NewExamPaperResponse(paper))
	}
	return responses, nil
}

func (s *examPaperService) listForStudent(ctx context.Context, identity Identity) ([]dto.ExamPaperResponse, error) {
	if identity.Semester == nil || identity.Department == "" {
		return []dto.ExamPaperResponse{}, nil
	}

	papers, err := s.papers.ListApprovedFor(ctx, repository.StudentPlacement{
		Semester:       *identity.Semester,
		Department:     identity.Department,
		Specialization: identity.Specialization,
	})
	if err != nil {
		return nil, err
	}

	submitted, err := s.submissions.SubmittedPaperIDs(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	responses := make([]dto.ExamPaperResponse, 0, len(papers))
	for _, paper := range papers {
		if !visibleToStudent(paper, identity) {
			continue
		}
		_, done := submitted[paper.ID]
		responses = append(responses, studentView(paper, done, now))
	}
	return responses, nil
}

func (s *examPaperService) Get(ctx context.Context, identity Identity, id uint) (dto.ExamPaperResponse, error) {
	paper, err := s.load(ctx, id)
	if err != nil {
		return dto.ExamPaperResponse{}, err
	}

	switch identity.Role {
	case models.RoleAdmin:
		return dto.NewExamPaperResponse(paper), nil
	case models.RoleFaculty:
		if paper.FacultyID != identity.UserID {
			return dto.ExamPaperResponse{}, ErrForbidden
		}
		return dto.NewExamPaperResponse(paper), nil
	case models.RoleStudent:
		if !visibleToStudent(paper, identity) {
			return dto.ExamPaperResponse{}, ErrExamPaperNotFound
		}
		done, err := s.submissions.HasSubmitted(ctx, identity.UserID, paper.ID)
		if err != nil {
			return dto.ExamPaperResponse{}, err
		}
		return studentView(paper, done, s.now()), nil
	default:
		return dto.ExamPaperResponse{}, ErrForbidden
	}
}

func (s *examPaperService) Create(ctx context.Context, identity Identity, payload dto.ExamPaperCreateRequest) (dto.ExamPaperResponse, error) {
	ctx, span := tracer().Start(ctx, "exam_paper.create")
	defer span.End()

	switch identity.Role {
	case models.RoleFaculty:
	case models.RoleAdmin, models.RoleStudent:
		return dto.ExamPaperResponse{}, ErrForbidden
	default:
		return dto.ExamPaperResponse{}, ErrForbidden
	}

	if err := checkStruct(s.validator, payload); err != nil {
		return dto.ExamPaperResponse{}, err
	}

	paper := models.ExamPaper{
		Title:        strings.TrimSpace(payload.Title),
		Description:  strings.TrimSpace(payload.Description),
		FacultyID:    identity.UserID,
		Duration:     payload.Duration,
		TotalMarks:   payload.TotalMarks,
		PassingMarks: *payload.PassingMarks,
		Questions:    toQuestions(payload.Questions),
		Instructions: strings.TrimSpace(payload.Instructions),
		Status:       models.ExamPaperPending,
		IsActive:     false,
		StartTime:    payload.StartTime,
		EndTime:      payload.EndTime,
	}
	if err := validatePaper(paper); err != nil {
		return dto.ExamPaperResponse{}, err
	}

	subject, err := s.subject(ctx, payload.SubjectID)
	if err != nil {
		return dto.ExamPaperResponse{}, spanFailure(span, err, "subject_lookup_failed")
	}
	paper.MirrorSubject(subject)

	if err := s.papers.Create(ctx, &paper); err != nil {
		return dto.ExamPaperResponse{}, spanFailure(span, err, "create_failed")
	}
	span.SetAttributes(attribute.Int64("exam_paper.id", int64(paper.ID)))
	observability.ExamPaperTransitions().WithLabelValues(string(paper.Status)).Inc()

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		UserID: uintPtr(identity.UserID),
		Action: "Created exam paper: " + paper.Title,
		Type:   models.ActivityPaper,
	})

	return dto.NewExamPaperResponse(paper), nil
}

func (s *examPaperService) Update(ctx context.Context, identity Identity, id uint, payload dto.ExamPaperUpdateRequest) (dto.ExamPaperResponse, error) {
	ctx, span := tracer().Start(ctx, "exam_paper.update")
	defer span.End()
	span.SetAttributes(attribute.Int64("exam_paper.id", int64(id)))

	if err := checkStruct(s.validator, payload); err != nil {
		return dto.ExamPaperResponse{}, err
	}

	paper, err := s.load(ctx, id)
	if err != nil {
		return dto.ExamPaperResponse{}, spanFailure(span, err, "exam_paper_not_found")
	}
	if err := authorizeAuthoring(identity, paper); err != nil {
		return dto.ExamPaperResponse{}, err
	}
	expected := paper.Status

	if payload.Title != nil {
		paper.Title = strings.TrimSpace(*payload.Title)
	}
	if payload.Description != nil {
		paper.Description = strings.TrimSpace(*payload.Description)
	}
	if payload.Duration != nil {
		paper.Duration = *payload.Duration
	}
	if payload.TotalMarks != nil {
		paper.TotalMarks = *payload.TotalMarks
	}
	if payload.PassingMarks != nil {
		paper.PassingMarks = *payload.PassingMarks
	}
	if payload.Questions != nil {
		paper.Questions = toQuestions(payload.Questions)
	}
	if payload.Instructions != nil {
		paper.Instructions = strings.TrimSpace(*payload.Instructions)
	}
	if payload.StartTime != nil {
		paper.StartTime = payload.StartTime
	}
	if payload.EndTime != nil {
		paper.EndTime = payload.EndTime
	}

	completing := false
	if payload.Status != nil {
		if models.ExamPaperStatus(*payload.Status) != models.ExamPaperCompleted || paper.Status != models.ExamPaperApproved {
			return dto.ExamPaperResponse{}, ErrInvalidTransition
		}
		paper.Status = models.ExamPaperCompleted
		completing = true
	}

	if payload.SubjectID != nil && *payload.SubjectID != paper.SubjectID {
		subject, err := s.subject(ctx, *payload.SubjectID)
		if err != nil {
			return dto.ExamPaperResponse{}, err
		}
		paper.MirrorSubject(subject)
	}

	if err := validatePaper(paper); err != nil {
		return dto.ExamPaperResponse{}, err
	}

	if err := s.papers.Update(ctx, &paper, expected); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return dto.ExamPaperResponse{}, spanFailure(span, ErrInvalidTransition, "status_changed")
		}
		return dto.ExamPaperResponse{}, spanFailure(span, err, "update_failed")
	}

	action := "Updated exam paper: " + paper.Title
	if completing {
		action = "Completed exam: " + paper.Title
		observability.ExamPaperTransitions().WithLabelValues(string(models.ExamPaperCompleted)).Inc()
	}
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		UserID: uintPtr(identity.UserID),
		Action: action,
		Type:   models.ActivityPaper,
	})

	return dto.NewExamPaperResponse(paper), nil
}

func (s *examPaperService) Delete(ctx context.Context, identity Identity, id uint) error {
	paper, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeAuthoring(identity, paper); err != nil {
		return err
	}

	removedResults, err := s.papers.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExamPaperNotFound
		}
		return err
	}
	if removedResults > 0 {
		s.logger.Warn().
			Uint("exam_paper_id", id).
			Int64("results_removed", removedResults).
			Msg("exam paper deleted with published results")
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		UserID: uintPtr(identity.UserID),
		Action: "Deleted exam paper: " + paper.Title,
		Type:   models.ActivityPaper,
	})
	return nil
}

func (s *examPaperService) Approve(ctx context.Context, identity Identity, id uint) (dto.ExamPaperResponse, error) {
	return s.review(ctx, identity, id, models.ExamPaperApproved, "")
}

func (s *examPaperService) Reject(ctx context.Context, identity Identity, id uint, payload dto.ExamPaperRejectRequest) (dto.ExamPaperResponse, error) {
	if err := checkStruct(s.validator, payload); err != nil {
		return dto.ExamPaperResponse{}, err
	}
	reason := strings.TrimSpace(s.sanitizer.Sanitize(payload.Reason))
	return s.review(ctx, identity, id, models.ExamPaperRejected, reason)
}

// review moves a pending paper to approved or rejected.
func (s *examPaperService) review(ctx context.Context, identity Identity, id uint, target models.ExamPaperStatus, reason string) (dto.ExamPaperResponse, error) {
	ctx, span := tracer().Start(ctx, "exam_paper.review")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("exam_paper.id", int64(id)),
		attribute.String("exam_paper.target_status", string(target)),
	)

	switch identity.Role {
	case models.RoleAdmin:
	case models.RoleFaculty, models.RoleStudent:
		return dto.ExamPaperResponse{}, ErrForbidden
	default:
		return dto.ExamPaperResponse{}, ErrForbidden
	}

	paper, err := s.load(ctx, id)
	if err != nil {
		return dto.ExamPaperResponse{}, spanFailure(span, err, "exam_paper_not_found")
	}
	if paper.Status != models.ExamPaperPending {
		return dto.ExamPaperResponse{}, spanFailure(span, ErrInvalidTransition, "not_pending")
	}

	values := map[string]interface{}{
		"status":           target,
		"is_active":        target == models.ExamPaperApproved,
		"rejection_reason": reason,
	}
	if err := s.papers.UpdateStatus(ctx, id, models.ExamPaperPending, values); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return dto.ExamPaperResponse{}, spanFailure(span, ErrInvalidTransition, "status_changed")
		}
		return dto.ExamPaperResponse{}, spanFailure(span, err, "update_failed")
	}
	observability.ExamPaperTransitions().WithLabelValues(string(target)).Inc()

	entry := ActivityEntry{
		UserID: uintPtr(identity.UserID),
		Action: "Approved exam paper: " + paper.Title,
		Type:   models.ActivityPaper,
	}
	if target == models.ExamPaperRejected {
		entry.Action = "Rejected exam paper: " + paper.Title
		entry.Details = reason
	}
	recordActivity(ctx, s.activity, s.logger, entry)

	updated, err := s.load(ctx, id)
	if err != nil {
		return dto.ExamPaperResponse{}, err
	}
	return dto.NewExamPaperResponse(updated), nil
}

func (s *examPaperService) load(ctx context.Context, id uint) (models.ExamPaper, error) {
	paper, err := s.papers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ExamPaper{}, ErrExamPaperNotFound
		}
		return models.ExamPaper{}, err
	}
	return paper, nil
}

func (s *examPaperService) subject(ctx context.Context, id uint) (models.Subject, error) {
	subject, err := s.subjects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Subject{}, ErrSubjectNotFound
		}
		return models.Subject{}, err
	}
	return subject, nil
}

// authorizeAuthoring gates update and delete. Faculty may only touch their own pending papers.
func authorizeAuthoring(identity Identity, paper models.ExamPaper) error {
	switch identity.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleFaculty:
		if paper.FacultyID != identity.UserID {
			return ErrForbidden
		}
		if paper.Status != models.ExamPaperPending {
			return ErrPaperLocked
		}
		return nil
	case models.RoleStudent:
		return ErrForbidden
	default:
		return ErrForbidden
	}
}

// visibleToStudent applies the placement rule against the paper's current subject.
func visibleToStudent(paper models.ExamPaper, identity Identity) bool {
	if paper.Status != models.ExamPaperApproved || identity.Semester == nil {
		return false
	}
	subject := paper.Subject
	if subject.Semester != *identity.Semester || subject.Department != identity.Department {
		return false
	}
	return subject.OpenToAllSpecializations() || subject.Specialization == identity.Specialization
}

func studentView(paper models.ExamPaper, submitted bool, now time.Time) dto.ExamPaperResponse {
	response := dto.NewExamPaperResponse(paper)
	response.Questions = paper.WithoutAnswers()

	available := !submitted && paper.Status == models.ExamPaperApproved && paper.WithinWindow(now)
	response.IsSubmitted = &submitted
	response.IsAvailable = &available
	return response
}

func toQuestions(payloads []dto.QuestionPayload) []models.Question {
	questions := make([]models.Question, 0, len(payloads))
	for _, payload := range payloads {
		question := models.Question{
			Question: strings.TrimSpace(payload.Question),
			Type:     models.QuestionType(strings.ToLower(payload.Type)),
			Marks:    payload.Marks,
		}
		if question.Type == models.QuestionMCQ {
			question.Options = append([]string(nil), payload.Options...)
			question.CorrectAnswer = strings.TrimSpace(payload.CorrectAnswer)
		}
		questions = append(questions, question)
	}
	return questions
}

// validatePaper checks rules spanning several fields of a paper.
func validatePaper(paper models.ExamPaper) error {
	if err := validateQuestions(paper.Questions); err != nil {
		return err
	}
	problems := fieldErrors{}
	if paper.PassingMarks > paper.TotalMarks {
		problems.add("passing_marks", "passing marks cannot exceed total marks")
	}
	if paper.StartTime != nil && paper.EndTime != nil && !paper.EndTime.After(*paper.StartTime) {
		problems.add("end_time", "end time must be after start time")
	}
	return problems.err()
}
