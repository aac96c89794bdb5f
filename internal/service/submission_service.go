package service

import (
	"context"
	"errors"
	"fmt"
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

// SubmissionService runs the submit, evaluate, forward and publish workflow.
type SubmissionService interface {
	List(ctx context.Context, identity Identity, req dto.SubmissionListRequest) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, identity Identity, id uint) (dto.SubmissionResponse, error)
	Submit(ctx context.Context, identity Identity, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	Evaluate(ctx context.Context, identity Identity, id uint, payload dto.SubmissionEvaluateRequest) (dto.SubmissionResponse, error)
	SubmitToAdmin(ctx context.Context, identity Identity, id uint) (dto.SubmissionResponse, error)
	Publish(ctx context.Context, identity Identity, id uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	papers      repository.ExamPaperRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	papers repository.ExamPaperRepository,
	validate *validator.Validate,
	activity ActivityRecorder,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions: submissions,
		papers:      papers,
		validator:   validate,
		activity:    activity,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) List(ctx context.Context, identity Identity, req dto.SubmissionListRequest) ([]dto.SubmissionResponse, error) {
	filter := repository.SubmissionFilter{ExamPaperID: req.ExamPaperID}
	if status := strings.TrimSpace(req.Status); status != "" {
		filter.Status = models.SubmissionStatus(strings.ToLower(status))
	}

	switch identity.Role {
	case models.RoleStudent:
		filter.StudentID = uintPtr(identity.UserID)
	case models.RoleFaculty:
		filter.PaperAuthorID = uintPtr(identity.UserID)
	case models.RoleAdmin:
	default:
		return nil, ErrForbidden
	}

	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, dto.NewSubmissionResponse(submission))
	}
	return responses, nil
}

func (s *submissionService) Get(ctx context.Context, identity Identity, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.load(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	switch identity.Role {
	case models.RoleStudent:
		if submission.StudentID != identity.UserID {
			return dto.SubmissionResponse{}, ErrForbidden
		}
	case models.RoleFaculty:
		if submission.ExamPaper == nil || submission.ExamPaper.FacultyID != identity.UserID {
			return dto.SubmissionResponse{}, ErrForbidden
		}
	case models.RoleAdmin:
	default:
		return dto.SubmissionResponse{}, ErrForbidden
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Submit(ctx context.Context, identity Identity, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	ctx, span := tracer().Start(ctx, "submission.submit")
	defer span.End()
	span.SetAttributes(attribute.Int64("exam_paper.id", int64(payload.ExamPaperID)))

	switch identity.Role {
	case models.RoleStudent:
	case models.RoleFaculty, models.RoleAdmin:
		return dto.SubmissionResponse{}, ErrForbidden
	default:
		return dto.SubmissionResponse{}, ErrForbidden
	}

	if err := checkStruct(s.validator, payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	paper, err := s.papers.GetByID(ctx, payload.ExamPaperID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, spanFailure(span, ErrExamPaperNotFound, "exam_paper_not_found")
		}
		return dto.SubmissionResponse{}, spanFailure(span, err, "exam_paper_lookup_failed")
	}
	if paper.Status != models.ExamPaperApproved {
		return dto.SubmissionResponse{}, spanFailure(span, ErrPaperNotOpen, "exam_paper_not_open")
	}

	answers, err := toAnswers(payload.Answers, len(paper.Questions))
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	already, err := s.submissions.HasSubmitted(ctx, identity.UserID, paper.ID)
	if err != nil {
		return dto.SubmissionResponse{}, spanFailure(span, err, "submission_lookup_failed")
	}
	if already {
		return dto.SubmissionResponse{}, spanFailure(span, ErrAlreadySubmitted, "already_submitted")
	}

	now := s.now().UTC()
	submission := models.Submission{
		StudentID:   identity.UserID,
		ExamPaperID: paper.ID,
		Answers:     answers,
		StartTime:   now,
		EndTime:     now,
		IsSubmitted: true,
		Status:      models.SubmissionPending,
	}
	if payload.StartTime != nil {
		submission.StartTime = payload.StartTime.UTC()
	}
	if payload.EndTime != nil {
		submission.EndTime = payload.EndTime.UTC()
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SubmissionResponse{}, spanFailure(span, ErrAlreadySubmitted, "already_submitted")
		}
		return dto.SubmissionResponse{}, spanFailure(span, err, "create_failed")
	}
	span.SetAttributes(attribute.Int64("submission.id", int64(submission.ID)))
	observability.SubmissionTransitions().WithLabelValues(string(submission.Status)).Inc()

	s.record(ctx, identity, "submitted", submission.ID)

	submission.ExamPaper = &paper
	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Evaluate(ctx context.Context, identity Identity, id uint, payload dto.SubmissionEvaluateRequest) (dto.SubmissionResponse, error) {
	ctx, span := tracer().Start(ctx, "submission.evaluate")
	defer span.End()
	span.SetAttributes(attribute.Int64("submission.id", int64(id)))

	if err := checkStruct(s.validator, payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.loadForAuthor(ctx, identity, id)
	if err != nil {
		return dto.SubmissionResponse{}, spanFailure(span, err, "submission_unavailable")
	}

	switch submission.Status {
	case models.SubmissionPending, models.SubmissionEvaluated:
	case models.SubmissionSubmittedToAdmin, models.SubmissionPublished:
		return dto.SubmissionResponse{}, spanFailure(span, ErrInvalidTransition, "already_forwarded")
	default:
		return dto.SubmissionResponse{}, spanFailure(span, ErrInvalidTransition, "unknown_status")
	}

	score := *payload.Score
	if total := submission.ExamPaper.TotalMarks; score < 0 || score > float64(total) {
		return dto.SubmissionResponse{}, newValidationError("invalid score", map[string]interface{}{
			"score": fmt.Sprintf("score must be between 0 and %d", total),
		})
	}

	evaluations := make([]models.Answer, 0, len(payload.Evaluations))
	for _, evaluation := range payload.Evaluations {
		evaluations = append(evaluations, models.Answer{
			QuestionIndex: evaluation.QuestionIndex,
			Marks:         evaluation.Marks,
			Comment:       strings.TrimSpace(s.sanitizer.Sanitize(evaluation.Comment)),
		})
	}
	submission.MergeEvaluations(evaluations)

	now := s.now().UTC()
	values := map[string]interface{}{
		"score":        score,
		"feedback":     strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback)),
		"answers":      submission.Answers,
		"status":       models.SubmissionEvaluated,
		"evaluated_by": identity.UserID,
		"evaluated_at": now,
		"updated_at":   now,
	}
	from := []models.SubmissionStatus{models.SubmissionPending, models.SubmissionEvaluated}
	if err := s.transition(ctx, id, from, values); err != nil {
		return dto.SubmissionResponse{}, spanFailure(span, err, "transition_failed")
	}

	s.record(ctx, identity, "evaluated", id)
	return s.reload(ctx, id)
}

func (s *submissionService) SubmitToAdmin(ctx context.Context, identity Identity, id uint) (dto.SubmissionResponse, error) {
	ctx, span := tracer().Start(ctx, "submission.submit_to_admin")
	defer span.End()
	span.SetAttributes(attribute.Int64("submission.id", int64(id)))

	submission, err := s.loadForAuthor(ctx, identity, id)
	if err != nil {
		return dto.SubmissionResponse{}, spanFailure(span, err, "submission_unavailable")
	}
	if submission.Status != models.SubmissionEvaluated || submission.Score == nil || submission.EvaluatedBy == nil {
		return dto.SubmissionResponse{}, spanFailure(span, ErrNotEvaluated, "not_evaluated")
	}

	now := s.now().UTC()
	values := map[string]interface{}{
		"status":                models.SubmissionSubmittedToAdmin,
		"submitted_to_admin_at": now,
		"updated_at":            now,
	}
	from := []models.SubmissionStatus{models.SubmissionEvaluated}
	if err := s.transition(ctx, id, from, values); err != nil {
		return dto.SubmissionResponse{}, spanFailure(span, err, "transition_failed")
	}

	s.record(ctx, identity, "submitted_to_admin", id)
	return s.reload(ctx, id)
}

func (s *submissionService) Publish(ctx context.Context, identity Identity, id uint) (dto.SubmissionResponse, error) {
	ctx, span := tracer().Start(ctx, "submission.publish")
	defer span.End()
	span.SetAttributes(attribute.Int64("submission.id", int64(id)))

	switch identity.Role {
	case models.RoleAdmin:
	case models.RoleFaculty, models.RoleStudent:
		return dto.SubmissionResponse{}, ErrForbidden
	default:
		return dto.SubmissionResponse{}, ErrForbidden
	}

	submission, err := s.load(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, spanFailure(span, err, "submission_not_found")
	}
	if submission.Status != models.SubmissionSubmittedToAdmin || submission.ExamPaper == nil {
		return dto.SubmissionResponse{}, spanFailure(span, ErrNotForwarded, "not_forwarded")
	}

	var score float64
	if submission.Score != nil {
		score = *submission.Score
	}
	total := submission.ExamPaper.TotalMarks
	result := models.Result{
		StudentID:    submission.StudentID,
		ExamPaperID:  submission.ExamPaperID,
		SubmissionID: submission.ID,
		Score:        score,
		TotalMarks:   total,
		Percentage:   models.Percentage(score, total),
		Feedback:     submission.Feedback,
	}

	now := s.now().UTC()
	values := map[string]interface{}{
		"status":       models.SubmissionPublished,
		"published_at": now,
		"updated_at":   now,
	}
	if err := s.submissions.Publish(ctx, id, values, &result); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SubmissionResponse{}, spanFailure(span, ErrNotForwarded, "already_published")
		}
		return dto.SubmissionResponse{}, spanFailure(span, err, "publish_failed")
	}
	span.SetAttributes(attribute.Int64("result.id", int64(result.ID)))
	observability.SubmissionTransitions().WithLabelValues(string(models.SubmissionPublished)).Inc()

	s.record(ctx, identity, "published", id)
	return s.reload(ctx, id)
}

// loadForAuthor loads a submission the caller may evaluate. Only the faculty who wrote the paper may.
func (s *submissionService) loadForAuthor(ctx context.Context, identity Identity, id uint) (models.Submission, error) {
	switch identity.Role {
	case models.RoleFaculty:
	case models.RoleAdmin, models.RoleStudent:
		return models.Submission{}, ErrForbidden
	default:
		return models.Submission{}, ErrForbidden
	}

	submission, err := s.load(ctx, id)
	if err != nil {
		return models.Submission{}, err
	}
	if submission.ExamPaper == nil || submission.ExamPaper.FacultyID != identity.UserID {
		return models.Submission{}, ErrForbidden
	}
	return submission, nil
}

func (s *submissionService) transition(ctx context.Context, id uint, from []models.SubmissionStatus, values map[string]interface{}) error {
	if err := s.submissions.Transition(ctx, id, from, values); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return ErrInvalidTransition
		}
		return err
	}
	if status, ok := values["status"].(models.SubmissionStatus); ok {
		observability.SubmissionTransitions().WithLabelValues(string(status)).Inc()
	}
	return nil
}

func (s *submissionService) load(ctx context.Context, id uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}
	return submission, nil
}

func (s *submissionService) reload(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.load(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) record(ctx context.Context, identity Identity, action string, submissionID uint) {
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		UserID:  uintPtr(identity.UserID),
		Action:  action,
		Type:    models.ActivityResult,
		Details: fmt.Sprintf("submission #%d", submissionID),
	})
}

// toAnswers converts payload answers, checking each index against the paper's question count.
func toAnswers(payloads []dto.AnswerPayload, questionCount int) ([]models.Answer, error) {
	problems := fieldErrors{}
	answers := make([]models.Answer, 0, len(payloads))
	for i, payload := range payloads {
		index := *payload.QuestionIndex
		if index >= questionCount {
			problems.add(fmt.Sprintf("answers[%d].question_index", i), fmt.Sprintf("question index must be below %d", questionCount))
			continue
		}
		answers = append(answers, models.Answer{
			QuestionIndex:  index,
			SelectedOption: *payload.SelectedOption,
		})
	}
	if err := problems.err(); err != nil {
		return nil, err
	}
	return answers, nil
}
