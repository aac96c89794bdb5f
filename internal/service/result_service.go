package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/repository"
)

const resultSheet = "Results"

var resultExportHeader = []interface{}{
	"Result ID", "Student", "Email", "Student ID", "Exam Paper", "Subject",
	"Score", "Total Marks", "Percentage", "Passed", "Published At",
}

// ResultService exposes published results.
type ResultService interface {
	List(ctx context.Context, identity Identity, req dto.ResultListRequest) ([]dto.ResultResponse, error)
	Get(ctx context.Context, identity Identity, id uint) (dto.ResultResponse, error)
	Stats(ctx context.Context, identity Identity, req dto.ResultListRequest) (dto.ResultStatsResponse, error)
	Export(ctx context.Context, identity Identity, req dto.ResultListRequest) ([]byte, error)
}

type resultService struct {
	results repository.ResultRepository
	logger  zerolog.Logger
}

// NewResultService constructs the result service.
func NewResultService(results repository.ResultRepository, logger zerolog.Logger) ResultService {
	return &resultService{
		results: results,
		logger:  logger.With().Str("component", "result_service").Logger(),
	}
}

func (s *resultService) List(ctx context.Context, identity Identity, req dto.ResultListRequest) ([]dto.ResultResponse, error) {
	filter, err := resultScope(identity, req)
	if err != nil {
		return nil, err
	}

	results, err := s.results.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ResultResponse, 0, len(results))
	for _, result := range results {
		responses = append(responses, dto.NewResultResponse(result))
	}
	return responses, nil
}

func (s *resultService) Get(ctx context.Context, identity Identity, id uint) (dto.ResultResponse, error) {
	result, err := s.results.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResultResponse{}, ErrResultNotFound
		}
		return dto.ResultResponse{}, err
	}

	switch identity.Role {
	case models.RoleStudent:
		if result.StudentID != identity.UserID {
			return dto.ResultResponse{}, ErrForbidden
		}
	case models.RoleFaculty:
		if result.ExamPaper == nil || result.ExamPaper.FacultyID != identity.UserID {
			return dto.ResultResponse{}, ErrForbidden
		}
	case models.RoleAdmin:
	default:
		return dto.ResultResponse{}, ErrForbidden
	}

	return dto.NewResultResponse(result), nil
}

func (s *resultService) Stats(ctx context.Context, identity Identity, req dto.ResultListRequest) (dto.ResultStatsResponse, error) {
	filter, err := staffResultScope(identity, req)
	if err != nil {
		return dto.ResultStatsResponse{}, err
	}

	stats, err := s.results.Stats(ctx, filter)
	if err != nil {
		return dto.ResultStatsResponse{}, err
	}

	return dto.ResultStatsResponse{
		AverageScore:      stats.AverageScore,
		HighestScore:      stats.HighestScore,
		LowestScore:       stats.LowestScore,
		AveragePercentage: stats.AveragePercentage,
		TotalStudents:     stats.TotalStudents,
		PassCount:         stats.PassCount,
	}, nil
}

// Export renders the caller's results as an xlsx workbook.
func (s *resultService) Export(ctx context.Context, identity Identity, req dto.ResultListRequest) ([]byte, error) {
	ctx, span := tracer().Start(ctx, "result.export")
	defer span.End()

	filter, err := staffResultScope(identity, req)
	if err != nil {
		return nil, err
	}

	results, err := s.results.List(ctx, filter)
	if err != nil {
		return nil, spanFailure(span, err, "list_failed")
	}
	span.SetAttributes(attribute.Int("result.count", len(results)))

	workbook := excelize.NewFile()
	defer func() {
		if err := workbook.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close export workbook")
		}
	}()

	if err := workbook.SetSheetName("Sheet1", resultSheet); err != nil {
		return nil, spanFailure(span, err, "workbook_failed")
	}
	if err := workbook.SetSheetRow(resultSheet, "A1", &resultExportHeader); err != nil {
		return nil, spanFailure(span, err, "workbook_failed")
	}
	if bold, err := workbook.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = workbook.SetRowStyle(resultSheet, 1, 1, bold)
	}

	for i, result := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, spanFailure(span, err, "workbook_failed")
		}
		row := exportRow(dto.NewResultResponse(result))
		if err := workbook.SetSheetRow(resultSheet, cell, &row); err != nil {
			return nil, spanFailure(span, err, "workbook_failed")
		}
	}

	buffer, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, spanFailure(span, err, "workbook_failed")
	}
	return buffer.Bytes(), nil
}

func exportRow(result dto.ResultResponse) []interface{} {
	var student, email, studentID, paper, subject string
	if result.Student != nil {
		student = result.Student.Name
		email = result.Student.Email
		if result.Student.StudentID != nil {
			studentID = *result.Student.StudentID
		}
	}
	if result.ExamPaper != nil {
		paper = result.ExamPaper.Title
		subject = result.ExamPaper.SubjectName
	}
	passed := ""
	if result.Passed != nil {
		passed = "no"
		if *result.Passed {
			passed = "yes"
		}
	}

	return []interface{}{
		result.ID, student, email, studentID, paper, subject,
		result.Score, result.TotalMarks, fmt.Sprintf("%.2f", result.Percentage), passed,
		result.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func resultScope(identity Identity, req dto.ResultListRequest) (repository.ResultFilter, error) {
	filter := repository.ResultFilter{ExamPaperID: req.ExamPaperID}
	switch identity.Role {
	case models.RoleStudent:
		filter.StudentID = uintPtr(identity.UserID)
	case models.RoleFaculty:
		filter.PaperAuthorID = uintPtr(identity.UserID)
	case models.RoleAdmin:
	default:
		return repository.ResultFilter{}, ErrForbidden
	}
	return filter, nil
}

func staffResultScope(identity Identity, req dto.ResultListRequest) (repository.ResultFilter, error) {
	switch identity.Role {
	case models.RoleFaculty, models.RoleAdmin:
		return resultScope(identity, req)
	case models.RoleStudent:
		return repository.ResultFilter{}, ErrForbidden
	default:
		return repository.ResultFilter{}, ErrForbidden
	}
}
