package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

// ResultFilter narrows result queries.
type ResultFilter struct {
	StudentID     *uint
	PaperAuthorID *uint
	ExamPaperID   *uint
}

// ResultStats aggregates published results.
type ResultStats struct {
	AverageScore      float64
	HighestScore      float64
	LowestScore       float64
	AveragePercentage float64
	TotalStudents     int64
	PassCount         int64
}

// ResultRepository reads published results. Results are written by SubmissionRepository.Publish.
type ResultRepository interface {
	GetByID(ctx context.Context, id uint) (models.Result, error)
	List(ctx context.Context, filter ResultFilter) ([]models.Result, error)
	Stats(ctx context.Context, filter ResultFilter) (ResultStats, error)
}

type resultRepository struct {
	db *gorm.DB
}

// NewResultRepository constructs a gorm backed result repository.
func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) GetByID(ctx context.Context, id uint) (models.Result, error) {
	var result models.Result
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("ExamPaper").
		Preload("ExamPaper.Subject").
		First(&result, id).Error
	if err != nil {
		return models.Result{}, err
	}
	return result, nil
}

func (r *resultRepository) List(ctx context.Context, filter ResultFilter) ([]models.Result, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.Result{}).Select("results.*"), filter).
		Preload("Student").
		Preload("ExamPaper").
		Preload("ExamPaper.Subject")

	var results []models.Result
	if err := query.Order("results.created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *resultRepository) Stats(ctx context.Context, filter ResultFilter) (ResultStats, error) {
	var stats ResultStats
	query := r.db.WithContext(ctx).Model(&models.Result{}).
		Select(`COALESCE(AVG(results.score), 0) AS average_score,
			COALESCE(MAX(results.score), 0) AS highest_score,
			COALESCE(MIN(results.score), 0) AS lowest_score,
			COALESCE(AVG(results.percentage), 0) AS average_percentage,
			COUNT(*) AS total_students,
			COALESCE(SUM(CASE WHEN results.score >= exam_papers.passing_marks THEN 1 ELSE 0 END), 0) AS pass_count`).
		Joins("JOIN exam_papers ON exam_papers.id = results.exam_paper_id")

	if filter.StudentID != nil {
		query = query.Where("results.student_id = ?", *filter.StudentID)
	}
	if filter.PaperAuthorID != nil {
		query = query.Where("exam_papers.faculty_id = ?", *filter.PaperAuthorID)
	}
	if filter.ExamPaperID != nil {
		query = query.Where("results.exam_paper_id = ?", *filter.ExamPaperID)
	}

	if err := query.Scan(&stats).Error; err != nil {
		return ResultStats{}, err
	}
	return stats, nil
}

func (r *resultRepository) applyFilter(query *gorm.DB, filter ResultFilter) *gorm.DB {
	if filter.PaperAuthorID != nil {
		query = query.Joins("JOIN exam_papers ON exam_papers.id = results.exam_paper_id").
			Where("exam_papers.faculty_id = ?", *filter.PaperAuthorID)
	}
	if filter.StudentID != nil {
		query = query.Where("results.student_id = ?", *filter.StudentID)
	}
	if filter.ExamPaperID != nil {
		query = query.Where("results.exam_paper_id = ?", *filter.ExamPaperID)
	}
	return query
}
