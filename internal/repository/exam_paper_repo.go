package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

// ExamPaperFilter narrows staff listings of exam papers.
type ExamPaperFilter struct {
	FacultyID *uint
	SubjectID *uint
	Status    models.ExamPaperStatus
}

// StudentPlacement identifies the catalog slice a student is enrolled in.
type StudentPlacement struct {
	Semester       int
	Department     string
	Specialization string
}

// ExamPaperRepository persists exam papers. Reads preload the subject.
type ExamPaperRepository interface {
	Create(ctx context.Context, paper *models.ExamPaper) error
	GetByID(ctx context.Context, id uint) (models.ExamPaper, error)
	List(ctx context.Context, filter ExamPaperFilter) ([]models.ExamPaper, error)
	ListApprovedFor(ctx context.Context, placement StudentPlacement) ([]models.ExamPaper, error)
	Update(ctx context.Context, paper *models.ExamPaper, expected models.ExamPaperStatus) error
	UpdateStatus(ctx context.Context, id uint, from models.ExamPaperStatus, values map[string]interface{}) error
	Delete(ctx context.Context, id uint) (int64, error)
}

type examPaperRepository struct {
	db *gorm.DB
}

// NewExamPaperRepository constructs a gorm backed exam paper repository.
func NewExamPaperRepository(db *gorm.DB) ExamPaperRepository {
	return &examPaperRepository{db: db}
}

func (r *examPaperRepository) Create(ctx context.Context, paper *models.ExamPaper) error {
	return r.db.WithContext(ctx).Omit("Subject").Create(paper).Error
}

func (r *examPaperRepository) GetByID(ctx context.Context, id uint) (models.ExamPaper, error) {
	var paper models.ExamPaper
	if err := r.db.WithContext(ctx).Preload("Subject").First(&paper, id).Error; err != nil {
		return models.ExamPaper{}, err
	}
	return paper, nil
}

func (r *examPaperRepository) List(ctx context.Context, filter ExamPaperFilter) ([]models.ExamPaper, error) {
	query := r.db.WithContext(ctx).Model(&models.ExamPaper{}).Preload("Subject")
	if filter.FacultyID != nil {
		query = query.Where("faculty_id = ?", *filter.FacultyID)
	}
	if filter.SubjectID != nil {
		query = query.Where("subject_id = ?", *filter.SubjectID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var papers []models.ExamPaper
	if err := query.Order("created_at DESC").Find(&papers).Error; err != nil {
		return nil, err
	}
	return papers, nil
}

// ListApprovedFor returns approved papers whose subject matches the placement. Subjects without a
// specialization, or marked "No Specialization", are open to every specialization.
func (r *examPaperRepository) ListApprovedFor(ctx context.Context, placement StudentPlacement) ([]models.ExamPaper, error) {
	var papers []models.ExamPaper
	err := r.db.WithContext(ctx).
		Model(&models.ExamPaper{}).
		Select("exam_papers.*").
		Joins("JOIN subjects ON subjects.id = exam_papers.subject_id").
		Where("exam_papers.status = ?", models.ExamPaperApproved).
		Where("subjects.semester = ? AND subjects.department = ?", placement.Semester, placement.Department).
		Where("(subjects.specialization = ? OR subjects.specialization = '' OR subjects.specialization IS NULL OR subjects.specialization = ?)",
			placement.Specialization, models.NoSpecialization).
		Preload("Subject").
		Order("exam_papers.created_at DESC").
		Find(&papers).Error
	if err != nil {
		return nil, err
	}
	return papers, nil
}

// Update writes every column of paper provided the stored status still equals expected.
func (r *examPaperRepository) Update(ctx context.Context, paper *models.ExamPaper, expected models.ExamPaperStatus) error {
	result := r.db.WithContext(ctx).Model(paper).
		Where("status = ?", expected).
		Select("*").
		Omit("Subject", "CreatedAt").
		Updates(paper)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// UpdateStatus applies values only while the paper is still in the from status.
func (r *examPaperRepository) UpdateStatus(ctx context.Context, id uint, from models.ExamPaperStatus, values map[string]interface{}) error {
	if _, ok := values["updated_at"]; !ok {
		values["updated_at"] = time.Now().UTC()
	}
	result := r.db.WithContext(ctx).Model(&models.ExamPaper{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// Delete removes the paper with its results and submissions in one transaction and reports how
// many results went with it.
func (r *examPaperRepository) Delete(ctx context.Context, id uint) (int64, error) {
	var removedResults int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		results := tx.Where("exam_paper_id = ?", id).Delete(&models.Result{})
		if results.Error != nil {
			return results.Error
		}
		if err := tx.Where("exam_paper_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}
		paper := tx.Delete(&models.ExamPaper{}, id)
		if paper.Error != nil {
			return paper.Error
		}
		if paper.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		removedResults = results.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removedResults, nil
}
