package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

// SubmissionFilter narrows submission listings. PaperAuthorID restricts to papers written by that faculty.
type SubmissionFilter struct {
	StudentID     *uint
	PaperAuthorID *uint
	ExamPaperID   *uint
	Status        models.SubmissionStatus
}

// SubmissionRepository persists student attempts.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	HasSubmitted(ctx context.Context, studentID, examPaperID uint) (bool, error)
	SubmittedPaperIDs(ctx context.Context, studentID uint) (map[uint]struct{}, error)
	Transition(ctx context.Context, id uint, from []models.SubmissionStatus, values map[string]interface{}) error
	Publish(ctx context.Context, id uint, values map[string]interface{}, result *models.Result) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository constructs a gorm backed submission repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit("Student", "ExamPaper").Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("ExamPaper").
		Preload("ExamPaper.Subject").
		First(&submission, id).Error
	if err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("submissions.*").
		Preload("Student").
		Preload("ExamPaper")

	if filter.PaperAuthorID != nil {
		query = query.Joins("JOIN exam_papers ON exam_papers.id = submissions.exam_paper_id").
			Where("exam_papers.faculty_id = ?", *filter.PaperAuthorID)
	}
	if filter.StudentID != nil {
		query = query.Where("submissions.student_id = ?", *filter.StudentID)
	}
	if filter.ExamPaperID != nil {
		query = query.Where("submissions.exam_paper_id = ?", *filter.ExamPaperID)
	}
	if filter.Status != "" {
		query = query.Where("submissions.status = ?", filter.Status)
	}

	var submissions []models.Submission
	if err := query.Order("submissions.created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) HasSubmitted(ctx context.Context, studentID, examPaperID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("student_id = ? AND exam_paper_id = ? AND is_submitted = ?", studentID, examPaperID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *submissionRepository) SubmittedPaperIDs(ctx context.Context, studentID uint) (map[uint]struct{}, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("student_id = ? AND is_submitted = ?", studentID, true).
		Pluck("exam_paper_id", &ids).Error
	if err != nil {
		return nil, err
	}

	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// Transition applies values only while the submission is in one of the from statuses.
func (r *submissionRepository) Transition(ctx context.Context, id uint, from []models.SubmissionStatus, values map[string]interface{}) error {
	return transitionSubmission(r.db.WithContext(ctx), id, from, values)
}

// Publish flips the submission to published and creates its result in one transaction.
func (r *submissionRepository) Publish(ctx context.Context, id uint, values map[string]interface{}, result *models.Result) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		from := []models.SubmissionStatus{models.SubmissionSubmittedToAdmin}
		if err := transitionSubmission(tx, id, from, values); err != nil {
			return err
		}
		return tx.Omit("Student", "ExamPaper").Create(result).Error
	})
}

func transitionSubmission(db *gorm.DB, id uint, from []models.SubmissionStatus, values map[string]interface{}) error {
	if _, ok := values["updated_at"]; !ok {
		values["updated_at"] = time.Now().UTC()
	}
	result := db.Model(&models.Submission{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}
