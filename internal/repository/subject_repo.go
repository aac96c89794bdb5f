package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

// SubjectFilter narrows subject listings.
type SubjectFilter struct {
	FacultyID  *uint
	Department string
	Semester   int
}

// SubjectRepository persists the subject catalog.
type SubjectRepository interface {
	Create(ctx context.Context, subject *models.Subject) error
	GetByID(ctx context.Context, id uint) (models.Subject, error)
	List(ctx context.Context, filter SubjectFilter) ([]models.Subject, error)
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id uint) error
	CountExamPapers(ctx context.Context, id uint) (int64, error)
}

type subjectRepository struct {
	db *gorm.DB
}

// NewSubjectRepository constructs a gorm backed subject repository.
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *subjectRepository) GetByID(ctx context.Context, id uint) (models.Subject, error) {
	var subject models.Subject
	if err := r.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return models.Subject{}, err
	}
	return subject, nil
}

func (r *subjectRepository) List(ctx context.Context, filter SubjectFilter) ([]models.Subject, error) {
	query := r.db.WithContext(ctx).Model(&models.Subject{})
	if filter.FacultyID != nil {
		query = query.Where("faculty_id = ?", *filter.FacultyID)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.Semester > 0 {
		query = query.Where("semester = ?", filter.Semester)
	}

	var subjects []models.Subject
	if err := query.Order("name ASC").Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

// Update saves the subject and re-mirrors its placement onto every exam paper that references it.
func (r *subjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(subject).Error; err != nil {
			return err
		}
		return tx.Model(&models.ExamPaper{}).
			Where("subject_id = ?", subject.ID).
			Updates(map[string]interface{}{
				"department":     subject.Department,
				"specialization": subject.Specialization,
			}).Error
	})
}

func (r *subjectRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Subject{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *subjectRepository) CountExamPapers(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ExamPaper{}).Where("subject_id = ?", id).Count(&count).Error
	return count, err
}
