package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

// Migrate creates or updates the tables backing every store.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Subject{},
		&models.ExamPaper{},
		&models.Submission{},
		&models.Result{},
		&models.Activity{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
