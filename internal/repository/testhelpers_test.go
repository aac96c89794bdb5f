package repository

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/database"
	"github.com/noah-isme/exam-portal-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func seedFaculty(t *testing.T, db *gorm.DB, email, code string) models.User {
	t.Helper()
	user := models.User{Name: "Faculty " + code, Email: email, PasswordHash: "x", Role: models.RoleFaculty, FacultyID: strPtr(code)}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedStudent(t *testing.T, db *gorm.DB, email, studentID string) models.User {
	t.Helper()
	user := models.User{
		Name: "Student " + studentID, Email: email, PasswordHash: "x", Role: models.RoleStudent,
		School: models.SchoolSOET, Department: "CSE", Specialization: "AIML", Semester: intPtr(3), StudentNumber: strPtr(studentID),
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedSubject(t *testing.T, db *gorm.DB, facultyID uint, department, specialization string, semester int) models.Subject {
	t.Helper()
	subject := models.Subject{
		Name: "Subject " + department + specialization, FacultyName: "Faculty", FacultyID: facultyID,
		School: models.SchoolSOET, Department: department, Specialization: specialization, Semester: semester,
	}
	require.NoError(t, db.Create(&subject).Error)
	return subject
}

func seedPaper(t *testing.T, db *gorm.DB, subject models.Subject, status models.ExamPaperStatus) models.ExamPaper {
	t.Helper()
	paper := models.ExamPaper{
		Title: "Paper for " + subject.Name, Description: "desc", FacultyID: subject.FacultyID,
		Duration: 60, TotalMarks: 10, PassingMarks: 4, Instructions: "answer all", Status: status,
		Questions: []models.Question{{Question: "2+2?", Type: models.QuestionMCQ, Options: []string{"1", "2", "3", "4"}, CorrectAnswer: "4", Marks: 10}},
	}
	paper.MirrorSubject(subject)
	require.NoError(t, db.Omit("Subject").Create(&paper).Error)
	return paper
}
