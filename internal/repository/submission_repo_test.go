package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

func TestSubmissionRepositoryRejectsSecondAttempt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	faculty := seedFaculty(t, db, "fac@example.com", "FAC0001")
	student := seedStudent(t, db, "stu@example.com", "1001")
	paper := seedPaper(t, db, seedSubject(t, db, faculty.ID, "CSE", "AIML", 3), models.ExamPaperApproved)

	first := models.Submission{StudentID: student.ID, ExamPaperID: paper.ID, IsSubmitted: true, Status: models.SubmissionPending}
	require.NoError(t, repo.Create(context.Background(), &first))

	second := models.Submission{StudentID: student.ID, ExamPaperID: paper.ID, IsSubmitted: true, Status: models.SubmissionPending}
	err := repo.Create(context.Background(), &second)
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	submitted, err := repo.HasSubmitted(context.Background(), student.ID, paper.ID)
	require.NoError(t, err)
	require.True(t, submitted)

	ids, err := repo.SubmittedPaperIDs(context.Background(), student.ID)
	require.NoError(t, err)
	require.Contains(t, ids, paper.ID)
}

func TestSubmissionRepositoryPublishCreatesSingleResult(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	results := NewResultRepository(db)
	faculty := seedFaculty(t, db, "fac@example.com", "FAC0001")
	student := seedStudent(t, db, "stu@example.com", "1001")
	paper := seedPaper(t, db, seedSubject(t, db, faculty.ID, "CSE", "AIML", 3), models.ExamPaperApproved)

	score := 7.0
	submission := models.Submission{
		StudentID: student.ID, ExamPaperID: paper.ID, IsSubmitted: true,
		Status: models.SubmissionSubmittedToAdmin, Score: &score, EvaluatedBy: &faculty.ID,
	}
	require.NoError(t, repo.Create(context.Background(), &submission))

	publish := func() error {
		now := time.Now().UTC()
		result := models.Result{
			StudentID: student.ID, ExamPaperID: paper.ID, SubmissionID: submission.ID,
			Score: score, TotalMarks: paper.TotalMarks, Percentage: models.Percentage(score, paper.TotalMarks),
		}
		return repo.Publish(context.Background(), submission.ID, map[string]interface{}{
			"status":       models.SubmissionPublished,
			"published_at": now,
		}, &result)
	}

	require.NoError(t, publish())
	require.ErrorIs(t, publish(), ErrStaleStatus)

	stored, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionPublished, stored.Status)
	require.NotNil(t, stored.PublishedAt)
	require.NotNil(t, stored.Student)
	require.Equal(t, student.Email, stored.Student.Email)

	list, err := results.List(context.Background(), ResultFilter{StudentID: &student.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.InDelta(t, 70.0, list[0].Percentage, 1e-9)
	require.NotNil(t, list[0].Student)
	require.Equal(t, "1001", *list[0].Student.StudentNumber)
}

func TestSubmissionRepositoryListByPaperAuthor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	author := seedFaculty(t, db, "author@example.com", "FAC0001")
	other := seedFaculty(t, db, "other@example.com", "FAC0002")
	student := seedStudent(t, db, "stu@example.com", "1001")
	own := seedPaper(t, db, seedSubject(t, db, author.ID, "CSE", "AIML", 3), models.ExamPaperApproved)
	foreign := seedPaper(t, db, seedSubject(t, db, other.ID, "CSE", "AIML", 3), models.ExamPaperApproved)

	for _, paperID := range []uint{own.ID, foreign.ID} {
		submission := models.Submission{StudentID: student.ID, ExamPaperID: paperID, IsSubmitted: true, Status: models.SubmissionPending}
		require.NoError(t, repo.Create(context.Background(), &submission))
	}

	list, err := repo.List(context.Background(), SubmissionFilter{PaperAuthorID: &author.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, own.ID, list[0].ExamPaperID)
	require.NotNil(t, list[0].Student)
	require.Equal(t, student.ID, list[0].Student.ID)

	all, err := repo.List(context.Background(), SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, item := range all {
		require.NotNil(t, item.Student)
		require.Equal(t, student.Email, item.Student.Email)
	}

	pending, err := repo.List(context.Background(), SubmissionFilter{Status: models.SubmissionEvaluated})
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestSubmissionRepositoryTransitionRequiresExpectedStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	submission := models.Submission{StudentID: 1, ExamPaperID: 1, IsSubmitted: true, Status: models.SubmissionPending}
	require.NoError(t, repo.Create(context.Background(), &submission))

	err := repo.Transition(context.Background(), submission.ID, []models.SubmissionStatus{models.SubmissionEvaluated}, map[string]interface{}{
		"status": models.SubmissionSubmittedToAdmin,
	})
	require.ErrorIs(t, err, ErrStaleStatus)
}
