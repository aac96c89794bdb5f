package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

func TestResultRepositoryStatsAggregates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewResultRepository(db)
	faculty := seedFaculty(t, db, "fac@example.com", "FAC0001")
	paper := seedPaper(t, db, seedSubject(t, db, faculty.ID, "CSE", "AIML", 3), models.ExamPaperApproved)

	for i, score := range []float64{2, 6, 10} {
		result := models.Result{
			StudentID: uint(i + 10), ExamPaperID: paper.ID, SubmissionID: uint(i + 1),
			Score: score, TotalMarks: 10, Percentage: models.Percentage(score, 10),
		}
		require.NoError(t, db.Omit("Student", "ExamPaper").Create(&result).Error)
	}

	stats, err := repo.Stats(context.Background(), ResultFilter{ExamPaperID: &paper.ID})
	require.NoError(t, err)
	require.InDelta(t, 6.0, stats.AverageScore, 1e-9)
	require.InDelta(t, 10.0, stats.HighestScore, 1e-9)
	require.InDelta(t, 2.0, stats.LowestScore, 1e-9)
	require.InDelta(t, 60.0, stats.AveragePercentage, 1e-9)
	require.Equal(t, int64(3), stats.TotalStudents)
	require.Equal(t, int64(2), stats.PassCount)

	other := uint(999)
	empty, err := repo.Stats(context.Background(), ResultFilter{PaperAuthorID: &other})
	require.NoError(t, err)
	require.Zero(t, empty.TotalStudents)
}
