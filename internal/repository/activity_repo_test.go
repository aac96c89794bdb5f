package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

func TestActivityRepositoryListNewestFirstWithPaging(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)
	faculty := seedFaculty(t, db, "fac@example.com", "FAC0001")

	base := time.Now().Add(-time.Hour)
	for i, kind := range []models.ActivityType{models.ActivityPaper, models.ActivityResult, models.ActivityPaper} {
		entry := models.Activity{UserID: &faculty.ID, Action: "action", Type: kind, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Create(context.Background(), &entry))
	}

	entries, total, err := repo.List(context.Background(), ActivityFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, entries, 2)
	require.True(t, entries[0].CreatedAt.After(entries[1].CreatedAt))
	require.NotNil(t, entries[0].User)
	require.Equal(t, faculty.Email, entries[0].User.Email)

	papers, total, err := repo.List(context.Background(), ActivityFilter{Type: models.ActivityPaper})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, papers, 2)
}
