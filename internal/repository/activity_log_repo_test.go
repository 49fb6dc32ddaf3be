package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

func TestActivityLogRepositoryFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	repo := NewActivityLogRepository(setupRepositoryDB(t))

	base := time.Now().Add(-time.Hour).UTC()
	gradeID, otherGradeID := uint(9), uint(10)
	entries := []models.ActivityLog{
		{ActorID: 5, ActorRole: "teacher", Action: "grade.created", EntityType: "grade", EntityID: &gradeID, CreatedAt: base},
		{ActorID: 5, ActorRole: "teacher", Action: "grade.penalty_added", EntityType: "grade", EntityID: &gradeID, CreatedAt: base.Add(10 * time.Minute)},
		{ActorID: 30, ActorRole: "student", Action: "grade.status_changed", EntityType: "grade", EntityID: &gradeID, CreatedAt: base.Add(20 * time.Minute)},
		{ActorID: 5, ActorRole: "teacher", Action: "grade.created", EntityType: "grade", EntityID: &otherGradeID, CreatedAt: base.Add(30 * time.Minute)},
	}
	for i := range entries {
		require.NoError(t, repo.Create(ctx, &entries[i]))
	}

	page, total, err := repo.List(ctx, ActivityLogFilter{EntityType: "grade", EntityID: &gradeID, PageSize: 2, Page: 1})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	require.Equal(t, "grade.status_changed", page[0].Action)
	require.Equal(t, "grade.penalty_added", page[1].Action)

	page, _, err = repo.List(ctx, ActivityLogFilter{EntityID: &gradeID, PageSize: 2, Page: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "grade.created", page[0].Action)

	since := base.Add(15 * time.Minute)
	teacher := uint(5)
	page, total, err = repo.List(ctx, ActivityLogFilter{ActorID: &teacher, Since: &since})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, otherGradeID, *page[0].EntityID)

	page, total, err = repo.List(ctx, ActivityLogFilter{Action: "grade.created"})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, page, 2)
}
