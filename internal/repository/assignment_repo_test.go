package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/coachhub-api/internal/models"
)

func TestAssignmentRepositoryListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	seedAssignment(t, db, func(a *models.Assignment) { a.Title = "Algebra drill" })
	seedAssignment(t, db, func(a *models.Assignment) {
		a.Title = "Geometry proofs"
		a.Status = models.AssignmentStatusDraft
	})
	seedAssignment(t, db, func(a *models.Assignment) {
		a.Title = "Algebra review"
		a.ClassID = 11
	})

	classID := uint(10)
	items, total, err := repo.List(ctx, AssignmentFilter{ClassID: &classID})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 2)

	items, total, err = repo.List(ctx, AssignmentFilter{Search: "algebra", Statuses: []models.AssignmentStatus{models.AssignmentStatusPublished}, Sort: "title"})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, "Algebra drill", items[0].Title)

	paged, total, err := repo.List(ctx, AssignmentFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, paged, 1)
}

func TestAssignmentRepositorySetAverageAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()
	assignment := seedAssignment(t, db, nil)

	avg := 81.5
	require.NoError(t, repo.SetAverageScore(ctx, assignment.ID, &avg))
	stored, err := repo.GetByID(ctx, assignment.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AverageScore)
	require.Equal(t, 81.5, *stored.AverageScore)

	require.NoError(t, repo.SetAverageScore(ctx, assignment.ID, nil))
	stored, err = repo.GetByID(ctx, assignment.ID)
	require.NoError(t, err)
	require.Nil(t, stored.AverageScore)

	require.NoError(t, repo.Delete(ctx, assignment.ID))
	require.ErrorIs(t, repo.Delete(ctx, assignment.ID), gorm.ErrRecordNotFound)
}

func TestEnrollmentRepositoryCountsActiveOnly(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEnrollmentRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.ClassEnrollment{ClassID: 10, StudentID: 1, Status: models.EnrollmentStatusActive}).Error)
	require.NoError(t, db.Create(&models.ClassEnrollment{ClassID: 10, StudentID: 2, Status: "withdrawn"}).Error)

	count, err := repo.CountActive(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	enrolled, err := repo.IsEnrolled(ctx, 10, 2)
	require.NoError(t, err)
	require.False(t, enrolled)
}

func TestCoachingCenterRepositorySearch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCoachingCenterRepository(db)
	ctx := context.Background()

	centers := []models.CoachingCenter{
		{Slug: "prima", Name: "Prima Math", City: "Bandung", Subjects: []string{"Math", "Physics"}, Rating: 4.8, IsVerified: true},
		{Slug: "lingua", Name: "Lingua House", City: "Bandung", Subjects: []string{"english"}, Rating: 4.2},
		{Slug: "delta", Name: "Delta Science", City: "Jakarta", Subjects: []string{"physics"}, Rating: 3.9, IsVerified: true},
	}
	for i := range centers {
		require.NoError(t, db.Create(&centers[i]).Error)
	}

	items, total, err := repo.Search(ctx, CoachingCenterFilter{Subject: "physics"})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, "prima", items[0].Slug)
	require.Equal(t, []string{"math", "physics"}, items[0].Subjects)

	verified := true
	items, total, err = repo.Search(ctx, CoachingCenterFilter{City: "bandung", Verified: &verified})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "prima", items[0].Slug)

	center, err := repo.GetBySlug(ctx, "lingua")
	require.NoError(t, err)
	require.Equal(t, "Lingua House", center.Name)

	_, err = repo.GetBySlug(ctx, "missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
