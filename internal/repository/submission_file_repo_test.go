package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/coachhub-api/internal/models"
)

func TestSubmissionFileRepositoryDeleteDetachesDrafts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionFileRepository(db)
	ctx := context.Background()
	assignment := seedAssignment(t, db, nil)
	student := seedStudent(t, db, "Eka")

	file := models.SubmissionFile{
		AssignmentID: assignment.ID,
		OwnerID:      student.ID,
		FileName:     "notes.pdf",
		StoragePath:  "coachhub/submissions/notes",
		ResourceType: "raw",
		MimeType:     "application/pdf",
		SizeBytes:    512,
	}
	require.NoError(t, repo.Create(ctx, &file))

	draft := models.Submission{
		AssignmentID:     assignment.ID,
		StudentID:        student.ID,
		ClassID:          assignment.ClassID,
		AttemptNumber:    1,
		SubmissionFileID: &file.ID,
		GradingStatus:    models.GradingStatusNotGraded,
	}
	require.NoError(t, db.Omit("Assignment", "Student", "File").Create(&draft).Error)

	require.NoError(t, repo.Delete(ctx, file.ID))

	var stored models.Submission
	require.NoError(t, db.First(&stored, draft.ID).Error)
	require.Nil(t, stored.SubmissionFileID)

	_, err := repo.GetByID(ctx, file.ID)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	require.ErrorIs(t, repo.Delete(ctx, file.ID), gorm.ErrRecordNotFound)
}
