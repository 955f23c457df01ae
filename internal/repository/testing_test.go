package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/coachhub-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.ClassEnrollment{},
		&models.Assignment{},
		&models.SubmissionFile{},
		&models.Submission{},
		&models.SubmissionGradeHistory{},
		&models.ActivityLog{},
		&models.CoachingCenter{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedAssignment(t *testing.T, db *gorm.DB, mutate func(*models.Assignment)) models.Assignment {
	t.Helper()
	assignment := models.Assignment{
		ClassID:        10,
		TeacherID:      2,
		Title:          "Essay",
		Status:         models.AssignmentStatusPublished,
		SubmissionType: models.SubmissionTypeText,
		MaxScore:       100,
		MaxSubmissions: 2,
		IsVisible:      true,
		DueDate:        time.Now().Add(24 * time.Hour).UTC(),
	}
	if mutate != nil {
		mutate(&assignment)
	}
	require.NoError(t, db.Create(&assignment).Error)
	return assignment
}

func seedStudent(t *testing.T, db *gorm.DB, name string) models.Student {
	t.Helper()
	student := models.Student{Name: name, Email: strings.ToLower(name) + "@example.com"}
	require.NoError(t, db.Create(&student).Error)
	return student
}
