package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/coachhub-api/internal/models"
	"github.com/noah-isme/coachhub-api/internal/repository"
	"github.com/noah-isme/coachhub-api/internal/validation"
)

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

const (
	testClassID   uint = 10
	testTeacherID uint = 2
)

var teacher = ActivityActor{ID: testTeacherID, Role: "teacher"}

type fixture struct {
	db          *gorm.DB
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	files       repository.SubmissionFileRepository
	enrollments repository.EnrollmentRepository
	activityLog repository.ActivityLogRepository
	validate    *validator.Validate
	events      *recordingPublisher
	stats       *recordingInvalidator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
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

	return &fixture{
		db:          db,
		assignments: repository.NewAssignmentRepository(db),
		submissions: repository.NewSubmissionRepository(db),
		files:       repository.NewSubmissionFileRepository(db),
		enrollments: repository.NewEnrollmentRepository(db),
		activityLog: repository.NewActivityLogRepository(db),
		validate:    validation.New().Validate,
		events:      &recordingPublisher{},
		stats:       &recordingInvalidator{},
	}
}

// seedAssignment creates a published text assignment due at baseTime with two attempts
// and a 10% late penalty.
func (f *fixture) seedAssignment(t *testing.T, mutate func(*models.Assignment)) models.Assignment {
	t.Helper()
	assignment := models.Assignment{
		ClassID:               testClassID,
		TeacherID:             testTeacherID,
		Title:                 "Essay",
		Status:                models.AssignmentStatusPublished,
		SubmissionType:        models.SubmissionTypeText,
		MaxScore:              100,
		MaxSubmissions:        2,
		AllowLateSubmission:   true,
		LatePenaltyPercentage: 10,
		IsVisible:             true,
		DueDate:               baseTime,
	}
	if mutate != nil {
		mutate(&assignment)
	}
	require.NoError(t, f.db.Create(&assignment).Error)
	return assignment
}

// seedStudent creates a student enrolled in the test class.
func (f *fixture) seedStudent(t *testing.T, name string) models.Student {
	t.Helper()
	student := models.Student{Name: name, Email: strings.ToLower(name) + "@example.com"}
	require.NoError(t, f.db.Create(&student).Error)
	require.NoError(t, f.db.Create(&models.ClassEnrollment{
		ClassID:   testClassID,
		StudentID: student.ID,
		Status:    models.EnrollmentStatusActive,
	}).Error)
	return student
}

func (f *fixture) reloadAssignment(t *testing.T, id uint) models.Assignment {
	t.Helper()
	assignment, err := f.assignments.GetByID(context.Background(), id)
	require.NoError(t, err)
	return assignment
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []LifecycleEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event LifecycleEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.Type)
	}
	return types
}

type recordingInvalidator struct {
	mu  sync.Mutex
	ids []uint
}

func (r *recordingInvalidator) Invalidate(_ context.Context, assignmentID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, assignmentID)
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func ptrUint(v uint) *uint {
	return &v
}

func ptrFloat(v float64) *float64 {
	return &v
}

func ptrString(v string) *string {
	return &v
}
