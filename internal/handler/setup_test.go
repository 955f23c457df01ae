package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/coachhub-api/internal/config"
	"github.com/noah-isme/coachhub-api/internal/database"
	"github.com/noah-isme/coachhub-api/internal/dto"
	"github.com/noah-isme/coachhub-api/internal/handler"
	"github.com/noah-isme/coachhub-api/internal/middleware"
	"github.com/noah-isme/coachhub-api/internal/models"
	"github.com/noah-isme/coachhub-api/internal/repository"
	"github.com/noah-isme/coachhub-api/internal/router"
	"github.com/noah-isme/coachhub-api/internal/service"
	"github.com/noah-isme/coachhub-api/internal/validation"
)

const (
	testSecret  = "handler-test-secret"
	testClassID = 10
	teacherID   = 2
)

type testApp struct {
	app *fiber.App
	db  *gorm.DB
}

type envelope[T any] struct {
	Success          bool                    `json:"success"`
	Data             T                       `json:"data"`
	Message          string                  `json:"message"`
	Error            string                  `json:"error"`
	ValidationErrors []validation.FieldError `json:"validation_errors"`
	Meta             *dto.PaginationMeta     `json:"meta"`
}

func setupApp(t *testing.T) *testApp {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	validator := validation.New()
	log := zerolog.Nop()

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	fileRepo := repository.NewSubmissionFileRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), validator.Validate, log)
	statisticsService := service.NewStatisticsService(assignmentRepo, submissionRepo, enrollmentRepo, nil, time.Minute, log)
	assignmentService := service.NewAssignmentService(assignmentRepo, validator.Validate, activityService, statisticsService, log)
	submissionService := service.NewSubmissionService(assignmentRepo, submissionRepo, fileRepo, enrollmentRepo, statisticsService, nil, validator.Validate, log)
	gradingService := service.NewGradingService(submissionRepo, assignmentRepo, statisticsService, nil, activityService, validator.Validate, log)
	attachmentService := service.NewAttachmentService(nil, fileRepo, submissionRepo, assignmentRepo, enrollmentRepo, 1<<20, log)
	centerService := service.NewCoachingCenterService(repository.NewCoachingCenterRepository(db), validator.Validate, nil, time.Minute, log)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "CoachHub Test", AppEnv: "test"}, router.Dependencies{
		AssignmentHandler:     handler.NewAssignmentHandler(assignmentService, statisticsService, validator, log),
		SubmissionHandler:     handler.NewSubmissionHandler(submissionService, validator, log),
		GradingHandler:        handler.NewGradingHandler(submissionService, gradingService, validator, log),
		AttachmentHandler:     handler.NewAttachmentHandler(attachmentService, validator, log),
		CoachingCenterHandler: handler.NewCoachingCenterHandler(centerService, validator, log),
		ActivityHandler:       handler.NewActivityHandler(activityService, validator, log),
		JWTMiddleware:         middleware.JWTProtected(testSecret),
	})

	return &testApp{app: app, db: db}
}

func bearer(t *testing.T, id uint, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(id), 10),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func (a *testApp) do(t *testing.T, method, path, auth string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(fiber.HeaderAuthorization, auth)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (a *testApp) seedStudent(t *testing.T, name string) models.Student {
	t.Helper()
	student := models.Student{Name: name, Email: strings.ToLower(name) + "@example.com"}
	require.NoError(t, a.db.Create(&student).Error)
	require.NoError(t, a.db.Create(&models.ClassEnrollment{
		ClassID:   testClassID,
		StudentID: student.ID,
		Status:    models.EnrollmentStatusActive,
	}).Error)
	return student
}

// createPublishedAssignment creates a text assignment due tomorrow through the API and
// publishes it.
func (a *testApp) createPublishedAssignment(t *testing.T, title string) dto.AssignmentResponse {
	t.Helper()
	auth := bearer(t, teacherID, middleware.RoleTeacher)

	resp := a.do(t, http.MethodPost, "/api/v1/teacher/assignments", auth, map[string]interface{}{
		"class_id":                testClassID,
		"title":                   title,
		"description":             "Answer every question.",
		"submission_type":         "text",
		"max_score":               100,
		"max_submissions":         2,
		"allow_late_submission":   true,
		"late_penalty_percentage": 10,
		"due_date":                time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created envelope[dto.AssignmentResponse]
	decodeResponse(t, resp, &created)
	require.Equal(t, "draft", created.Data.Status)

	resp = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/teacher/assignments/%d/publish", created.Data.ID), auth, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var published envelope[dto.AssignmentResponse]
	decodeResponse(t, resp, &published)
	require.Equal(t, "published", published.Data.Status)
	return published.Data
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}
