package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/coachhub-api/internal/dto"
	"github.com/noah-isme/coachhub-api/internal/lifecycle"
	"github.com/noah-isme/coachhub-api/internal/models"
	"github.com/noah-isme/coachhub-api/internal/observability"
	"github.com/noah-isme/coachhub-api/internal/repository"
)

// SubmissionService coordinates the student side of the submission lifecycle.
type SubmissionService interface {
	Submit(ctx context.Context, payload dto.SubmissionRequest) (dto.SubmissionResponse, error)
	RequestRegrade(ctx context.Context, submissionID, studentID uint, payload dto.RegradeRequestPayload) (dto.SubmissionResponse, error)
	Eligibility(ctx context.Context, assignmentID, studentID uint) (dto.EligibilityResponse, error)
	ListForStudent(ctx context.Context, studentID, classID uint) ([]dto.StudentAssignmentView, error)
	ListAttempts(ctx context.Context, assignmentID, studentID uint) ([]dto.SubmissionResponse, error)
	ListForAssignment(ctx context.Context, req dto.SubmissionListRequest) (dto.SubmissionListResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	files       repository.SubmissionFileRepository
	enrollments repository.EnrollmentRepository
	stats       StatisticsInvalidator
	events      EventPublisher
	validator   *validator.Validate
	textPolicy  *bluemonday.Policy
	plainPolicy *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService creates a submission service instance. stats and events may be nil.
func NewSubmissionService(
	assignments repository.AssignmentRepository,
	submissions repository.SubmissionRepository,
	files repository.SubmissionFileRepository,
	enrollments repository.EnrollmentRepository,
	stats StatisticsInvalidator,
	events EventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	if events == nil {
		events = NopEventPublisher()
	}
	return &submissionService{
		assignments: assignments,
		submissions: submissions,
		files:       files,
		enrollments: enrollments,
		stats:       stats,
		events:      events,
		validator:   validate,
		textPolicy:  bluemonday.UGCPolicy(),
		plainPolicy: bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/coachhub-api/internal/service/submission"),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, payload dto.SubmissionRequest) (dto.SubmissionResponse, error) {
	operation := "submission.save_draft"
	if payload.IsFinal {
		operation = "submission.submit"
	}
	ctx, span := s.tracer.Start(ctx, operation)
	defer span.End()
	span.SetAttributes(
		attribute.Int64("submission.assignment_id", int64(payload.AssignmentID)),
		attribute.Int64("submission.student_id", int64(payload.StudentID)),
		attribute.Bool("submission.final", payload.IsFinal),
	)

	fail := func(err error, status string) (dto.SubmissionResponse, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return dto.SubmissionResponse{}, err
	}

	if err := s.validator.Struct(payload); err != nil {
		return fail(err, "validation_failed")
	}

	assignment, err := s.loadAssignment(ctx, payload.AssignmentID)
	if err != nil {
		return fail(err, "assignment_lookup_failed")
	}
	if assignment.ClassID != payload.ClassID {
		return fail(ErrClassMismatch, "class_mismatch")
	}
	if err := s.ensureEnrolled(ctx, assignment.ClassID, payload.StudentID); err != nil {
		return fail(err, "not_enrolled")
	}

	lastFinal, err := s.latestFinal(ctx, assignment.ID, payload.StudentID)
	if err != nil {
		return fail(err, "latest_final_lookup_failed")
	}

	now := s.now()
	var eligibility lifecycle.Eligibility
	if payload.IsFinal {
		eligibility = lifecycle.CheckEligibility(assignment, lastFinal, now)
	} else {
		eligibility = lifecycle.CheckDraftEligibility(assignment, now)
	}
	if !eligibility.Allowed {
		observability.EligibilityRejections().WithLabelValues(rejectionLabel(eligibility.Reason)).Inc()
		return fail(eligibility.Reason, "ineligible")
	}

	submission, err := s.workingCopy(ctx, assignment, payload)
	if err != nil {
		return fail(err, "draft_lookup_failed")
	}

	if payload.SubmissionText != nil {
		submission.SubmissionText = strings.TrimSpace(s.textPolicy.Sanitize(*payload.SubmissionText))
	}
	var file *models.SubmissionFile
	if payload.SubmissionFileID != nil {
		loaded, err := s.loadOwnedFile(ctx, *payload.SubmissionFileID, assignment.ID, payload.StudentID)
		if err != nil {
			return fail(err, "file_check_failed")
		}
		file = &loaded
		submission.SubmissionFileID = &loaded.ID
	}

	if payload.IsFinal {
		if err := requireContent(assignment, submission); err != nil {
			return fail(err, "content_missing")
		}
	}

	submission.AttemptNumber = lifecycle.NextAttemptNumber(lastFinal)
	submission.GradingStatus = models.GradingStatusNotGraded

	if payload.IsFinal {
		late, minutes := lifecycle.ComputeLateness(assignment.DueDate, now)
		submittedAt := now
		submission.IsFinal = true
		submission.IsLate = late
		submission.LateMinutes = minutes
		submission.SubmittedAt = &submittedAt
		err = s.submissions.SaveFinal(ctx, &submission)
	} else {
		submission.IsFinal = false
		submission.IsLate = false
		submission.LateMinutes = 0
		err = s.submissions.SaveDraft(ctx, &submission)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if payload.IsFinal {
				return fail(ErrFinalSubmissionExists, "duplicate_attempt")
			}
			return fail(ErrDraftConflict, "duplicate_draft")
		}
		return fail(err, "persist_failed")
	}

	kind := "draft"
	if submission.IsFinal {
		kind = "final"
	}
	observability.Submissions().WithLabelValues(kind, strconv.FormatBool(submission.IsLate)).Inc()
	span.SetAttributes(
		attribute.Int("submission.attempt", submission.AttemptNumber),
		attribute.Bool("submission.late", submission.IsLate),
		attribute.Int("submission.late_minutes", submission.LateMinutes),
	)

	if s.stats != nil {
		s.stats.Invalidate(ctx, assignment.ID)
	}

	if submission.IsFinal {
		s.events.Publish(ctx, newSubmissionEvent(EventSubmissionFinalized, submission))
		s.logger.Info().
			Uint("submission_id", submission.ID).
			Uint("assignment_id", assignment.ID).
			Uint("student_id", submission.StudentID).
			Int("attempt", submission.AttemptNumber).
			Bool("late", submission.IsLate).
			Msg("final submission recorded")
	}

	submission.File = file
	span.SetStatus(codes.Ok, kind)
	return dto.NewSubmissionResponse(submission), nil
}

// workingCopy returns the student's draft when one exists, otherwise a fresh row.
func (s *submissionService) workingCopy(ctx context.Context, assignment models.Assignment, payload dto.SubmissionRequest) (models.Submission, error) {
	draft, err := s.submissions.FindDraft(ctx, assignment.ID, payload.StudentID)
	if err == nil {
		return draft, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Submission{}, err
	}

	return models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    payload.StudentID,
		ClassID:      assignment.ClassID,
	}, nil
}

func requireContent(assignment models.Assignment, submission models.Submission) error {
	switch assignment.SubmissionType {
	case models.SubmissionTypeFile:
		if submission.SubmissionFileID == nil {
			return ErrFileRequired
		}
	default:
		if strings.TrimSpace(submission.SubmissionText) == "" {
			return ErrTextRequired
		}
	}
	return nil
}

func (s *submissionService) RequestRegrade(ctx context.Context, submissionID, studentID uint, payload dto.RegradeRequestPayload) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if submission.StudentID != studentID {
		return dto.SubmissionResponse{}, ErrSubmissionForbidden
	}
	if submission.GradingStatus != models.GradingStatusManualGraded {
		return dto.SubmissionResponse{}, ErrRegradeNotAllowed
	}

	reason := strings.TrimSpace(s.plainPolicy.Sanitize(payload.Reason))
	if reason == "" {
		return dto.SubmissionResponse{}, ErrRegradeReasonEmpty
	}

	if err := submission.AppendRegradeRequest(models.RegradeRequest{
		Reason:      reason,
		RequestedAt: s.now().UTC(),
		Status:      models.RegradeStatusPending,
	}); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.events.Publish(ctx, newSubmissionEvent(EventSubmissionRegradeRequested, submission))
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Int("pending_requests", len(submission.RegradeLog())).
		Msg("regrade requested")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Eligibility(ctx context.Context, assignmentID, studentID uint) (dto.EligibilityResponse, error) {
	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return dto.EligibilityResponse{}, err
	}
	if err := s.ensureEnrolled(ctx, assignment.ClassID, studentID); err != nil {
		return dto.EligibilityResponse{}, err
	}

	lastFinal, err := s.latestFinal(ctx, assignment.ID, studentID)
	if err != nil {
		return dto.EligibilityResponse{}, err
	}

	result := lifecycle.CheckEligibility(assignment, lastFinal, s.now())
	return dto.EligibilityResponse{
		AssignmentID:      assignment.ID,
		Allowed:           result.Allowed,
		Late:              result.Late,
		Message:           result.Message(),
		NextAttempt:       lifecycle.NextAttemptNumber(lastFinal),
		RemainingAttempts: lifecycle.RemainingAttempts(assignment, lastFinal),
	}, nil
}

func (s *submissionService) ListForStudent(ctx context.Context, studentID, classID uint) ([]dto.StudentAssignmentView, error) {
	if err := s.ensureEnrolled(ctx, classID, studentID); err != nil {
		return nil, err
	}

	assignments, _, err := s.assignments.List(ctx, repository.AssignmentFilter{
		ClassID:  &classID,
		Statuses: []models.AssignmentStatus{models.AssignmentStatusPublished, models.AssignmentStatusClosed},
		Sort:     "due_date",
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	visible := make([]models.Assignment, 0, len(assignments))
	ids := make([]uint, 0, len(assignments))
	for _, assignment := range assignments {
		if !lifecycle.IsVisible(assignment, now) {
			continue
		}
		visible = append(visible, assignment)
		ids = append(ids, assignment.ID)
	}

	submissions, err := s.submissions.ListByStudent(ctx, studentID, ids)
	if err != nil {
		return nil, err
	}
	byAssignment := make(map[uint][]models.Submission, len(ids))
	for _, submission := range submissions {
		byAssignment[submission.AssignmentID] = append(byAssignment[submission.AssignmentID], submission)
	}

	views := make([]dto.StudentAssignmentView, 0, len(visible))
	for _, assignment := range visible {
		rows := byAssignment[assignment.ID]

		var latest *models.Submission
		if collapsed := lifecycle.LatestPerStudent(rows); len(collapsed) > 0 {
			latest = &collapsed[0]
		}
		lastFinal := latestFinalOf(rows)

		status := lifecycle.DeriveStatus(latest, assignment, now)
		view := dto.StudentAssignmentView{
			Assignment:        dto.NewAssignmentResponse(assignment),
			Status:            status,
			StatusLabel:       status.Label(),
			RemainingAttempts: lifecycle.RemainingAttempts(assignment, lastFinal),
		}
		if lastFinal != nil {
			view.AttemptsUsed = lastFinal.AttemptNumber
		}
		if latest != nil {
			response := dto.NewSubmissionResponse(*latest)
			view.LatestSubmission = &response
		}
		views = append(views, view)
	}

	return views, nil
}

func latestFinalOf(rows []models.Submission) *models.Submission {
	var latest *models.Submission
	for i := range rows {
		if !rows[i].IsFinal {
			continue
		}
		if latest == nil || rows[i].AttemptNumber > latest.AttemptNumber {
			latest = &rows[i]
		}
	}
	return latest
}

func (s *submissionService) ListAttempts(ctx context.Context, assignmentID, studentID uint) ([]dto.SubmissionResponse, error) {
	if _, err := s.loadAssignment(ctx, assignmentID); err != nil {
		return nil, err
	}

	attempts, err := s.submissions.ListAttempts(ctx, assignmentID, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(attempts), nil
}

func (s *submissionService) ListForAssignment(ctx context.Context, req dto.SubmissionListRequest) (dto.SubmissionListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SubmissionListResponse{}, err
	}

	page, pageSize := dto.NormalizePage(req.Page, req.PageSize, 20, 100)
	filter := repository.SubmissionFilter{
		AssignmentID:  req.AssignmentID,
		StudentID:     req.StudentID,
		ClassID:       req.ClassID,
		GradingStatus: req.GradingStatus,
		Page:          page,
		PageSize:      pageSize,
	}
	if !req.IncludeDrafts {
		final := true
		filter.IsFinal = &final
	}

	submissions, total, err := s.submissions.List(ctx, filter)
	if err != nil {
		return dto.SubmissionListResponse{}, err
	}

	items := make([]dto.SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		items = append(items, dto.NewTeacherSubmissionResponse(submission))
	}

	return dto.SubmissionListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.loadSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	return dto.NewTeacherSubmissionResponse(submission), nil
}

func (s *submissionService) loadAssignment(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}
	return assignment, nil
}

func (s *submissionService) loadSubmission(ctx context.Context, id uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}
	return submission, nil
}

func (s *submissionService) latestFinal(ctx context.Context, assignmentID, studentID uint) (*models.Submission, error) {
	submission, err := s.submissions.LatestFinal(ctx, assignmentID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &submission, nil
}

func (s *submissionService) ensureEnrolled(ctx context.Context, classID, studentID uint) error {
	enrolled, err := s.enrollments.IsEnrolled(ctx, classID, studentID)
	if err != nil {
		return err
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	return nil
}

func (s *submissionService) loadOwnedFile(ctx context.Context, fileID, assignmentID, studentID uint) (models.SubmissionFile, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.SubmissionFile{}, ErrFileNotFound
		}
		return models.SubmissionFile{}, err
	}
	if file.OwnerID != studentID || file.AssignmentID != assignmentID {
		return models.SubmissionFile{}, ErrFileForbidden
	}
	return file, nil
}

func rejectionLabel(reason error) string {
	switch {
	case errors.Is(reason, lifecycle.ErrNotPublished):
		return "not_published"
	case errors.Is(reason, lifecycle.ErrNotVisible):
		return "not_visible"
	case errors.Is(reason, lifecycle.ErrSubmissionClosed):
		return "closed"
	case errors.Is(reason, lifecycle.ErrLateNotAllowed):
		return "late_not_allowed"
	case errors.Is(reason, lifecycle.ErrMaxSubmissionsReached):
		return "max_submissions"
	default:
		return "other"
	}
}
