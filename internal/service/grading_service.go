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

// GradingService encapsulates grading workflows for teachers and administrators.
type GradingService interface {
	Grade(ctx context.Context, submissionID uint, payload dto.GradeRequest, actor ActivityActor) (dto.SubmissionResponse, error)
	UpdateGrade(ctx context.Context, submissionID uint, payload dto.UpdateGradeRequest, actor ActivityActor) (dto.SubmissionResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	stats       StatisticsInvalidator
	events      EventPublisher
	activity    ActivityRecorder
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewGradingService constructs the grading service. stats, events and activity may be nil.
func NewGradingService(
	submissions repository.SubmissionRepository,
	assignments repository.AssignmentRepository,
	stats StatisticsInvalidator,
	events EventPublisher,
	activity ActivityRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) GradingService {
	if events == nil {
		events = NopEventPublisher()
	}
	return &gradingService{
		submissions: submissions,
		assignments: assignments,
		stats:       stats,
		events:      events,
		activity:    activity,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/coachhub-api/internal/service/grading"),
		now:         time.Now,
	}
}

func (s *gradingService) Grade(ctx context.Context, submissionID uint, payload dto.GradeRequest, actor ActivityActor) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.grade")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.load(ctx, submissionID, actor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, err
	}
	assignment := submission.Assignment

	if !submission.IsFinal {
		span.SetStatus(codes.Error, "not_final")
		return dto.SubmissionResponse{}, ErrNotFinal
	}

	score := *payload.Score
	if score > assignment.MaxScore+1e-9 {
		span.SetStatus(codes.Error, "score_exceeds_max")
		return dto.SubmissionResponse{}, ErrScoreExceedsMax
	}

	rubricScores, err := checkRubricScores(assignment.RubricCriteria(), payload.RubricScores)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rubric_invalid")
		return dto.SubmissionResponse{}, err
	}

	result := lifecycle.ScoreWithPenalty(score, submission, assignment)
	gradedAt := s.now()
	gradedBy := actor.ID
	feedback := strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))

	submission.Score = &result.Score
	submission.PenaltyApplied = result.Penalty
	submission.GradingStatus = models.GradingStatusManualGraded
	submission.Feedback = feedback
	submission.GradedBy = &gradedBy
	submission.GradedAt = &gradedAt
	if payload.PrivateNotes != nil {
		submission.PrivateNotes = strings.TrimSpace(*payload.PrivateNotes)
	}
	if err := submission.SetRubricScores(rubricScores); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	history := models.SubmissionGradeHistory{
		Score:    result.Score,
		Penalty:  result.Penalty,
		Feedback: feedback,
		GradedBy: gradedBy,
		GradedAt: gradedAt,
	}
	if err := s.submissions.SaveGrade(ctx, &submission, &history); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grade_persist_failed")
		return dto.SubmissionResponse{}, err
	}
	submission.History = append(submission.History, history)

	penalized := result.Penalty > 0
	observability.Grades().WithLabelValues("grade", strconv.FormatBool(penalized)).Inc()
	span.SetAttributes(
		attribute.Float64("grading.raw_score", score),
		attribute.Float64("grading.score", result.Score),
		attribute.Float64("grading.penalty", result.Penalty),
	)

	s.afterGrade(ctx, submission, actor, models.ActivitySubmissionGraded, map[string]interface{}{
		"submission_id": submission.ID,
		"assignment_id": submission.AssignmentID,
		"student_id":    submission.StudentID,
		"raw_score":     score,
		"score":         result.Score,
		"penalty":       result.Penalty,
	})

	span.SetStatus(codes.Ok, "graded")
	return dto.NewTeacherSubmissionResponse(submission), nil
}

// UpdateGrade adjusts an existing grade. The new score is stored as given; the late
// penalty deducted at first grading is not applied again.
func (s *gradingService) UpdateGrade(ctx context.Context, submissionID uint, payload dto.UpdateGradeRequest, actor ActivityActor) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.update")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}
	if payload.IsEmpty() {
		span.SetStatus(codes.Error, "empty_update")
		return dto.SubmissionResponse{}, ErrEmptyGradeUpdate
	}

	submission, err := s.load(ctx, submissionID, actor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, err
	}
	if !submission.IsGraded() || submission.Score == nil {
		span.SetStatus(codes.Error, "not_graded")
		return dto.SubmissionResponse{}, ErrNotGraded
	}

	if payload.Score != nil {
		if *payload.Score > submission.Assignment.MaxScore+1e-9 {
			span.SetStatus(codes.Error, "score_exceeds_max")
			return dto.SubmissionResponse{}, ErrScoreExceedsMax
		}
		score := lifecycle.Round2(*payload.Score)
		submission.Score = &score
	}
	if payload.Feedback != nil {
		submission.Feedback = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Feedback))
	}
	if payload.PrivateNotes != nil {
		submission.PrivateNotes = strings.TrimSpace(*payload.PrivateNotes)
	}

	gradedAt := s.now()
	gradedBy := actor.ID
	submission.GradingStatus = models.GradingStatusManualGraded
	submission.GradedBy = &gradedBy
	submission.GradedAt = &gradedAt

	history := models.SubmissionGradeHistory{
		Score:    *submission.Score,
		Penalty:  submission.PenaltyApplied,
		Feedback: submission.Feedback,
		GradedBy: gradedBy,
		GradedAt: gradedAt,
	}
	if err := s.submissions.SaveGrade(ctx, &submission, &history); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grade_persist_failed")
		return dto.SubmissionResponse{}, err
	}
	submission.History = append(submission.History, history)

	observability.Grades().WithLabelValues("update", strconv.FormatBool(submission.PenaltyApplied > 0)).Inc()

	s.afterGrade(ctx, submission, actor, models.ActivityGradeUpdated, map[string]interface{}{
		"submission_id": submission.ID,
		"assignment_id": submission.AssignmentID,
		"student_id":    submission.StudentID,
		"score":         *submission.Score,
	})

	span.SetStatus(codes.Ok, "updated")
	return dto.NewTeacherSubmissionResponse(submission), nil
}

func (s *gradingService) load(ctx context.Context, submissionID uint, actor ActivityActor) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}
	if !actor.IsAdmin() && submission.Assignment.TeacherID != actor.ID {
		return models.Submission{}, ErrAssignmentForbidden
	}
	return submission, nil
}

func (s *gradingService) afterGrade(ctx context.Context, submission models.Submission, actor ActivityActor, action string, metadata map[string]interface{}) {
	s.recomputeAverage(ctx, submission.AssignmentID)
	if s.stats != nil {
		s.stats.Invalidate(ctx, submission.AssignmentID)
	}
	s.events.Publish(ctx, newSubmissionEvent(EventSubmissionGraded, submission))

	entityID := submission.ID
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "submission",
		EntityID:   &entityID,
		Metadata:   metadata,
	})
}

// recomputeAverage refreshes the assignment average from all graded final submissions.
// Failures are logged and counted; the next grading call repairs the value.
func (s *gradingService) recomputeAverage(ctx context.Context, assignmentID uint) {
	average, err := s.submissions.AverageFinalScore(ctx, assignmentID)
	if err == nil && average != nil {
		rounded := lifecycle.Round2(*average)
		average = &rounded
	}
	if err == nil {
		err = s.assignments.SetAverageScore(ctx, assignmentID, average)
	}
	if err != nil {
		observability.AverageRecomputeErrors().Inc()
		s.logger.Error().Err(err).Uint("assignment_id", assignmentID).Msg("failed to recompute assignment average")
	}
}
