package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/coachhub-api/internal/dto"
	"github.com/noah-isme/coachhub-api/internal/lifecycle"
	"github.com/noah-isme/coachhub-api/internal/repository"
)

// StatisticsInvalidator drops cached aggregates after submissions change.
type StatisticsInvalidator interface {
	Invalidate(ctx context.Context, assignmentID uint)
}

// StatisticsService aggregates submission statistics per assignment.
type StatisticsService interface {
	StatisticsInvalidator
	AssignmentStatistics(ctx context.Context, assignmentID uint, actor ActivityActor) (dto.AssignmentStatisticsResponse, error)
}

type statisticsService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	enrollments repository.EnrollmentRepository
	cache       jsonCache
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewStatisticsService builds the statistics aggregator. cache may be nil.
func NewStatisticsService(assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, enrollments repository.EnrollmentRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StatisticsService {
	componentLogger := logger.With().Str("component", "statistics_service").Logger()
	return &statisticsService{
		assignments: assignments,
		submissions: submissions,
		enrollments: enrollments,
		cache:       newJSONCache(cache, "statistics", ttl, componentLogger),
		logger:      componentLogger,
		tracer:      otel.Tracer("github.com/noah-isme/coachhub-api/internal/service/statistics"),
		now:         time.Now,
	}
}

func statisticsCacheKey(assignmentID uint) string {
	return fmt.Sprintf("stats:assignment:%d", assignmentID)
}

func (s *statisticsService) AssignmentStatistics(ctx context.Context, assignmentID uint, actor ActivityActor) (dto.AssignmentStatisticsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "statistics.assignment")
	defer span.End()
	span.SetAttributes(attribute.Int64("statistics.assignment_id", int64(assignmentID)))

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "assignment_not_found")
			return dto.AssignmentStatisticsResponse{}, ErrAssignmentNotFound
		}
		span.SetStatus(codes.Error, "assignment_lookup_failed")
		return dto.AssignmentStatisticsResponse{}, err
	}
	if !actor.IsAdmin() && assignment.TeacherID != actor.ID {
		span.SetStatus(codes.Error, "forbidden")
		return dto.AssignmentStatisticsResponse{}, ErrAssignmentForbidden
	}

	key := statisticsCacheKey(assignmentID)
	var cached dto.AssignmentStatisticsResponse
	if s.cache.get(ctx, key, &cached) {
		cached.CacheHit = true
		span.SetAttributes(attribute.Bool("statistics.cache_hit", true))
		return cached, nil
	}

	totalStudents, err := s.enrollments.CountActive(ctx, assignment.ClassID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "enrollment_count_failed")
		return dto.AssignmentStatisticsResponse{}, err
	}

	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_list_failed")
		return dto.AssignmentStatisticsResponse{}, err
	}

	response := dto.AssignmentStatisticsResponse{
		AssignmentID:   assignment.ID,
		Title:          assignment.Title,
		PointsPossible: assignment.MaxScore,
		GeneratedAt:    s.now().UTC(),
		Statistics:     lifecycle.ComputeStatistics(submissions, int(totalStudents)),
	}

	s.cache.set(ctx, key, response)
	span.SetAttributes(
		attribute.Int("statistics.total_students", response.TotalStudents),
		attribute.Int("statistics.final_count", response.FinalCount),
	)

	return response, nil
}

func (s *statisticsService) Invalidate(ctx context.Context, assignmentID uint) {
	s.cache.delete(ctx, statisticsCacheKey(assignmentID))
}
