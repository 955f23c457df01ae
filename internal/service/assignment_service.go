package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/coachhub-api/internal/dto"
	"github.com/noah-isme/coachhub-api/internal/lifecycle"
	"github.com/noah-isme/coachhub-api/internal/models"
	"github.com/noah-isme/coachhub-api/internal/repository"
)

// AssignmentService exposes teacher-side assignment management.
type AssignmentService interface {
	List(ctx context.Context, req dto.AssignmentListRequest, actor ActivityActor) (dto.AssignmentListResponse, error)
	Get(ctx context.Context, id uint, actor ActivityActor) (dto.AssignmentResponse, error)
	Create(ctx context.Context, payload dto.AssignmentCreateRequest, actor ActivityActor) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest, actor ActivityActor) (dto.AssignmentResponse, error)
	Publish(ctx context.Context, id uint, actor ActivityActor) (dto.AssignmentResponse, error)
	Close(ctx context.Context, id uint, actor ActivityActor) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

type assignmentService struct {
	repo      repository.AssignmentRepository
	validator *validator.Validate
	activity  ActivityRecorder
	stats     StatisticsInvalidator
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewAssignmentService wires a new assignment service. stats may be nil.
func NewAssignmentService(repo repository.AssignmentRepository, validate *validator.Validate, activity ActivityRecorder, stats StatisticsInvalidator, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		stats:     stats,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) List(ctx context.Context, req dto.AssignmentListRequest, actor ActivityActor) (dto.AssignmentListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AssignmentListResponse{}, err
	}

	page, pageSize := dto.NormalizePage(req.Page, req.PageSize, 20, 100)
	filter := repository.AssignmentFilter{
		ClassID:  req.ClassID,
		Search:   strings.TrimSpace(req.Search),
		Sort:     req.Sort,
		Page:     page,
		PageSize: pageSize,
	}
	if req.Status != "" {
		filter.Statuses = []models.AssignmentStatus{models.AssignmentStatus(req.Status)}
	}
	if !actor.IsAdmin() {
		teacherID := actor.ID
		filter.TeacherID = &teacherID
	}

	assignments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AssignmentListResponse{}, err
	}

	return dto.AssignmentListResponse{
		Items:      dto.NewAssignmentResponseSlice(assignments),
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *assignmentService) Get(ctx context.Context, id uint, actor ActivityActor) (dto.AssignmentResponse, error) {
	assignment, err := s.load(ctx, id, actor)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest, actor ActivityActor) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	dueDate, err := dto.ParseTimestamp(payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("%w: due_date", ErrInvalidDate)
	}
	closeDate, err := dto.ParseOptionalTimestamp(payload.CloseDate)
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("%w: close_date", ErrInvalidDate)
	}
	publishAt, err := dto.ParseOptionalTimestamp(payload.PublishAt)
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("%w: publish_at", ErrInvalidDate)
	}
	if err := lifecycle.ValidateSchedule(publishAt, dueDate, closeDate); err != nil {
		return dto.AssignmentResponse{}, err
	}

	rubric, err := parseRubric(payload.Rubric)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	visible := true
	if payload.IsVisible != nil {
		visible = *payload.IsVisible
	}

	assignment := models.Assignment{
		ClassID:               payload.ClassID,
		BranchID:              payload.BranchID,
		TeacherID:             actor.ID,
		Title:                 strings.TrimSpace(payload.Title),
		Description:           s.sanitizeDescription(payload.Description),
		Status:                models.AssignmentStatusDraft,
		SubmissionType:        models.SubmissionType(payload.SubmissionType),
		MaxScore:              payload.MaxScore,
		MaxSubmissions:        payload.MaxSubmissions,
		AllowLateSubmission:   payload.AllowLateSubmission,
		LatePenaltyPercentage: payload.LatePenaltyPercentage,
		IsVisible:             visible,
		DueDate:               dueDate,
		CloseDate:             closeDate,
		PublishAt:             publishAt,
		MaxFileSize:           payload.MaxFileSize,
	}
	assignment.SetAllowedExtensions(payload.AllowedExtensions)
	assignment.SetRubric(rubric)

	if err := s.repo.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.record(ctx, actor, models.ActivityAssignmentCreated, assignment, map[string]interface{}{
		"class_id": assignment.ClassID,
		"title":    assignment.Title,
	})
	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("teacher_id", actor.ID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest, actor ActivityActor) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.load(ctx, id, actor)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	changed := payload.ChangedFields()
	if len(changed) == 0 {
		return dto.NewAssignmentResponse(assignment), nil
	}
	if err := lifecycle.CheckUpdate(assignment, changed); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if err := s.applyUpdate(&assignment, payload); err != nil {
		return dto.AssignmentResponse{}, err
	}
	if err := lifecycle.ValidateSchedule(assignment.PublishAt, assignment.DueDate, assignment.CloseDate); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if err := s.repo.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}
	if s.stats != nil {
		s.stats.Invalidate(ctx, assignment.ID)
	}

	s.record(ctx, actor, models.ActivityAssignmentUpdated, assignment, map[string]interface{}{
		"fields": changed,
	})

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) applyUpdate(assignment *models.Assignment, payload dto.AssignmentUpdateRequest) error {
	if payload.Title != nil {
		assignment.Title = strings.TrimSpace(*payload.Title)
	}
	if payload.Description != nil {
		assignment.Description = s.sanitizeDescription(*payload.Description)
	}
	if payload.SubmissionType != nil {
		assignment.SubmissionType = models.SubmissionType(*payload.SubmissionType)
	}
	if payload.MaxScore != nil {
		assignment.MaxScore = *payload.MaxScore
	}
	if payload.MaxSubmissions != nil {
		assignment.MaxSubmissions = *payload.MaxSubmissions
	}
	if payload.AllowLateSubmission != nil {
		assignment.AllowLateSubmission = *payload.AllowLateSubmission
	}
	if payload.LatePenaltyPercentage != nil {
		assignment.LatePenaltyPercentage = *payload.LatePenaltyPercentage
	}
	if payload.IsVisible != nil {
		assignment.IsVisible = *payload.IsVisible
	}
	if payload.MaxFileSize != nil {
		assignment.MaxFileSize = *payload.MaxFileSize
	}
	if payload.AllowedExtensions != nil {
		assignment.SetAllowedExtensions(payload.AllowedExtensions)
	}

	if payload.DueDate != nil {
		dueDate, err := dto.ParseTimestamp(*payload.DueDate)
		if err != nil {
			return fmt.Errorf("%w: due_date", ErrInvalidDate)
		}
		assignment.DueDate = dueDate
	}
	if payload.CloseDate != nil {
		closeDate, err := dto.ParseOptionalTimestamp(payload.CloseDate)
		if err != nil {
			return fmt.Errorf("%w: close_date", ErrInvalidDate)
		}
		assignment.CloseDate = closeDate
	}
	if payload.PublishAt != nil {
		publishAt, err := dto.ParseOptionalTimestamp(payload.PublishAt)
		if err != nil {
			return fmt.Errorf("%w: publish_at", ErrInvalidDate)
		}
		assignment.PublishAt = publishAt
	}

	if len(payload.Rubric) > 0 {
		rubric, err := parseRubric(payload.Rubric)
		if err != nil {
			return err
		}
		assignment.SetRubric(rubric)
	}

	return nil
}

func (s *assignmentService) Publish(ctx context.Context, id uint, actor ActivityActor) (dto.AssignmentResponse, error) {
	return s.transition(ctx, id, actor, models.AssignmentStatusPublished, models.ActivityAssignmentPublished)
}

func (s *assignmentService) Close(ctx context.Context, id uint, actor ActivityActor) (dto.AssignmentResponse, error) {
	return s.transition(ctx, id, actor, models.AssignmentStatusClosed, models.ActivityAssignmentClosed)
}

func (s *assignmentService) transition(ctx context.Context, id uint, actor ActivityActor, target models.AssignmentStatus, action string) (dto.AssignmentResponse, error) {
	assignment, err := s.load(ctx, id, actor)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	from := assignment.Status
	next, err := lifecycle.Transition(from, target)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	assignment.Status = next

	if err := s.repo.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.record(ctx, actor, action, assignment, map[string]interface{}{
		"from": string(from),
		"to":   string(next),
	})
	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Str("from", string(from)).
		Str("to", string(next)).
		Msg("assignment status changed")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	assignment, err := s.load(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := lifecycle.CanDelete(assignment); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}
	if s.stats != nil {
		s.stats.Invalidate(ctx, assignment.ID)
	}

	s.record(ctx, actor, models.ActivityAssignmentDeleted, assignment, map[string]interface{}{
		"title": assignment.Title,
	})
	return nil
}

func (s *assignmentService) load(ctx context.Context, id uint, actor ActivityActor) (models.Assignment, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}
	if !actor.IsAdmin() && assignment.TeacherID != actor.ID {
		return models.Assignment{}, ErrAssignmentForbidden
	}
	return assignment, nil
}

func (s *assignmentService) sanitizeDescription(description string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(description))
}

func (s *assignmentService) record(ctx context.Context, actor ActivityActor, action string, assignment models.Assignment, metadata map[string]interface{}) {
	entityID := assignment.ID
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "assignment",
		EntityID:   &entityID,
		Metadata:   metadata,
	})
}
