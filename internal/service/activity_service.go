package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/coachhub-api/internal/dto"
	"github.com/noah-isme/coachhub-api/internal/models"
	"github.com/noah-isme/coachhub-api/internal/repository"
)

// ActivityActor represents the authenticated staff member performing an action.
type ActivityActor struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the actor bypasses ownership checks.
func (a ActivityActor) IsAdmin() bool {
	return strings.EqualFold(a.Role, "admin")
}

// IsStaff reports whether the actor is a teacher or an admin.
func (a ActivityActor) IsStaff() bool {
	return a.IsAdmin() || strings.EqualFold(a.Role, "teacher")
}

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	ActorID    uint
	ActorRole  string
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

// ActivityRecorder defines behaviour for recording activity logs.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.ActivityLogResponse, error)
}

// ActivityService exposes methods to query and persist activity logs.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, actor ActivityActor, req dto.ActivityLogListRequest) (dto.ActivityLogListResponse, error)
}

type activityService struct {
	repo      repository.ActivityLogRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewActivityService constructs the activity log service.
func NewActivityService(repo repository.ActivityLogRepository, validator *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:      repo,
		validator: validator,
		logger:    logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityLogResponse, error) {
	if strings.TrimSpace(entry.Action) == "" {
		return dto.ActivityLogResponse{}, fmt.Errorf("action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return dto.ActivityLogResponse{}, fmt.Errorf("entity type is required")
	}

	model := models.ActivityLog{
		ActorID:    entry.ActorID,
		ActorRole:  normalizeRole(entry.ActorRole),
		Action:     strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:   entry.EntityID,
		Metadata:   sanitizeMetadata(entry.Metadata),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Str("action", model.Action).Msg("failed to persist activity log")
		return dto.ActivityLogResponse{}, err
	}

	return newActivityLogResponse(model), nil
}

// List returns audit entries. Teachers only see their own actions; admins see everything.
func (s *activityService) List(ctx context.Context, actor ActivityActor, req dto.ActivityLogListRequest) (dto.ActivityLogListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityLogListResponse{}, err
	}

	page, pageSize := dto.NormalizePage(req.Page, req.PageSize, 20, 100)
	filter := repository.ActivityLogFilter{
		Page:       page,
		PageSize:   pageSize,
		Action:     strings.ToLower(strings.TrimSpace(req.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(req.EntityType)),
	}
	if !actor.IsAdmin() {
		actorID := actor.ID
		filter.ActorID = &actorID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityLogListResponse{}, err
	}

	items := make([]dto.ActivityLogResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, newActivityLogResponse(entry))
	}

	return dto.ActivityLogListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func newActivityLogResponse(model models.ActivityLog) dto.ActivityLogResponse {
	metadata := map[string]interface{}(model.Metadata)
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return dto.ActivityLogResponse{
		ID:         model.ID,
		ActorID:    model.ActorID,
		ActorRole:  model.ActorRole,
		Action:     model.Action,
		EntityType: model.EntityType,
		EntityID:   model.EntityID,
		Metadata:   metadata,
		CreatedAt:  model.CreatedAt,
	}
}

// recordActivity writes an audit entry without failing the calling operation.
func recordActivity(ctx context.Context, recorder ActivityRecorder, logger zerolog.Logger, entry ActivityEntry) {
	if recorder == nil {
		return
	}
	if _, err := recorder.Record(ctx, entry); err != nil {
		logger.Warn().Err(err).Str("action", entry.Action).Msg("failed to record activity")
	}
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") || strings.Contains(lower, "token") || strings.Contains(lower, "private") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return "system"
	}
	return r
}
