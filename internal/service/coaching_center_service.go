package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/coachhub-api/internal/dto"
	"github.com/noah-isme/coachhub-api/internal/repository"
)

// CoachingCenterService powers public coaching-center discovery.
type CoachingCenterService interface {
	Search(ctx context.Context, req dto.CoachingCenterSearchRequest) (dto.CoachingCenterListResponse, error)
	Get(ctx context.Context, slug string) (dto.CoachingCenterResponse, error)
}

type coachingCenterService struct {
	repo      repository.CoachingCenterRepository
	validator *validator.Validate
	cache     jsonCache
	logger    zerolog.Logger
}

// NewCoachingCenterService builds the discovery service. cache may be nil.
func NewCoachingCenterService(repo repository.CoachingCenterRepository, validate *validator.Validate, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) CoachingCenterService {
	componentLogger := logger.With().Str("component", "coaching_center_service").Logger()
	return &coachingCenterService{
		repo:      repo,
		validator: validate,
		cache:     newJSONCache(cache, "coaching_center_search", ttl, componentLogger),
		logger:    componentLogger,
	}
}

func (s *coachingCenterService) Search(ctx context.Context, req dto.CoachingCenterSearchRequest) (dto.CoachingCenterListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CoachingCenterListResponse{}, err
	}

	page, pageSize := dto.NormalizePage(req.Page, req.PageSize, 12, 50)
	filter := repository.CoachingCenterFilter{
		Search:    strings.TrimSpace(req.Query),
		City:      strings.TrimSpace(req.City),
		Subject:   strings.ToLower(strings.TrimSpace(req.Subject)),
		MinRating: req.MinRating,
		Verified:  req.Verified,
		Sort:      req.Sort,
		Page:      page,
		PageSize:  pageSize,
	}

	key := searchCacheKey(filter)
	var cached dto.CoachingCenterListResponse
	if s.cache.get(ctx, key, &cached) {
		cached.CacheHit = true
		return cached, nil
	}

	centers, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return dto.CoachingCenterListResponse{}, err
	}

	items := make([]dto.CoachingCenterResponse, 0, len(centers))
	for _, center := range centers {
		items = append(items, dto.NewCoachingCenterResponse(center))
	}

	response := dto.CoachingCenterListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}
	s.cache.set(ctx, key, response)

	return response, nil
}

func (s *coachingCenterService) Get(ctx context.Context, slug string) (dto.CoachingCenterResponse, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return dto.CoachingCenterResponse{}, ErrCoachingCenterNotFound
	}

	center, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CoachingCenterResponse{}, ErrCoachingCenterNotFound
		}
		return dto.CoachingCenterResponse{}, err
	}

	return dto.NewCoachingCenterResponse(center), nil
}

func searchCacheKey(filter repository.CoachingCenterFilter) string {
	payload, _ := json.Marshal(filter)
	sum := sha256.Sum256(payload)
	return "coaching_centers:search:" + hex.EncodeToString(sum[:16])
}
