package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/coachhub-api/internal/models"
)

// CoachingCenterFilter narrows discovery queries.
type CoachingCenterFilter struct {
	Search    string
	City      string
	Subject   string
	MinRating float64
	Verified  *bool
	Sort      string
	Page      int
	PageSize  int
}

// CoachingCenterRepository reads coaching center listings.
type CoachingCenterRepository interface {
	Search(ctx context.Context, filter CoachingCenterFilter) ([]models.CoachingCenter, int64, error)
	GetBySlug(ctx context.Context, slug string) (models.CoachingCenter, error)
}

type coachingCenterRepository struct {
	db *gorm.DB
}

// NewCoachingCenterRepository constructs the discovery repository.
func NewCoachingCenterRepository(db *gorm.DB) CoachingCenterRepository {
	return &coachingCenterRepository{db: db}
}

func (r *coachingCenterRepository) Search(ctx context.Context, filter CoachingCenterFilter) ([]models.CoachingCenter, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CoachingCenter{})

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	if city := strings.TrimSpace(filter.City); city != "" {
		query = query.Where("LOWER(city) = ?", strings.ToLower(city))
	}

	if subject := strings.ToLower(strings.TrimSpace(filter.Subject)); subject != "" {
		query = query.Where("subjects LIKE ?", "%,"+subject+",%")
	}

	if filter.MinRating > 0 {
		query = query.Where("rating >= ?", filter.MinRating)
	}

	if filter.Verified != nil {
		query = query.Where("is_verified = ?", *filter.Verified)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query.Order(normalizeCenterSort(filter.Sort)).Order("id ASC"), filter.Page, filter.PageSize)

	var centers []models.CoachingCenter
	if err := query.Find(&centers).Error; err != nil {
		return nil, 0, err
	}

	return centers, total, nil
}

func (r *coachingCenterRepository) GetBySlug(ctx context.Context, slug string) (models.CoachingCenter, error) {
	var center models.CoachingCenter
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&center).Error; err != nil {
		return models.CoachingCenter{}, err
	}
	return center, nil
}

func normalizeCenterSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "name", "name:asc":
		return "name ASC"
	case "-name", "name:desc":
		return "name DESC"
	case "reviews", "-reviews", "review_count:desc":
		return "review_count DESC"
	default:
		return "rating DESC"
	}
}
