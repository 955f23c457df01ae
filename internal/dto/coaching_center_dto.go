package dto

import (
	"github.com/noah-isme/coachhub-api/internal/models"
)

// CoachingCenterSearchRequest holds discovery filters.
type CoachingCenterSearchRequest struct {
	Query     string  `query:"q" validate:"omitempty,max=120"`
	City      string  `query:"city" validate:"omitempty,max=120"`
	Subject   string  `query:"subject" validate:"omitempty,max=60"`
	MinRating float64 `query:"min_rating" validate:"omitempty,gte=0,lte=5"`
	Verified  *bool   `query:"verified"`
	Sort      string  `query:"sort" validate:"omitempty,oneof=rating name -name reviews"`
	Page      int     `query:"page" validate:"omitempty,gte=1"`
	PageSize  int     `query:"page_size" validate:"omitempty,gte=1,lte=50"`
}

// CoachingCenterResponse is a public listing.
type CoachingCenterResponse struct {
	ID          uint     `json:"id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	City        string   `json:"city"`
	Address     string   `json:"address"`
	Subjects    []string `json:"subjects"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	IsVerified  bool     `json:"is_verified"`
}

// CoachingCenterListResponse wraps paginated search results.
type CoachingCenterListResponse struct {
	Items      []CoachingCenterResponse `json:"items"`
	Pagination PaginationMeta           `json:"pagination"`
	CacheHit   bool                     `json:"cache_hit"`
}

// NewCoachingCenterResponse converts a listing model.
func NewCoachingCenterResponse(model models.CoachingCenter) CoachingCenterResponse {
	subjects := model.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	return CoachingCenterResponse{
		ID:          model.ID,
		Slug:        model.Slug,
		Name:        model.Name,
		Description: model.Description,
		City:        model.City,
		Address:     model.Address,
		Subjects:    subjects,
		Rating:      model.Rating,
		ReviewCount: model.ReviewCount,
		IsVerified:  model.IsVerified,
	}
}
