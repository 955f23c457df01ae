package dto

import "time"

// ActivityLogResponse is one audit entry.
type ActivityLogResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ActivityLogListRequest filters the audit trail.
type ActivityLogListRequest struct {
	Action     string `query:"action" validate:"omitempty,max=64"`
	EntityType string `query:"entity_type" validate:"omitempty,max=64"`
	Page       int    `query:"page" validate:"omitempty,gte=1"`
	PageSize   int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// ActivityLogListResponse wraps paginated audit entries.
type ActivityLogListResponse struct {
	Items      []ActivityLogResponse `json:"items"`
	Pagination PaginationMeta        `json:"pagination"`
}
