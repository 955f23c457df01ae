package dto

import (
	"time"

	"github.com/noah-isme/coachhub-api/internal/lifecycle"
)

// AssignmentStatisticsResponse is the aggregated view of one assignment's submissions.
type AssignmentStatisticsResponse struct {
	AssignmentID   uint      `json:"assignment_id"`
	Title          string    `json:"title"`
	PointsPossible float64   `json:"points_possible"`
	GeneratedAt    time.Time `json:"generated_at"`
	CacheHit       bool      `json:"cache_hit"`
	lifecycle.Statistics
}
