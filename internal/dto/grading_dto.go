package dto

// RubricScoreInput is the score awarded to one rubric criterion.
type RubricScoreInput struct {
	CriterionID string  `json:"criterion_id" validate:"required,max=64"`
	Points      float64 `json:"points" validate:"gte=0"`
	Comment     string  `json:"comment" validate:"omitempty,max=1000"`
}

// GradeRequest grades a final submission.
type GradeRequest struct {
	Score        *float64           `json:"score" validate:"required,gte=0"`
	Feedback     string             `json:"feedback" validate:"omitempty,max=5000"`
	PrivateNotes *string            `json:"private_notes" validate:"omitempty,max=5000"`
	RubricScores []RubricScoreInput `json:"rubric_scores" validate:"omitempty,dive"`
}

// UpdateGradeRequest adjusts an existing grade.
type UpdateGradeRequest struct {
	Score        *float64 `json:"score" validate:"omitempty,gte=0"`
	Feedback     *string  `json:"feedback" validate:"omitempty,max=5000"`
	PrivateNotes *string  `json:"private_notes" validate:"omitempty,max=5000"`
}

// IsEmpty reports whether the update carries no changes.
func (r UpdateGradeRequest) IsEmpty() bool {
	return r.Score == nil && r.Feedback == nil && r.PrivateNotes == nil
}
