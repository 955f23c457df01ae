package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/coachhub-api/internal/models"
)

const isoLayout = time.RFC3339

// AssignmentCreateRequest describes the payload for creating a new assignment.
type AssignmentCreateRequest struct {
	ClassID               uint            `json:"class_id" validate:"required,gt=0"`
	BranchID              *uint           `json:"branch_id" validate:"omitempty,gt=0"`
	Title                 string          `json:"title" validate:"notblank,min=3,max=255"`
	Description           string          `json:"description" validate:"omitempty,max=10000"`
	SubmissionType        string          `json:"submission_type" validate:"required,oneof=text file"`
	MaxScore              float64         `json:"max_score" validate:"required,gt=0"`
	MaxSubmissions        int             `json:"max_submissions" validate:"required,gte=1,lte=20"`
	AllowLateSubmission   bool            `json:"allow_late_submission"`
	LatePenaltyPercentage float64         `json:"late_penalty_percentage" validate:"gte=0,lte=100"`
	IsVisible             *bool           `json:"is_visible"`
	DueDate               string          `json:"due_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	CloseDate             *string         `json:"close_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	PublishAt             *string         `json:"publish_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	MaxFileSize           int64           `json:"max_file_size" validate:"gte=0"`
	AllowedExtensions     []string        `json:"allowed_extensions" validate:"omitempty,max=20,dive,min=1,max=10"`
	Rubric                json.RawMessage `json:"rubric"`
}

// AssignmentUpdateRequest describes a partial update of an assignment.
type AssignmentUpdateRequest struct {
	Title                 *string         `json:"title" validate:"omitempty,notblank,min=3,max=255"`
	Description           *string         `json:"description" validate:"omitempty,max=10000"`
	SubmissionType        *string         `json:"submission_type" validate:"omitempty,oneof=text file"`
	MaxScore              *float64        `json:"max_score" validate:"omitempty,gt=0"`
	MaxSubmissions        *int            `json:"max_submissions" validate:"omitempty,gte=1,lte=20"`
	AllowLateSubmission   *bool           `json:"allow_late_submission"`
	LatePenaltyPercentage *float64        `json:"late_penalty_percentage" validate:"omitempty,gte=0,lte=100"`
	IsVisible             *bool           `json:"is_visible"`
	DueDate               *string         `json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	CloseDate             *string         `json:"close_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	PublishAt             *string         `json:"publish_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	MaxFileSize           *int64          `json:"max_file_size" validate:"omitempty,gte=0"`
	AllowedExtensions     []string        `json:"allowed_extensions" validate:"omitempty,max=20,dive,min=1,max=10"`
	Rubric                json.RawMessage `json:"rubric"`
}

// ChangedFields lists the JSON names of the fields present in the update.
func (r AssignmentUpdateRequest) ChangedFields() []string {
	var fields []string
	add := func(present bool, name string) {
		if present {
			fields = append(fields, name)
		}
	}

	add(r.Title != nil, "title")
	add(r.Description != nil, "description")
	add(r.SubmissionType != nil, "submission_type")
	add(r.MaxScore != nil, "max_score")
	add(r.MaxSubmissions != nil, "max_submissions")
	add(r.AllowLateSubmission != nil, "allow_late_submission")
	add(r.LatePenaltyPercentage != nil, "late_penalty_percentage")
	add(r.IsVisible != nil, "is_visible")
	add(r.DueDate != nil, "due_date")
	add(r.CloseDate != nil, "close_date")
	add(r.PublishAt != nil, "publish_at")
	add(r.MaxFileSize != nil, "max_file_size")
	add(r.AllowedExtensions != nil, "allowed_extensions")
	add(len(r.Rubric) > 0, "rubric")
	return fields
}

// AssignmentListRequest describes query parameters for listing assignments.
type AssignmentListRequest struct {
	ClassID  *uint  `query:"class_id" validate:"omitempty,gt=0"`
	Status   string `query:"status" validate:"omitempty,oneof=draft published closed"`
	Search   string `query:"search" validate:"omitempty,max=120"`
	Sort     string `query:"sort"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID                    uint                     `json:"id"`
	ClassID               uint                     `json:"class_id"`
	BranchID              *uint                    `json:"branch_id"`
	TeacherID             uint                     `json:"teacher_id"`
	Title                 string                   `json:"title"`
	Description           string                   `json:"description"`
	Status                string                   `json:"status"`
	SubmissionType        string                   `json:"submission_type"`
	MaxScore              float64                  `json:"max_score"`
	MaxSubmissions        int                      `json:"max_submissions"`
	AllowLateSubmission   bool                     `json:"allow_late_submission"`
	LatePenaltyPercentage float64                  `json:"late_penalty_percentage"`
	IsVisible             bool                     `json:"is_visible"`
	DueDate               time.Time                `json:"due_date"`
	CloseDate             *time.Time               `json:"close_date"`
	PublishAt             *time.Time               `json:"publish_at"`
	MaxFileSize           int64                    `json:"max_file_size"`
	AllowedExtensions     []string                 `json:"allowed_extensions"`
	Rubric                []models.RubricCriterion `json:"rubric"`
	TotalSubmissions      int                      `json:"total_submissions"`
	AverageScore          *float64                 `json:"average_score"`
	CreatedAt             time.Time                `json:"created_at"`
	UpdatedAt             time.Time                `json:"updated_at"`
}

// AssignmentListResponse wraps a page of assignments.
type AssignmentListResponse struct {
	Items      []AssignmentResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	extensions := model.AllowedExtensionList()
	if extensions == nil {
		extensions = []string{}
	}

	return AssignmentResponse{
		ID:                    model.ID,
		ClassID:               model.ClassID,
		BranchID:              model.BranchID,
		TeacherID:             model.TeacherID,
		Title:                 model.Title,
		Description:           model.Description,
		Status:                string(model.Status),
		SubmissionType:        string(model.SubmissionType),
		MaxScore:              model.MaxScore,
		MaxSubmissions:        model.MaxSubmissions,
		AllowLateSubmission:   model.AllowLateSubmission,
		LatePenaltyPercentage: model.LatePenaltyPercentage,
		IsVisible:             model.IsVisible,
		DueDate:               model.DueDate,
		CloseDate:             model.CloseDate,
		PublishAt:             model.PublishAt,
		MaxFileSize:           model.MaxFileSize,
		AllowedExtensions:     extensions,
		Rubric:                model.RubricCriteria(),
		TotalSubmissions:      model.TotalSubmissions,
		AverageScore:          model.AverageScore,
		CreatedAt:             model.CreatedAt,
		UpdatedAt:             model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}

// ParseTimestamp parses an RFC3339 timestamp and normalises it to UTC.
func ParseTimestamp(value string) (time.Time, error) {
	parsed, err := time.Parse(isoLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}

// ParseOptionalTimestamp parses an optional RFC3339 timestamp; empty strings clear the value.
func ParseOptionalTimestamp(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := ParseTimestamp(*value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
