package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// AssignmentStatus captures where an assignment sits in its publishing lifecycle.
type AssignmentStatus string

const (
	// AssignmentStatusDraft is the initial, teacher-only state.
	AssignmentStatusDraft AssignmentStatus = "draft"
	// AssignmentStatusPublished makes the assignment visible and submittable.
	AssignmentStatusPublished AssignmentStatus = "published"
	// AssignmentStatusClosed rejects new submissions.
	AssignmentStatusClosed AssignmentStatus = "closed"
)

// SubmissionType decides which kind of content a final submission must carry.
type SubmissionType string

const (
	// SubmissionTypeText requires written text.
	SubmissionTypeText SubmissionType = "text"
	// SubmissionTypeFile requires an uploaded attachment.
	SubmissionTypeFile SubmissionType = "file"
)

// RubricLevel describes one achievement level of a rubric criterion.
type RubricLevel struct {
	Label       string  `json:"label"`
	Points      float64 `json:"points"`
	Description string  `json:"description,omitempty"`
}

// RubricCriterion is a single gradable line of an assignment rubric.
type RubricCriterion struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	MaxPoints float64       `json:"max_points"`
	Levels    []RubricLevel `json:"levels,omitempty"`
}

// Assignment represents a unit of work a teacher publishes to a class.
type Assignment struct {
	ID                    uint             `gorm:"primaryKey" json:"id"`
	ClassID               uint             `gorm:"not null;index" json:"class_id"`
	BranchID              *uint            `gorm:"index" json:"branch_id"`
	TeacherID             uint             `gorm:"not null;index" json:"teacher_id"`
	Title                 string           `gorm:"size:255;not null" json:"title"`
	Description           string           `gorm:"type:text" json:"description"`
	Status                AssignmentStatus `gorm:"size:16;not null;default:draft;index" json:"status"`
	SubmissionType        SubmissionType   `gorm:"size:16;not null;default:text" json:"submission_type"`
	MaxScore              float64          `gorm:"not null;default:100" json:"max_score"`
	MaxSubmissions        int              `gorm:"not null;default:1" json:"max_submissions"`
	AllowLateSubmission   bool             `gorm:"not null;default:false" json:"allow_late_submission"`
	LatePenaltyPercentage float64          `gorm:"not null;default:0" json:"late_penalty_percentage"`
	IsVisible             bool             `gorm:"not null" json:"is_visible"`
	DueDate               time.Time        `gorm:"not null;index" json:"due_date"`
	CloseDate             *time.Time       `json:"close_date"`
	PublishAt             *time.Time       `json:"publish_at"`
	MaxFileSize           int64            `gorm:"not null;default:0" json:"max_file_size"`
	AllowedExtensions     datatypes.JSON   `gorm:"type:json" json:"-"`
	Rubric                datatypes.JSON   `gorm:"type:json" json:"-"`
	TotalSubmissions      int              `gorm:"not null;default:0" json:"total_submissions"`
	AverageScore          *float64         `json:"average_score"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// IsPastClose reports whether a close date is set and has passed.
func (a Assignment) IsPastClose(reference time.Time) bool {
	return a.CloseDate != nil && reference.After(*a.CloseDate)
}

// SetAllowedExtensions normalises and stores the extension allow-list.
func (a *Assignment) SetAllowedExtensions(extensions []string) {
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		ext = strings.TrimPrefix(ext, ".")
		if ext != "" {
			normalized = append(normalized, ext)
		}
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		a.AllowedExtensions = datatypes.JSON([]byte("[]"))
		return
	}
	a.AllowedExtensions = datatypes.JSON(data)
}

// AllowedExtensionList returns the stored extension allow-list.
func (a Assignment) AllowedExtensionList() []string {
	if len(a.AllowedExtensions) == 0 {
		return nil
	}

	var extensions []string
	if err := json.Unmarshal(a.AllowedExtensions, &extensions); err != nil {
		return nil
	}
	return extensions
}

// SetRubric serializes the rubric criteria into the JSON column.
func (a *Assignment) SetRubric(criteria []RubricCriterion) {
	if len(criteria) == 0 {
		a.Rubric = nil
		return
	}

	data, err := json.Marshal(criteria)
	if err != nil {
		a.Rubric = nil
		return
	}
	a.Rubric = datatypes.JSON(data)
}

// RubricCriteria deserializes the stored rubric.
func (a Assignment) RubricCriteria() []RubricCriterion {
	if len(a.Rubric) == 0 {
		return nil
	}

	var criteria []RubricCriterion
	if err := json.Unmarshal(a.Rubric, &criteria); err != nil {
		return nil
	}
	return criteria
}
