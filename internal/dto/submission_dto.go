package dto

import (
	"time"

	"github.com/noah-isme/coachhub-api/internal/lifecycle"
	"github.com/noah-isme/coachhub-api/internal/models"
)

// SubmissionRequest carries a draft save or a final submission. StudentID and IsFinal are
// set by the server from the token and the route.
type SubmissionRequest struct {
	AssignmentID     uint    `json:"assignment_id" validate:"required,gt=0"`
	ClassID          uint    `json:"class_id" validate:"required,gt=0"`
	SubmissionText   *string `json:"submission_text" validate:"omitempty,max=50000"`
	SubmissionFileID *uint   `json:"submission_file_id" validate:"omitempty,gt=0"`
	StudentID        uint    `json:"-" validate:"required,gt=0"`
	IsFinal          bool    `json:"-"`
}

// RegradeRequestPayload is the body of a regrade request.
type RegradeRequestPayload struct {
	Reason string `json:"reason" validate:"notblank,min=5,max=1000"`
}

// SubmissionListRequest filters the teacher grading queue.
type SubmissionListRequest struct {
	AssignmentID  *uint  `query:"assignment_id" validate:"omitempty,gt=0"`
	StudentID     *uint  `query:"student_id" validate:"omitempty,gt=0"`
	ClassID       *uint  `query:"class_id" validate:"omitempty,gt=0"`
	GradingStatus string `query:"grading_status" validate:"omitempty,oneof=not_graded auto_graded manual_graded"`
	IncludeDrafts bool   `query:"include_drafts"`
	Page          int    `query:"page" validate:"omitempty,gte=1"`
	PageSize      int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID               uint                             `json:"id"`
	AssignmentID     uint                             `json:"assignment_id"`
	StudentID        uint                             `json:"student_id"`
	ClassID          uint                             `json:"class_id"`
	AttemptNumber    int                              `json:"attempt_number"`
	IsFinal          bool                             `json:"is_final"`
	IsLate           bool                             `json:"is_late"`
	LateMinutes      int                              `json:"late_minutes"`
	SubmissionText   string                           `json:"submission_text"`
	SubmissionFileID *uint                            `json:"submission_file_id"`
	File             *AttachmentLite                  `json:"file,omitempty"`
	SubmittedAt      *time.Time                       `json:"submitted_at"`
	Score            *float64                         `json:"score"`
	PenaltyApplied   float64                          `json:"penalty_applied"`
	GradingStatus    string                           `json:"grading_status"`
	Feedback         string                           `json:"feedback"`
	PrivateNotes     string                           `json:"private_notes,omitempty"`
	RubricScores     []models.RubricScore             `json:"rubric_scores"`
	RegradeRequests  []models.RegradeRequest          `json:"regrade_requests"`
	GradedBy         *uint                            `json:"graded_by"`
	GradedAt         *time.Time                       `json:"graded_at"`
	History          []SubmissionGradeHistoryResponse `json:"history,omitempty"`
	Student          *StudentLite                     `json:"student,omitempty"`
	CreatedAt        time.Time                        `json:"created_at"`
	UpdatedAt        time.Time                        `json:"updated_at"`
}

// SubmissionListResponse wraps a page of submissions.
type SubmissionListResponse struct {
	Items      []SubmissionResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// SubmissionGradeHistoryResponse serializes grading history entries.
type SubmissionGradeHistoryResponse struct {
	Score    float64   `json:"score"`
	Penalty  float64   `json:"penalty"`
	Feedback string    `json:"feedback"`
	GradedBy uint      `json:"graded_by"`
	GradedAt time.Time `json:"graded_at"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// NewSubmissionResponse converts a Submission model into the student-facing DTO.
// Private notes are never included.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:               model.ID,
		AssignmentID:     model.AssignmentID,
		StudentID:        model.StudentID,
		ClassID:          model.ClassID,
		AttemptNumber:    model.AttemptNumber,
		IsFinal:          model.IsFinal,
		IsLate:           model.IsLate,
		LateMinutes:      model.LateMinutes,
		SubmissionText:   model.SubmissionText,
		SubmissionFileID: model.SubmissionFileID,
		SubmittedAt:      model.SubmittedAt,
		Score:            model.Score,
		PenaltyApplied:   model.PenaltyApplied,
		GradingStatus:    string(model.GradingStatus),
		Feedback:         model.Feedback,
		RubricScores:     model.RubricScoreList(),
		RegradeRequests:  model.RegradeLog(),
		GradedBy:         model.GradedBy,
		GradedAt:         model.GradedAt,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}

	if model.File != nil && model.File.ID != 0 {
		file := NewAttachmentLite(*model.File)
		response.File = &file
	}

	if model.Student.ID != 0 {
		response.Student = &StudentLite{
			ID:        model.Student.ID,
			Name:      model.Student.Name,
			AvatarURL: model.Student.AvatarURL,
		}
	}

	return response
}

// NewTeacherSubmissionResponse adds grading internals visible to staff.
func NewTeacherSubmissionResponse(model models.Submission) SubmissionResponse {
	response := NewSubmissionResponse(model)
	response.PrivateNotes = model.PrivateNotes

	if len(model.History) > 0 {
		history := make([]SubmissionGradeHistoryResponse, 0, len(model.History))
		for _, entry := range model.History {
			history = append(history, SubmissionGradeHistoryResponse{
				Score:    entry.Score,
				Penalty:  entry.Penalty,
				Feedback: entry.Feedback,
				GradedBy: entry.GradedBy,
				GradedAt: entry.GradedAt,
			})
		}
		response.History = history
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(items []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(items))
	for _, submission := range items {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}

// EligibilityResponse tells a student whether another attempt is possible.
type EligibilityResponse struct {
	AssignmentID      uint   `json:"assignment_id"`
	Allowed           bool   `json:"allowed"`
	Late              bool   `json:"late"`
	Message           string `json:"message"`
	NextAttempt       int    `json:"next_attempt"`
	RemainingAttempts int    `json:"remaining_attempts"`
}

// StudentAssignmentView is one row of a student's assignment list.
type StudentAssignmentView struct {
	Assignment        AssignmentResponse      `json:"assignment"`
	Status            lifecycle.DisplayStatus `json:"status"`
	StatusLabel       string                  `json:"status_label"`
	AttemptsUsed      int                     `json:"attempts_used"`
	RemainingAttempts int                     `json:"remaining_attempts"`
	LatestSubmission  *SubmissionResponse     `json:"latest_submission"`
}
