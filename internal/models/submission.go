package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// GradingStatus tracks whether and how a submission was graded.
type GradingStatus string

const (
	// GradingStatusNotGraded is the state of every fresh submission.
	GradingStatusNotGraded GradingStatus = "not_graded"
	// GradingStatusAutoGraded marks scores produced without a teacher.
	GradingStatusAutoGraded GradingStatus = "auto_graded"
	// GradingStatusManualGraded marks scores set by a teacher.
	GradingStatusManualGraded GradingStatus = "manual_graded"
)

// RegradeStatusPending is the status of a freshly filed regrade request.
const RegradeStatusPending = "pending"

// RegradeRequest is one entry of a submission's append-only regrade log.
type RegradeRequest struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
	Status      string    `json:"status"`
}

// RubricScore is the points awarded for one rubric criterion.
type RubricScore struct {
	CriterionID string  `json:"criterion_id"`
	Points      float64 `json:"points"`
	Comment     string  `json:"comment,omitempty"`
}

// Submission is one attempt of a student against an assignment. Drafts have IsFinal=false.
type Submission struct {
	ID               uint                     `gorm:"primaryKey" json:"id"`
	AssignmentID     uint                     `gorm:"not null;index;uniqueIndex:idx_submissions_attempt,priority:1;uniqueIndex:idx_submissions_draft,priority:1,where:is_final = false" json:"assignment_id"`
	StudentID        uint                     `gorm:"not null;index;uniqueIndex:idx_submissions_attempt,priority:2;uniqueIndex:idx_submissions_draft,priority:2" json:"student_id"`
	ClassID          uint                     `gorm:"not null;index" json:"class_id"`
	AttemptNumber    int                      `gorm:"not null;uniqueIndex:idx_submissions_attempt,priority:3" json:"attempt_number"`
	IsFinal          bool                     `gorm:"not null;default:false" json:"is_final"`
	IsLate           bool                     `gorm:"not null;default:false" json:"is_late"`
	LateMinutes      int                      `gorm:"not null;default:0" json:"late_minutes"`
	SubmissionText   string                   `gorm:"type:text" json:"submission_text"`
	SubmissionFileID *uint                    `gorm:"index" json:"submission_file_id"`
	SubmittedAt      *time.Time               `json:"submitted_at"`
	Score            *float64                 `json:"score"`
	PenaltyApplied   float64                  `gorm:"not null;default:0" json:"penalty_applied"`
	GradingStatus    GradingStatus            `gorm:"size:32;not null;default:not_graded" json:"grading_status"`
	Feedback         string                   `gorm:"type:text" json:"feedback"`
	PrivateNotes     string                   `gorm:"type:text" json:"-"`
	RubricScores     datatypes.JSON           `gorm:"type:json" json:"-"`
	RegradeRequests  datatypes.JSON           `gorm:"type:json" json:"-"`
	GradedBy         *uint                    `json:"graded_by"`
	GradedAt         *time.Time               `json:"graded_at"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
	Assignment       Assignment               `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student          Student                  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	File             *SubmissionFile          `gorm:"foreignKey:SubmissionFileID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"file"`
	History          []SubmissionGradeHistory `gorm:"foreignKey:SubmissionID" json:"history"`
}

// IsGraded reports whether the submission carries a grade from any source.
func (s Submission) IsGraded() bool {
	return s.GradingStatus == GradingStatusManualGraded || s.GradingStatus == GradingStatusAutoGraded
}

// IsDraft reports whether the row is the student's working copy.
func (s Submission) IsDraft() bool {
	return !s.IsFinal
}

// RegradeLog returns the regrade requests in the order they were filed.
func (s Submission) RegradeLog() []RegradeRequest {
	if len(s.RegradeRequests) == 0 {
		return nil
	}

	var entries []RegradeRequest
	if err := json.Unmarshal(s.RegradeRequests, &entries); err != nil {
		return nil
	}
	return entries
}

// AppendRegradeRequest adds an entry to the end of the regrade log.
func (s *Submission) AppendRegradeRequest(entry RegradeRequest) error {
	entries := append(s.RegradeLog(), entry)
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	s.RegradeRequests = datatypes.JSON(data)
	return nil
}

// SetRubricScores serializes per-criterion scores.
func (s *Submission) SetRubricScores(scores []RubricScore) error {
	if len(scores) == 0 {
		s.RubricScores = nil
		return nil
	}

	data, err := json.Marshal(scores)
	if err != nil {
		return err
	}
	s.RubricScores = datatypes.JSON(data)
	return nil
}

// RubricScoreList deserializes per-criterion scores.
func (s Submission) RubricScoreList() []RubricScore {
	if len(s.RubricScores) == 0 {
		return nil
	}

	var scores []RubricScore
	if err := json.Unmarshal(s.RubricScores, &scores); err != nil {
		return nil
	}
	return scores
}

// SubmissionGradeHistory records every grade written to a submission.
type SubmissionGradeHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	Score        float64   `gorm:"not null" json:"score"`
	Penalty      float64   `gorm:"not null;default:0" json:"penalty"`
	Feedback     string    `gorm:"type:text" json:"feedback"`
	GradedBy     uint      `gorm:"not null" json:"graded_by"`
	GradedAt     time.Time `gorm:"not null" json:"graded_at"`
}
