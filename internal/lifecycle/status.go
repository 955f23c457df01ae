package lifecycle

import (
	"time"

	"github.com/noah-isme/coachhub-api/internal/models"
)

// DisplayStatus is the state a student sees for one assignment.
type DisplayStatus string

const (
	StatusOverdue        DisplayStatus = "overdue"
	StatusNotStarted     DisplayStatus = "not_started"
	StatusGraded         DisplayStatus = "graded"
	StatusLateSubmission DisplayStatus = "late_submission"
	StatusDraftSaved     DisplayStatus = "draft_saved"
	StatusSubmitted      DisplayStatus = "submitted"
)

var statusLabels = map[DisplayStatus]string{
	StatusOverdue:        "Overdue",
	StatusNotStarted:     "Not Started",
	StatusGraded:         "Graded",
	StatusLateSubmission: "Late Submission",
	StatusDraftSaved:     "Draft Saved",
	StatusSubmitted:      "Submitted",
}

// Label returns the human readable name of the status.
func (s DisplayStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// DeriveStatus maps a student's latest submission (nil when absent) to a display status.
// A graded submission always reports graded, even when it was late.
func DeriveStatus(submission *models.Submission, assignment models.Assignment, now time.Time) DisplayStatus {
	if submission == nil {
		if assignment.IsPastDue(now) {
			return StatusOverdue
		}
		return StatusNotStarted
	}

	switch {
	case submission.IsGraded():
		return StatusGraded
	case submission.IsLate:
		return StatusLateSubmission
	case !submission.IsFinal:
		return StatusDraftSaved
	default:
		return StatusSubmitted
	}
}
