package lifecycle

import (
	"errors"
	"time"

	"github.com/noah-isme/coachhub-api/internal/models"
)

var (
	// ErrNotPublished rejects submissions to assignments that are not published.
	ErrNotPublished = errors.New("assignment is not published")
	// ErrNotVisible rejects submissions to hidden or not-yet-released assignments.
	ErrNotVisible = errors.New("assignment is not visible")
	// ErrSubmissionClosed rejects everything after the close date.
	ErrSubmissionClosed = errors.New("submission period closed")
	// ErrLateNotAllowed rejects past-due submissions when late work is disabled.
	ErrLateNotAllowed = errors.New("late submissions not allowed")
	// ErrMaxSubmissionsReached rejects attempts beyond the assignment cap.
	ErrMaxSubmissionsReached = errors.New("Maximum submissions reached.")
)

// Eligibility is the outcome of an eligibility check.
type Eligibility struct {
	Allowed bool
	// Late is set on accepted attempts made after the due date; a penalty will apply.
	Late   bool
	Reason error
}

// Message returns a human readable explanation of the outcome.
func (e Eligibility) Message() string {
	switch {
	case !e.Allowed && e.Reason != nil:
		return e.Reason.Error()
	case e.Late:
		return "late submission, penalty will apply"
	default:
		return "submission allowed"
	}
}

// IsVisible reports whether students can see the assignment at the given time.
func IsVisible(assignment models.Assignment, now time.Time) bool {
	if !assignment.IsVisible {
		return false
	}
	return assignment.PublishAt == nil || !now.Before(*assignment.PublishAt)
}

// IsClosed reports whether the assignment no longer accepts work, either explicitly or
// because its close date has passed.
func IsClosed(assignment models.Assignment, now time.Time) bool {
	return assignment.Status == models.AssignmentStatusClosed || assignment.IsPastClose(now)
}

// CheckEligibility decides whether a new final attempt is permitted. lastFinal is the
// student's most recent final submission, or nil when there is none. Rules are evaluated
// in order and the first failure wins.
func CheckEligibility(assignment models.Assignment, lastFinal *models.Submission, now time.Time) Eligibility {
	if reason := openForEditing(assignment, now); reason != nil {
		return Eligibility{Reason: reason}
	}

	pastDue := assignment.IsPastDue(now)
	if pastDue && !assignment.AllowLateSubmission {
		return Eligibility{Reason: ErrLateNotAllowed}
	}

	if lastFinal != nil && lastFinal.IsFinal && lastFinal.AttemptNumber >= assignment.MaxSubmissions {
		return Eligibility{Reason: ErrMaxSubmissionsReached}
	}

	return Eligibility{Allowed: true, Late: pastDue}
}

// CheckDraftEligibility decides whether a draft may be saved. Drafts skip the late and
// attempt-limit rules but still need an assignment that is open for editing.
func CheckDraftEligibility(assignment models.Assignment, now time.Time) Eligibility {
	if reason := openForEditing(assignment, now); reason != nil {
		return Eligibility{Reason: reason}
	}
	return Eligibility{Allowed: true}
}

func openForEditing(assignment models.Assignment, now time.Time) error {
	if assignment.Status != models.AssignmentStatusPublished {
		return ErrNotPublished
	}
	if !IsVisible(assignment, now) {
		return ErrNotVisible
	}
	if assignment.IsPastClose(now) {
		return ErrSubmissionClosed
	}
	return nil
}
