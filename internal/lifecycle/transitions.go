package lifecycle

import (
	"errors"
	"time"

	"github.com/noah-isme/coachhub-api/internal/models"
)

var (
	// ErrInvalidTransition is returned for any status change other than draft→published
	// or published→closed.
	ErrInvalidTransition = errors.New("invalid assignment status transition")
	// ErrInvalidSchedule is returned when publish_at, due_date and close_date are out of order.
	ErrInvalidSchedule = errors.New("close_date must not precede due_date and due_date must not precede publish_at")
	// ErrNotDraft guards operations that only draft assignments allow.
	ErrNotDraft = errors.New("operation allowed only on draft assignments")
	// ErrClosedImmutable rejects grading-affecting edits on closed assignments.
	ErrClosedImmutable = errors.New("closed assignment cannot change grading fields")
)

// CanTransition reports whether an assignment may move from one status to another.
func CanTransition(from, to models.AssignmentStatus) bool {
	switch from {
	case models.AssignmentStatusDraft:
		return to == models.AssignmentStatusPublished
	case models.AssignmentStatusPublished:
		return to == models.AssignmentStatusClosed
	default:
		return false
	}
}

// Transition validates and returns the new status.
func Transition(from, to models.AssignmentStatus) (models.AssignmentStatus, error) {
	if !CanTransition(from, to) {
		return from, ErrInvalidTransition
	}
	return to, nil
}

// ValidateSchedule enforces close_date >= due_date >= publish_at for the dates present.
func ValidateSchedule(publishAt *time.Time, dueDate time.Time, closeDate *time.Time) error {
	if publishAt != nil && dueDate.Before(*publishAt) {
		return ErrInvalidSchedule
	}
	if closeDate != nil && closeDate.Before(dueDate) {
		return ErrInvalidSchedule
	}
	return nil
}

// CanDelete reports whether the assignment may be removed.
func CanDelete(assignment models.Assignment) error {
	if assignment.Status != models.AssignmentStatusDraft {
		return ErrNotDraft
	}
	return nil
}

// GradingFields lists the attributes frozen once an assignment is closed.
var GradingFields = []string{
	"max_score",
	"max_submissions",
	"allow_late_submission",
	"late_penalty_percentage",
	"due_date",
	"close_date",
	"rubric",
}

// CheckUpdate validates an edit of current. changed holds the JSON names of
// the fields the caller is modifying.
func CheckUpdate(current models.Assignment, changed []string) error {
	for _, field := range changed {
		if field == "submission_type" && current.Status != models.AssignmentStatusDraft {
			return ErrNotDraft
		}
		if current.Status == models.AssignmentStatusClosed && isGradingField(field) {
			return ErrClosedImmutable
		}
	}
	return nil
}

func isGradingField(field string) bool {
	for _, f := range GradingFields {
		if f == field {
			return true
		}
	}
	return false
}
