package lifecycle

import (
	"time"

	"github.com/noah-isme/coachhub-api/internal/models"
)

// ComputeLateness returns whether a submission made at submittedAt is late and by how many
// whole minutes. Submitting exactly at the due date is on time.
func ComputeLateness(dueDate, submittedAt time.Time) (bool, int) {
	if !submittedAt.After(dueDate) {
		return false, 0
	}
	return true, int(submittedAt.Sub(dueDate) / time.Minute)
}

// NextAttemptNumber returns the attempt number for the next final submission given the
// student's latest final submission.
func NextAttemptNumber(lastFinal *models.Submission) int {
	if lastFinal == nil || lastFinal.AttemptNumber < 1 {
		return 1
	}
	return lastFinal.AttemptNumber + 1
}

// RemainingAttempts reports how many final submissions the student may still make.
func RemainingAttempts(assignment models.Assignment, lastFinal *models.Submission) int {
	used := 0
	if lastFinal != nil {
		used = lastFinal.AttemptNumber
	}
	remaining := assignment.MaxSubmissions - used
	if remaining < 0 {
		return 0
	}
	return remaining
}
