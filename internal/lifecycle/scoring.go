package lifecycle

import (
	"math"

	"github.com/noah-isme/coachhub-api/internal/models"
)

// Round2 rounds half away from zero to two decimal places.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// PenaltyResult is the score that gets stored after the late penalty.
type PenaltyResult struct {
	Score   float64
	Penalty float64
}

// ApplyLatePenalty deducts percentage% of score. The adjusted score never drops below zero.
func ApplyLatePenalty(score, percentage float64) PenaltyResult {
	if percentage <= 0 {
		return PenaltyResult{Score: Round2(score)}
	}

	penalty := Round2(score * percentage / 100)
	adjusted := Round2(score - penalty)
	if adjusted < 0 {
		adjusted = 0
	}
	return PenaltyResult{Score: adjusted, Penalty: penalty}
}

// ScoreWithPenalty applies the assignment's late penalty to a raw score when the
// submission was late by at least one minute.
func ScoreWithPenalty(score float64, submission models.Submission, assignment models.Assignment) PenaltyResult {
	if !submission.IsLate || submission.LateMinutes <= 0 {
		return PenaltyResult{Score: Round2(score)}
	}
	return ApplyLatePenalty(score, assignment.LatePenaltyPercentage)
}

// Average returns the two-decimal mean of values, or nil for an empty set.
func Average(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var total float64
	for _, v := range values {
		total += v
	}
	avg := Round2(total / float64(len(values)))
	return &avg
}
