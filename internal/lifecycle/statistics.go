package lifecycle

import (
	"sort"

	"github.com/noah-isme/coachhub-api/internal/models"
)

// StatusCounts partitions students by where their work stands.
type StatusCounts struct {
	NotSubmitted int `json:"not_submitted"`
	Draft        int `json:"draft"`
	Late         int `json:"late"`
	Graded       int `json:"graded"`
	NotGraded    int `json:"not_graded"`
}

// Statistics summarises the submissions of one assignment.
type Statistics struct {
	TotalStudents  int          `json:"total_students"`
	FinalCount     int          `json:"final_count"`
	OnTimeCount    int          `json:"on_time_count"`
	SubmissionRate float64      `json:"submission_rate"`
	OnTimeRate     float64      `json:"on_time_rate"`
	AverageScore   *float64     `json:"average_score"`
	MinScore       *float64     `json:"min_score"`
	MaxScore       *float64     `json:"max_score"`
	Counts         StatusCounts `json:"counts"`
}

// ComputeStatistics aggregates submissions against the number of enrolled students. Rows
// are collapsed to one per student: the latest final attempt wins, otherwise the draft.
// Rates are percentages rounded to two decimals and a zero denominator yields zero.
func ComputeStatistics(submissions []models.Submission, totalStudents int) Statistics {
	if totalStudents < 0 {
		totalStudents = 0
	}

	latest := LatestPerStudent(submissions)
	stats := Statistics{TotalStudents: totalStudents}

	var scores []float64
	for _, sub := range latest {
		if !sub.IsFinal {
			stats.Counts.Draft++
			continue
		}

		stats.FinalCount++
		if sub.IsLate {
			stats.Counts.Late++
		} else {
			stats.OnTimeCount++
		}

		if sub.IsGraded() {
			stats.Counts.Graded++
			if sub.Score != nil {
				scores = append(scores, *sub.Score)
			}
		} else {
			stats.Counts.NotGraded++
		}
	}

	notSubmitted := totalStudents - stats.FinalCount
	if notSubmitted < 0 {
		notSubmitted = 0
	}
	stats.Counts.NotSubmitted = notSubmitted

	stats.SubmissionRate = percentage(stats.FinalCount, totalStudents)
	stats.OnTimeRate = percentage(stats.OnTimeCount, stats.FinalCount)

	if len(scores) > 0 {
		stats.AverageScore = Average(scores)
		minScore, maxScore := scores[0], scores[0]
		for _, s := range scores[1:] {
			if s < minScore {
				minScore = s
			}
			if s > maxScore {
				maxScore = s
			}
		}
		minScore, maxScore = Round2(minScore), Round2(maxScore)
		stats.MinScore = &minScore
		stats.MaxScore = &maxScore
	}

	return stats
}

// LatestPerStudent keeps the most relevant row per student, ordered by student id.
func LatestPerStudent(submissions []models.Submission) []models.Submission {
	byStudent := make(map[uint]models.Submission, len(submissions))
	for _, sub := range submissions {
		current, ok := byStudent[sub.StudentID]
		if !ok || supersedes(sub, current) {
			byStudent[sub.StudentID] = sub
		}
	}

	result := make([]models.Submission, 0, len(byStudent))
	for _, sub := range byStudent {
		result = append(result, sub)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	return result
}

func supersedes(candidate, current models.Submission) bool {
	if candidate.IsFinal != current.IsFinal {
		return candidate.IsFinal
	}
	return candidate.AttemptNumber > current.AttemptNumber
}

func percentage(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return Round2(float64(part) / float64(whole) * 100)
}
