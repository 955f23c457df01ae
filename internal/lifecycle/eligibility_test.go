package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coachhub-api/internal/models"
)

var baseTime = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func publishedAssignment() models.Assignment {
	return models.Assignment{
		ID:                    1,
		ClassID:               7,
		Status:                models.AssignmentStatusPublished,
		SubmissionType:        models.SubmissionTypeText,
		MaxScore:              100,
		MaxSubmissions:        2,
		AllowLateSubmission:   true,
		LatePenaltyPercentage: 10,
		IsVisible:             true,
		DueDate:               baseTime,
	}
}

func TestCheckEligibilityRuleOrder(t *testing.T) {
	assignment := publishedAssignment()
	assignment.Status = models.AssignmentStatusDraft
	assignment.IsVisible = false
	closeDate := baseTime.Add(time.Hour)
	assignment.CloseDate = &closeDate

	result := CheckEligibility(assignment, nil, baseTime.Add(2*time.Hour))
	require.False(t, result.Allowed)
	require.ErrorIs(t, result.Reason, ErrNotPublished)

	assignment.Status = models.AssignmentStatusPublished
	result = CheckEligibility(assignment, nil, baseTime.Add(2*time.Hour))
	require.ErrorIs(t, result.Reason, ErrNotVisible)

	assignment.IsVisible = true
	result = CheckEligibility(assignment, nil, baseTime.Add(2*time.Hour))
	require.ErrorIs(t, result.Reason, ErrSubmissionClosed)
}

func TestCheckEligibilityPublishAtHidesAssignment(t *testing.T) {
	assignment := publishedAssignment()
	publishAt := baseTime.Add(-time.Hour)
	assignment.PublishAt = &publishAt

	result := CheckEligibility(assignment, nil, publishAt.Add(-time.Minute))
	require.ErrorIs(t, result.Reason, ErrNotVisible)

	result = CheckEligibility(assignment, nil, publishAt)
	require.True(t, result.Allowed)
}

func TestCheckEligibilityCloseDateIsHardStop(t *testing.T) {
	assignment := publishedAssignment()
	assignment.AllowLateSubmission = true
	closeDate := baseTime.Add(time.Hour)
	assignment.CloseDate = &closeDate
	now := closeDate.Add(time.Second)

	final := CheckEligibility(assignment, nil, now)
	require.False(t, final.Allowed)
	require.ErrorIs(t, final.Reason, ErrSubmissionClosed)

	draft := CheckDraftEligibility(assignment, now)
	require.False(t, draft.Allowed)
	require.ErrorIs(t, draft.Reason, ErrSubmissionClosed)
}

func TestCheckEligibilityLateNotAllowed(t *testing.T) {
	assignment := publishedAssignment()
	assignment.AllowLateSubmission = false

	result := CheckEligibility(assignment, nil, baseTime.Add(time.Minute))
	require.ErrorIs(t, result.Reason, ErrLateNotAllowed)

	onTime := CheckEligibility(assignment, nil, baseTime)
	require.True(t, onTime.Allowed)
	require.False(t, onTime.Late)

	draft := CheckDraftEligibility(assignment, baseTime.Add(time.Minute))
	require.True(t, draft.Allowed)
}

func TestCheckEligibilityTagsLateAcceptance(t *testing.T) {
	result := CheckEligibility(publishedAssignment(), nil, baseTime.Add(30*time.Minute))
	require.True(t, result.Allowed)
	require.True(t, result.Late)
	require.Equal(t, "late submission, penalty will apply", result.Message())
}

func TestCheckEligibilityMaxSubmissions(t *testing.T) {
	assignment := publishedAssignment()

	first := &models.Submission{IsFinal: true, AttemptNumber: 1}
	require.True(t, CheckEligibility(assignment, first, baseTime).Allowed)

	second := &models.Submission{IsFinal: true, AttemptNumber: 2}
	result := CheckEligibility(assignment, second, baseTime)
	require.False(t, result.Allowed)
	require.ErrorIs(t, result.Reason, ErrMaxSubmissionsReached)
	require.Equal(t, "Maximum submissions reached.", result.Message())

	draft := &models.Submission{IsFinal: false, AttemptNumber: 2}
	require.True(t, CheckEligibility(assignment, draft, baseTime).Allowed)
}

func TestIsClosed(t *testing.T) {
	assignment := publishedAssignment()
	require.False(t, IsClosed(assignment, baseTime))

	closeDate := baseTime.Add(time.Hour)
	assignment.CloseDate = &closeDate
	require.True(t, IsClosed(assignment, closeDate.Add(time.Nanosecond)))

	assignment.CloseDate = nil
	assignment.Status = models.AssignmentStatusClosed
	require.True(t, IsClosed(assignment, baseTime))
}
