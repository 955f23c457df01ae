package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coachhub-api/internal/models"
)

func TestApplyLatePenalty(t *testing.T) {
	result := ApplyLatePenalty(80, 10)
	require.Equal(t, 8.0, result.Penalty)
	require.Equal(t, 72.0, result.Score)

	result = ApplyLatePenalty(45.5, 20)
	require.Equal(t, 9.1, result.Penalty)
	require.Equal(t, 36.4, result.Score)

	result = ApplyLatePenalty(50, 0)
	require.Zero(t, result.Penalty)
	require.Equal(t, 50.0, result.Score)
}

func TestApplyLatePenaltyNeverNegative(t *testing.T) {
	result := ApplyLatePenalty(40, 100)
	require.Equal(t, 40.0, result.Penalty)
	require.Zero(t, result.Score)

	result = ApplyLatePenalty(0, 50)
	require.Zero(t, result.Score)
	require.Zero(t, result.Penalty)
}

func TestScoreWithPenaltyRequiresLateMinutes(t *testing.T) {
	assignment := publishedAssignment()

	onTime := ScoreWithPenalty(90, models.Submission{}, assignment)
	require.Equal(t, 90.0, onTime.Score)
	require.Zero(t, onTime.Penalty)

	underAMinute := ScoreWithPenalty(90, models.Submission{IsLate: true}, assignment)
	require.Equal(t, 90.0, underAMinute.Score)

	late := ScoreWithPenalty(90, models.Submission{IsLate: true, LateMinutes: 30}, assignment)
	require.Equal(t, 81.0, late.Score)
	require.Equal(t, 9.0, late.Penalty)
}

func TestAverage(t *testing.T) {
	require.Nil(t, Average(nil))

	avg := Average([]float64{81, 72.5, 90})
	require.NotNil(t, avg)
	require.Equal(t, 81.17, *avg)
}
