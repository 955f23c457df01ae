package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coachhub-api/internal/dto"
	"github.com/noah-isme/coachhub-api/internal/models"
	"github.com/noah-isme/coachhub-api/internal/repository"
)

func newTestGradingService(f *fixture, assignments repository.AssignmentRepository) *gradingService {
	if assignments == nil {
		assignments = f.assignments
	}
	activity := NewActivityService(f.activityLog, f.validate, testLogger())
	svc := NewGradingService(f.submissions, assignments, f.stats, f.events, activity, f.validate, testLogger()).(*gradingService)
	svc.now = (&clock{now: baseTime.Add(48 * time.Hour)}).Now
	return svc
}

func seedSubmission(t *testing.T, f *fixture, assignment models.Assignment, student models.Student, mutate func(*models.Submission)) models.Submission {
	t.Helper()
	submittedAt := baseTime.Add(-time.Hour)
	submission := models.Submission{
		AssignmentID:   assignment.ID,
		StudentID:      student.ID,
		ClassID:        assignment.ClassID,
		AttemptNumber:  1,
		IsFinal:        true,
		SubmissionText: "answer",
		SubmittedAt:    &submittedAt,
		GradingStatus:  models.GradingStatusNotGraded,
	}
	if mutate != nil {
		mutate(&submission)
	}
	require.NoError(t, f.db.Omit("Assignment", "Student", "File").Create(&submission).Error)
	return submission
}

func TestGradeAppliesLatePenalty(t *testing.T) {
	f := newFixture(t)
	svc := newTestGradingService(f, nil)
	assignment := f.seedAssignment(t, nil)
	student := f.seedStudent(t, "Ana")
	submission := seedSubmission(t, f, assignment, student, func(s *models.Submission) {
		s.IsLate = true
		s.LateMinutes = 90
	})

	response, err := svc.Grade(context.Background(), submission.ID, dto.GradeRequest{
		Score:    ptrFloat(90),
		Feedback: "<em>Solid</em> work",
	}, teacher)
	require.NoError(t, err)
	require.NotNil(t, response.Score)
	require.InDelta(t, 81, *response.Score, 1e-9)
	require.InDelta(t, 9, response.PenaltyApplied, 1e-9)
	require.Equal(t, string(models.GradingStatusManualGraded), response.GradingStatus)
	require.Equal(t, "Solid work", response.Feedback)
	require.Len(t, response.History, 1)
	require.InDelta(t, 81, response.History[0].Score, 1e-9)
	require.InDelta(t, 9, response.History[0].Penalty, 1e-9)

	reloaded := f.reloadAssignment(t, assignment.ID)
	require.NotNil(t, reloaded.AverageScore)
	require.InDelta(t, 81, *reloaded.AverageScore, 1e-9)

	require.Equal(t, []string{EventSubmissionGraded}, f.events.types())
	require.Equal(t, []uint{assignment.ID}, f.stats.ids)

	var logs []models.ActivityLog
	require.NoError(t, f.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	require.Equal(t, models.ActivitySubmissionGraded, logs[0].Action)
	require.Equal(t, testTeacherID, logs[0].ActorID)
}

func TestGradeOnTimeHasNoPenalty(t *testing.T) {
	f := newFixture(t)
	svc := newTestGradingService(f, nil)
	assignment := f.seedAssignment(t, nil)
	student := f.seedStudent(t, "Ben")
	submission := seedSubmission(t, f, assignment, student, nil)

	response, err := svc.Grade(context.Background(), submission.ID, dto.GradeRequest{Score: ptrFloat(77.456)}, teacher)
	require.NoError(t, err)
	require.InDelta(t, 77.46, *response.Score, 1e-9)
	require.Zero(t, response.PenaltyApplied)
}

func TestGradeAveragesAllGradedFinals(t *testing.T) {
	f := newFixture(t)
	svc := newTestGradingService(f, nil)
	assignment := f.seedAssignment(t, nil)
	first := seedSubmission(t, f, assignment, f.seedStudent(t, "Cai"), nil)
	second := seedSubmission(t, f, assignment, f.seedStudent(t, "Dee"), nil)
	ctx := context.Background()

	_, err := svc.Grade(ctx, first.ID, dto.GradeRequest{Score: ptrFloat(70)}, teacher)
	require.NoError(t, err)
	_, err = svc.Grade(ctx, second.ID, dto.GradeRequest{Score: ptrFloat(85)}, teacher)
	require.NoError(t, err)

	reloaded := f.reloadAssignment(t, assignment.ID)
	require.NotNil(t, reloaded.AverageScore)
	require.InDelta(t, 77.5, *reloaded.AverageScore, 1e-9)
}

func TestGradeRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t)
	svc := newTestGradingService(f, nil)
	assignment := f.seedAssignment(t, func(a *models.Assignment) {
		a.SetRubric([]models.RubricCriterion{
			{ID: "thesis", Title: "Thesis", MaxPoints: 40},
			{ID: "evidence", Title: "Evidence", MaxPoints: 60},
		})
	})
	student := f.seedStudent(t, "Eli")
	final := seedSubmission(t, f, assignment, student, nil)
	draft := seedSubmission(t, f, assignment, student, func(s *models.Submission) {
		s.AttemptNumber = 2
		s.IsFinal = false
		s.SubmittedAt = nil
	})
	ctx := context.Background()

	tests := []struct {
		name         string
		submissionID uint
		payload      dto.GradeRequest
		actor        ActivityActor
		wantErr      error
	}{
		{
			name:         "draft",
			submissionID: draft.ID,
			payload:      dto.GradeRequest{Score: ptrFloat(50)},
			actor:        teacher,
			wantErr:      ErrNotFinal,
		},
		{
			name:         "over max score",
			submissionID: final.ID,
			payload:      dto.GradeRequest{Score: ptrFloat(100.5)},
			actor:        teacher,
			wantErr:      ErrScoreExceedsMax,
		},
		{
			name:         "unknown criterion",
			submissionID: final.ID,
			payload: dto.GradeRequest{
				Score:        ptrFloat(50),
				RubricScores: []dto.RubricScoreInput{{CriterionID: "style", Points: 5}},
			},
			actor:   teacher,
			wantErr: ErrInvalidRubricScore,
		},
		{
			name:         "criterion over points",
			submissionID: final.ID,
			payload: dto.GradeRequest{
				Score:        ptrFloat(50),
				RubricScores: []dto.RubricScoreInput{{CriterionID: "thesis", Points: 41}},
			},
			actor:   teacher,
			wantErr: ErrInvalidRubricScore,
		},
		{
			name:         "other teacher",
			submissionID: final.ID,
			payload:      dto.GradeRequest{Score: ptrFloat(50)},
			actor:        ActivityActor{ID: 99, Role: "teacher"},
			wantErr:      ErrAssignmentForbidden,
		},
		{
			name:         "missing submission",
			submissionID: final.ID + 500,
			payload:      dto.GradeRequest{Score: ptrFloat(50)},
			actor:        teacher,
			wantErr:      ErrSubmissionNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Grade(ctx, tc.submissionID, tc.payload, tc.actor)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}

	_, err := svc.Grade(ctx, final.ID, dto.GradeRequest{}, teacher)
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)

	require.Empty(t, f.events.types())
}

func TestGradeStoresRubricScores(t *testing.T) {
	f := newFixture(t)
	svc := newTestGradingService(f, nil)
	assignment := f.seedAssignment(t, func(a *models.Assignment) {
		a.SetRubric([]models.RubricCriterion{{ID: "thesis", Title: "Thesis", MaxPoints: 40}})
	})
	submission := seedSubmission(t, f, assignment, f.seedStudent(t, "Fay"), nil)

	response, err := svc.Grade(context.Background(), submission.ID, dto.GradeRequest{
		Score:        ptrFloat(35),
		RubricScores: []dto.RubricScoreInput{{CriterionID: "thesis", Points: 35, Comment: "clear"}},
	}, ActivityActor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, []models.RubricScore{{CriterionID: "thesis", Points: 35, Comment: "clear"}}, response.RubricScores)
}

func TestUpdateGradeKeepsOriginalPenalty(t *testing.T) {
	f := newFixture(t)
	svc := newTestGradingService(f, nil)
	assignment := f.seedAssignment(t, nil)
	submission := seedSubmission(t, f, assignment, f.seedStudent(t, "Gus"), func(s *models.Submission) {
		s.IsLate = true
		s.LateMinutes = 15
	})
	ctx := context.Background()

	_, err := svc.UpdateGrade(ctx, submission.ID, dto.UpdateGradeRequest{Score: ptrFloat(80)}, teacher)
	require.ErrorIs(t, err, ErrNotGraded)

	_, err = svc.UpdateGrade(ctx, submission.ID, dto.UpdateGradeRequest{}, teacher)
	require.ErrorIs(t, err, ErrEmptyGradeUpdate)

	_, err = svc.Grade(ctx, submission.ID, dto.GradeRequest{Score: ptrFloat(80)}, teacher)
	require.NoError(t, err)

	_, err = svc.UpdateGrade(ctx, submission.ID, dto.UpdateGradeRequest{Score: ptrFloat(101)}, teacher)
	require.ErrorIs(t, err, ErrScoreExceedsMax)

	response, err := svc.UpdateGrade(ctx, submission.ID, dto.UpdateGradeRequest{
		Score:    ptrFloat(95),
		Feedback: ptrString("Revised after review"),
	}, teacher)
	require.NoError(t, err)
	require.InDelta(t, 95, *response.Score, 1e-9)
	require.InDelta(t, 8, response.PenaltyApplied, 1e-9)
	require.Equal(t, "Revised after review", response.Feedback)
	require.Len(t, response.History, 2)
	require.InDelta(t, 72, response.History[0].Score, 1e-9)
	require.InDelta(t, 95, response.History[1].Score, 1e-9)

	reloaded := f.reloadAssignment(t, assignment.ID)
	require.InDelta(t, 95, *reloaded.AverageScore, 1e-9)
	require.Equal(t, []string{EventSubmissionGraded, EventSubmissionGraded}, f.events.types())
}

type failingAverageRepo struct {
	repository.AssignmentRepository
	calls int
}

func (r *failingAverageRepo) SetAverageScore(context.Context, uint, *float64) error {
	r.calls++
	return errors.New("database unavailable")
}

func TestGradeSurvivesAverageRecomputeFailure(t *testing.T) {
	f := newFixture(t)
	repo := &failingAverageRepo{AssignmentRepository: f.assignments}
	svc := newTestGradingService(f, repo)
	assignment := f.seedAssignment(t, nil)
	submission := seedSubmission(t, f, assignment, f.seedStudent(t, "Hal"), nil)

	response, err := svc.Grade(context.Background(), submission.ID, dto.GradeRequest{Score: ptrFloat(60)}, teacher)
	require.NoError(t, err)
	require.InDelta(t, 60, *response.Score, 1e-9)
	require.Equal(t, 1, repo.calls)
	require.Nil(t, f.reloadAssignment(t, assignment.ID).AverageScore)
}
