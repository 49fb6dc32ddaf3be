package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGradeStatusTransitions(t *testing.T) {
	require.True(t, GradeStatusDraft.CanTransition(GradeStatusPublished))
	require.False(t, GradeStatusDraft.CanTransition(GradeStatusFinal))
	require.True(t, GradeStatusPublished.CanTransition(GradeStatusDisputed))
	require.True(t, GradeStatusDisputed.CanTransition(GradeStatusFinal))
	require.False(t, GradeStatusFinal.CanTransition(GradeStatusPublished))
	require.False(t, GradeStatusReturned.CanTransition(GradeStatusDisputed))
}

func TestGradeRecalculate(t *testing.T) {
	grade := Grade{
		Scores:      GradeScores{Raw: 85, PointsPossible: 100},
		LetterGrade: "A",
	}

	grade.Recalculate(true)
	require.Equal(t, "A", grade.LetterGrade)
	require.Equal(t, 4.0, grade.GradePoints)
	require.Equal(t, 85.0, grade.Scores.Percentage)

	grade.Penalties = append(grade.Penalties, GradeAdjustment{Points: 90, Reason: "plagiarism"})
	grade.Bonuses = append(grade.Bonuses, GradeAdjustment{Points: 10, Reason: "extra credit"})
	grade.Recalculate(true)
	require.Equal(t, 10.0, grade.Scores.Adjusted)
	require.Equal(t, 10.0, grade.Scores.PointsEarned)
	require.Equal(t, "F", grade.LetterGrade)
	require.Equal(t, 0.0, grade.GradePoints)
}

func TestGradeVisibleToStudent(t *testing.T) {
	grade := Grade{Status: GradeStatusDraft, Visibility: GradeVisibility{Student: true}}
	require.False(t, grade.VisibleToStudent())

	grade.Status = GradeStatusPublished
	require.True(t, grade.VisibleToStudent())

	grade.Visibility.Student = false
	require.False(t, grade.VisibleToStudent())
}

func TestAssignmentDefaultsAndWindows(t *testing.T) {
	due := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	early := due.Add(-time.Hour)
	assignment := Assignment{MaxGrade: 50, DueDate: due, AvailableUntil: &early, IsActive: true}
	assignment.ApplyDefaults()

	require.Equal(t, 30.0, assignment.PassingGrade)
	require.Equal(t, 1, assignment.Attempts.Allowed)
	require.False(t, assignment.AllowsMultipleAttempts())
	require.True(t, assignment.AvailableUntil.Equal(due))

	lateUntil := due.Add(48 * time.Hour)
	assignment.AvailableUntil = &lateUntil
	require.True(t, assignment.AcceptingSubmissions(due.Add(-time.Minute)))
	require.False(t, assignment.AcceptsLateSubmission(due.Add(-time.Minute)))
	require.True(t, assignment.AcceptsLateSubmission(due.Add(24*time.Hour)))
	require.False(t, assignment.AcceptingSubmissions(due.Add(72*time.Hour)))

	assignment.IsActive = false
	require.False(t, assignment.AcceptingSubmissions(due.Add(-time.Minute)))
}

func TestSubmissionApplyScoreWithLatePenalty(t *testing.T) {
	due := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assignment := Assignment{
		MaxGrade:    100,
		DueDate:     due,
		LatePenalty: LatePenaltyPolicy{Enabled: true, Percentage: 10, PerDay: true},
	}
	submittedAt := due.Add(30 * time.Hour)
	submission := Submission{IsLate: true, SubmittedAt: &submittedAt}

	submission.ApplyScore(90, assignment)

	require.True(t, submission.Grading.IsGraded)
	require.True(t, submission.Grading.LatePenalty.Applied)
	require.Equal(t, 2, submission.Grading.LatePenalty.DaysLate)
	require.Equal(t, 20.0, submission.Grading.LatePenalty.Percentage)
	require.Equal(t, 18.0, submission.Grading.LatePenalty.PointsDeducted)
	require.Equal(t, 72.0, submission.Grading.FinalGrade)
	require.Equal(t, "C-", submission.Grading.LetterGrade)

	submission.ResetGrading()
	require.False(t, submission.Grading.IsGraded)
	require.Equal(t, SubmissionStatusSubmitted, submission.Status)
}

func TestSubmissionObjectiveScore(t *testing.T) {
	correct, wrong := true, false
	submission := Submission{Content: SubmissionContent{
		Answers: []Answer{
			{QuestionID: "q1", Type: AnswerTypeMultipleChoice, IsCorrect: &correct, Points: 4},
			{QuestionID: "q2", Type: AnswerTypeTrueFalse, IsCorrect: &wrong, Points: 2},
			{QuestionID: "q3", Type: AnswerTypeShortText, IsCorrect: &correct, Points: 5},
		},
		Code: []CodeSubmission{
			{Language: "go", Points: 6, TestResults: []TestResult{{Name: "a", Passed: true}, {Name: "b", Passed: false}, {Name: "c", Passed: true}}},
		},
	}}

	require.True(t, submission.HasScorableContent())
	require.Equal(t, 8.0, submission.ObjectiveScore())

	essay := Submission{Content: SubmissionContent{Text: "prose"}}
	require.False(t, essay.HasScorableContent())
}
