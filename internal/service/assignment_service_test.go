package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

func newAssignmentTestService(t *testing.T) (*gradebookFixture, AssignmentService) {
	t.Helper()
	fixture := newGradebookFixture(t)
	svc := NewAssignmentService(fixture.store, repository.NewCourseRepository(fixture.db), fixture.roster, testValidator(), testLogger())
	return fixture, svc
}

func TestAssignmentServiceCreateAppliesDefaults(t *testing.T) {
	fixture, svc := newAssignmentTestService(t)
	due := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	until := due.Add(-time.Hour).Format(time.RFC3339)

	assignment, err := svc.Create(context.Background(), instructor, dto.AssignmentCreateRequest{
		CourseID:       fixture.course.ID,
		Title:          "Linked lists",
		Type:           models.AssignmentTypeCode,
		MaxGrade:       50,
		DueDate:        due.Format(time.RFC3339),
		AvailableUntil: &until,
	})
	require.NoError(t, err)
	require.True(t, assignment.IsActive)
	require.Equal(t, 30.0, assignment.PassingGrade)
	require.Equal(t, 1, assignment.Attempts.Allowed)
	require.NotNil(t, assignment.AvailableUntil)
	require.True(t, assignment.AvailableUntil.Equal(due), "available_until is clamped to the due date")
	require.Equal(t, testInstructorID, assignment.InstructorID)
}

func TestAssignmentServiceCreateRequiresCourseOwnership(t *testing.T) {
	fixture, svc := newAssignmentTestService(t)

	_, err := svc.Create(context.Background(), ActivityActor{ID: 77, Role: RoleTeacher}, dto.AssignmentCreateRequest{
		CourseID: fixture.course.ID,
		Title:    "Not mine",
		Type:     models.AssignmentTypeEssay,
		MaxGrade: 10,
		DueDate:  time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
	require.ErrorIs(t, err, ErrAssignmentForbidden)

	_, err = svc.Create(context.Background(), instructor, dto.AssignmentCreateRequest{
		CourseID: 999,
		Title:    "Orphan",
		Type:     models.AssignmentTypeEssay,
		MaxGrade: 10,
		DueDate:  time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestAssignmentServiceUpdateAndDelete(t *testing.T) {
	fixture, svc := newAssignmentTestService(t)

	updated, err := svc.Update(context.Background(), instructor, fixture.assignment.ID, dto.AssignmentUpdateRequest{
		Title:    ptrString("Essay 1 (revised)"),
		Attempts: &dto.AttemptPolicyRequest{Allowed: 3},
	})
	require.NoError(t, err)
	require.Equal(t, "Essay 1 (revised)", updated.Title)
	require.Equal(t, 3, updated.Attempts.Allowed)

	_, err = svc.Update(context.Background(), student, fixture.assignment.ID, dto.AssignmentUpdateRequest{Title: ptrString("hacked")})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(context.Background(), instructor, fixture.assignment.ID, dto.AssignmentUpdateRequest{PassingGrade: ptrFloat(500)})
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.Delete(context.Background(), admin, fixture.assignment.ID))
	require.False(t, fixture.reloadAssignment(t).IsActive)

	listed, err := svc.List(context.Background(), fixture.course.ID)
	require.NoError(t, err)
	require.Empty(t, listed)

	err = svc.Delete(context.Background(), instructor, 404)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestAssignmentServiceUpdateRederivesDefaultPassingGrade(t *testing.T) {
	fixture, svc := newAssignmentTestService(t)
	require.Equal(t, 60.0, fixture.assignment.PassingGrade)

	lowered, err := svc.Update(context.Background(), instructor, fixture.assignment.ID, dto.AssignmentUpdateRequest{MaxGrade: ptrFloat(50)})
	require.NoError(t, err)
	require.Equal(t, 50.0, lowered.MaxGrade)
	require.Equal(t, 30.0, lowered.PassingGrade)

	custom, err := svc.Update(context.Background(), instructor, fixture.assignment.ID, dto.AssignmentUpdateRequest{PassingGrade: ptrFloat(40)})
	require.NoError(t, err)
	require.Equal(t, 40.0, custom.PassingGrade)

	raised, err := svc.Update(context.Background(), instructor, fixture.assignment.ID, dto.AssignmentUpdateRequest{MaxGrade: ptrFloat(80)})
	require.NoError(t, err)
	require.Equal(t, 40.0, raised.PassingGrade)

	_, err = svc.Update(context.Background(), instructor, fixture.assignment.ID, dto.AssignmentUpdateRequest{MaxGrade: ptrFloat(20)})
	require.ErrorIs(t, err, ErrValidation)
}

func TestAssignmentServiceRefreshStatisticsFullRescan(t *testing.T) {
	fixture, svc := newAssignmentTestService(t)
	grades := NewGradeService(fixture.store, nil, nil, testValidator(), testLogger())

	for _, tc := range []struct {
		studentID uint
		raw       float64
	}{{testStudentID, 92}, {testOtherStudent, 68}} {
		submission := fixture.submission(t, tc.studentID, 1, nil)
		_, err := grades.Create(context.Background(), instructor, dto.GradeCreateRequest{
			StudentID:    tc.studentID,
			AssignmentID: fixture.assignment.ID,
			SubmissionID: submission.ID,
			Scores:       dto.GradeScoresRequest{Raw: tc.raw},
		})
		require.NoError(t, err)
	}
	fixture.submission(t, testStudentID, 2, func(s *models.Submission) { s.Status = models.SubmissionStatusDraft })

	stats, err := svc.RefreshStatistics(context.Background(), instructor, fixture.assignment.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.TotalSubmissions)
	require.Equal(t, int64(2), stats.GradedSubmissions)
	require.Equal(t, 80.0, stats.AverageGrade)
	require.Equal(t, 92.0, stats.HighestGrade)
	require.Equal(t, 68.0, stats.LowestGrade)
	require.Equal(t, 100.0, stats.SubmissionRate)

	stored := fixture.reloadAssignment(t)
	require.Equal(t, 92.0, stored.Statistics.HighestGrade)

	_, err = svc.RefreshStatistics(context.Background(), student, fixture.assignment.ID)
	require.ErrorIs(t, err, ErrAssignmentForbidden)
}
