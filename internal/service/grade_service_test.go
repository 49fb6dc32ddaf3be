package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

type gradeTestEnv struct {
	*gradebookFixture
	svc           GradeService
	notifications *stubNotificationPublisher
	activity      *memoryActivityRepo
}

func newGradeTestEnv(t *testing.T) *gradeTestEnv {
	t.Helper()
	fixture := newGradebookFixture(t)
	notifications := &stubNotificationPublisher{}
	activity := &memoryActivityRepo{}
	svc := NewGradeService(fixture.store, notifications, NewActivityService(activity, testLogger()), testValidator(), testLogger())
	return &gradeTestEnv{gradebookFixture: fixture, svc: svc, notifications: notifications, activity: activity}
}

func (e *gradeTestEnv) createGrade(t *testing.T, submission models.Submission, raw float64, status string) dto.GradeResponse {
	t.Helper()
	grade, err := e.svc.Create(context.Background(), instructor, dto.GradeCreateRequest{
		StudentID:    submission.StudentID,
		AssignmentID: submission.AssignmentID,
		SubmissionID: submission.ID,
		Scores:       dto.GradeScoresRequest{Raw: raw},
		Feedback:     "Solid work",
		Status:       status,
	})
	require.NoError(t, err)
	return grade
}

func TestGradeServiceCreateThenPenaltyDerivesScores(t *testing.T) {
	env := newGradeTestEnv(t)
	submission := env.submission(t, testStudentID, 1, nil)

	grade := env.createGrade(t, submission, 80, "")
	require.Equal(t, 80.0, grade.Scores.Percentage)
	require.Equal(t, "B-", grade.LetterGrade)
	require.Equal(t, 100.0, grade.Scores.PointsPossible)
	require.Equal(t, string(models.GradeStatusDraft), grade.Status)

	updated, err := env.svc.AddPenalty(context.Background(), instructor, grade.ID, dto.GradeAdjustmentRequest{Points: 10, Reason: "missing references"})
	require.NoError(t, err)
	require.Equal(t, 70.0, updated.Scores.Adjusted)
	require.Equal(t, 70.0, updated.Scores.Percentage)
	require.Equal(t, "C-", updated.LetterGrade)
	require.Equal(t, 1.7, updated.GradePoints)
	require.Len(t, updated.Penalties, 1)

	stored := env.reloadSubmission(t, submission.ID)
	require.Equal(t, models.SubmissionStatusGraded, stored.Status)
	require.NotNil(t, stored.GradeID)
	require.Equal(t, grade.ID, *stored.GradeID)
	require.Equal(t, 80.0, stored.Grading.FinalGrade)
	require.Equal(t, "C-", stored.Grading.LetterGrade)

	assignment := env.reloadAssignment(t)
	require.Equal(t, int64(1), assignment.Statistics.GradedSubmissions)
	require.Equal(t, 70.0, assignment.Statistics.AverageGrade)
}

func TestGradeServiceBonusIsAddedAfterPenaltyClamp(t *testing.T) {
	env := newGradeTestEnv(t)
	submission := env.submission(t, testStudentID, 1, nil)
	grade := env.createGrade(t, submission, 5, "")

	_, err := env.svc.AddPenalty(context.Background(), instructor, grade.ID, dto.GradeAdjustmentRequest{Points: 20, Reason: "plagiarised section"})
	require.NoError(t, err)

	updated, err := env.svc.AddBonus(context.Background(), instructor, grade.ID, dto.GradeAdjustmentRequest{Points: 3, Reason: "extra credit"})
	require.NoError(t, err)
	require.Equal(t, 3.0, updated.Scores.Adjusted)
	require.Equal(t, 3.0, updated.Scores.Percentage)
	require.Equal(t, "F", updated.LetterGrade)
}

func TestGradeServiceCreateRejectsDuplicate(t *testing.T) {
	env := newGradeTestEnv(t)
	first := env.submission(t, testStudentID, 1, nil)
	second := env.submission(t, testStudentID, 2, nil)

	env.createGrade(t, first, 75, "")

	_, err := env.svc.Create(context.Background(), instructor, dto.GradeCreateRequest{
		StudentID:    testStudentID,
		AssignmentID: env.assignment.ID,
		SubmissionID: second.ID,
		Scores:       dto.GradeScoresRequest{Raw: 90},
	})
	require.ErrorIs(t, err, ErrGradeExists)
	require.ErrorIs(t, err, ErrConflict)

	require.Equal(t, models.SubmissionStatusSubmitted, env.reloadSubmission(t, second.ID).Status)
}

func TestGradeServiceCreateValidatesOwnershipAndScores(t *testing.T) {
	env := newGradeTestEnv(t)
	submission := env.submission(t, testStudentID, 1, nil)

	request := dto.GradeCreateRequest{
		StudentID:    testStudentID,
		AssignmentID: env.assignment.ID,
		SubmissionID: submission.ID,
		Scores:       dto.GradeScoresRequest{Raw: 50},
	}

	_, err := env.svc.Create(context.Background(), ActivityActor{ID: 99, Role: RoleTeacher}, request)
	require.ErrorIs(t, err, ErrForbidden)

	over := request
	over.Scores.Raw = 101
	_, err = env.svc.Create(context.Background(), instructor, over)
	require.ErrorIs(t, err, ErrScoreExceedsMax)
	require.ErrorIs(t, err, ErrValidation)

	wrongStudent := request
	wrongStudent.StudentID = testOtherStudent
	_, err = env.svc.Create(context.Background(), instructor, wrongStudent)
	require.ErrorIs(t, err, ErrNotFound)

	badLetter := request
	badLetter.LetterGrade = "Z"
	_, err = env.svc.Create(context.Background(), instructor, badLetter)
	require.ErrorIs(t, err, ErrInvalidLetterGrade)

	missing := request
	missing.AssignmentID = 999
	_, err = env.svc.Create(context.Background(), instructor, missing)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestGradeServiceCreateKeepsExplicitLetterWithoutAdjustments(t *testing.T) {
	env := newGradeTestEnv(t)
	submission := env.submission(t, testStudentID, 1, nil)

	grade, err := env.svc.Create(context.Background(), instructor, dto.GradeCreateRequest{
		StudentID:    testStudentID,
		AssignmentID: env.assignment.ID,
		SubmissionID: submission.ID,
		Scores:       dto.GradeScoresRequest{Raw: 89},
		LetterGrade:  "a-",
	})
	require.NoError(t, err)
	require.Equal(t, "A-", grade.LetterGrade)
	require.Equal(t, 3.7, grade.GradePoints)
	require.Equal(t, 89.0, grade.Scores.Percentage)
}

func TestGradeServiceLateSubmissionAddsPenaltyEntry(t *testing.T) {
	env := newGradeTestEnv(t)
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, env.db.Model(&models.Assignment{}).Where("id = ?", env.assignment.ID).Updates(map[string]interface{}{
		"due_date":                due,
		"late_penalty_enabled":    true,
		"late_penalty_percentage": 10,
		"late_penalty_per_day":    true,
	}).Error)

	submittedAt := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)
	submission := env.submission(t, testStudentID, 1, func(s *models.Submission) {
		s.IsLate = true
		s.SubmittedAt = &submittedAt
	})

	grade := env.createGrade(t, submission, 80, "")
	require.Len(t, grade.Penalties, 1)
	require.Equal(t, models.LatePenaltyReason, grade.Penalties[0].Reason)
	require.Equal(t, 16.0, grade.Penalties[0].Points)
	require.Equal(t, 64.0, grade.Scores.Adjusted)
	require.Equal(t, "D", grade.LetterGrade)

	stored := env.reloadSubmission(t, submission.ID)
	require.True(t, stored.Grading.LatePenalty.Applied)
	require.Equal(t, 2, stored.Grading.LatePenalty.DaysLate)
	require.Equal(t, 20.0, stored.Grading.LatePenalty.Percentage)
	require.Equal(t, 64.0, stored.Grading.FinalGrade)

	updated, err := env.svc.Update(context.Background(), instructor, grade.ID, dto.GradeUpdateRequest{Raw: ptrFloat(50)})
	require.NoError(t, err)
	require.Len(t, updated.Penalties, 1)
	require.Equal(t, 10.0, updated.Penalties[0].Points)
	require.Equal(t, 40.0, updated.Scores.Adjusted)
}

func TestGradeServiceSubmissionFinalGradeIgnoresInstructorAdjustments(t *testing.T) {
	env := newGradeTestEnv(t)
	submission := env.submission(t, testStudentID, 1, nil)
	grade := env.createGrade(t, submission, 80, "")

	updated, err := env.svc.AddBonus(context.Background(), instructor, grade.ID, dto.GradeAdjustmentRequest{Points: 5, Reason: "extension task"})
	require.NoError(t, err)
	require.Equal(t, 85.0, updated.Scores.Adjusted)

	stored := env.reloadSubmission(t, submission.ID)
	require.Equal(t, 80.0, stored.Grading.RawScore)
	require.Equal(t, 0.0, stored.Grading.LatePenalty.PointsDeducted)
	require.Equal(t, 80.0, stored.Grading.FinalGrade)
	require.Equal(t, updated.Scores.Percentage, stored.Grading.Percentage)
}

func TestGradeServiceInstructorGradeReplacesAutoGrade(t *testing.T) {
	env := newGradeTestEnv(t)
	autoGradedAt := time.Now().UTC()
	submission := env.submission(t, testStudentID, 1, func(s *models.Submission) {
		s.Status = models.SubmissionStatusGraded
		s.Grading = models.SubmissionGrading{
			IsGraded:    true,
			AutoGraded:  true,
			RawScore:    12.5,
			MaxScore:    100,
			Percentage:  13,
			LetterGrade: "F",
			FinalGrade:  12.5,
			GradedAt:    &autoGradedAt,
		}
	})

	env.createGrade(t, submission, 72, "")

	stored := env.reloadSubmission(t, submission.ID)
	require.False(t, stored.Grading.AutoGraded)
	require.Equal(t, 72.0, stored.Grading.RawScore)
	require.Equal(t, 72.0, stored.Grading.FinalGrade)
	require.NotNil(t, stored.Grading.GradedBy)
}

func TestGradeServiceUpdateRecomputesLetterAndStatistics(t *testing.T) {
	env := newGradeTestEnv(t)
	first := env.createGrade(t, env.submission(t, testStudentID, 1, nil), 80, "")
	env.createGrade(t, env.submission(t, testOtherStudent, 1, nil), 60, "")

	require.Equal(t, 70.0, env.reloadAssignment(t).Statistics.AverageGrade)

	updated, err := env.svc.Update(context.Background(), instructor, first.ID, dto.GradeUpdateRequest{
		Raw:      ptrFloat(95),
		Feedback: ptrString("<b>Great</b><script>alert(1)</script>"),
	})
	require.NoError(t, err)
	require.Equal(t, 95.0, updated.Scores.Percentage)
	require.Equal(t, "A", updated.LetterGrade)
	require.Equal(t, "<b>Great</b>", updated.Feedback)
	require.False(t, updated.Timeline.LastModifiedAt.Before(updated.Timeline.GradedAt))

	assignment := env.reloadAssignment(t)
	require.Equal(t, int64(2), assignment.Statistics.GradedSubmissions)
	require.Equal(t, 77.5, assignment.Statistics.AverageGrade)

	_, err = env.svc.Update(context.Background(), instructor, first.ID, dto.GradeUpdateRequest{PointsPossible: ptrFloat(90)})
	require.ErrorIs(t, err, ErrScoreExceedsMax)
}

func TestGradeServiceDeleteResetsSubmissionAndStatistics(t *testing.T) {
	env := newGradeTestEnv(t)
	submission := env.submission(t, testStudentID, 1, nil)
	grade := env.createGrade(t, submission, 88, "")

	require.NoError(t, env.svc.Delete(context.Background(), instructor, grade.ID))

	stored := env.reloadSubmission(t, submission.ID)
	require.Equal(t, models.SubmissionStatusSubmitted, stored.Status)
	require.Nil(t, stored.GradeID)
	require.False(t, stored.Grading.IsGraded)

	assignment := env.reloadAssignment(t)
	require.Equal(t, int64(0), assignment.Statistics.GradedSubmissions)
	require.Equal(t, 0.0, assignment.Statistics.AverageGrade)

	err := env.svc.Delete(context.Background(), instructor, grade.ID)
	require.ErrorIs(t, err, ErrGradeNotFound)

	regraded := env.createGrade(t, submission, 91, "")
	require.Equal(t, "A-", regraded.LetterGrade)
}

type failingStatsAssignments struct {
	repository.AssignmentRepository
}

func (failingStatsAssignments) UpdateGradeStatistics(context.Context, uint, int64, float64) error {
	return errors.New("statistics unavailable")
}

type failingStatsStore struct {
	repository.GradebookStore
}

func (s failingStatsStore) WithinTransaction(ctx context.Context, fn func(repository.Gradebook) error) error {
	return s.GradebookStore.WithinTransaction(ctx, func(book repository.Gradebook) error {
		book.Assignments = failingStatsAssignments{AssignmentRepository: book.Assignments}
		return fn(book)
	})
}

func TestGradeServiceCreateRollsBackWhenStatisticsFail(t *testing.T) {
	fixture := newGradebookFixture(t)
	svc := NewGradeService(failingStatsStore{GradebookStore: fixture.store}, nil, nil, testValidator(), testLogger())
	submission := fixture.submission(t, testStudentID, 1, nil)

	_, err := svc.Create(context.Background(), instructor, dto.GradeCreateRequest{
		StudentID:    testStudentID,
		AssignmentID: fixture.assignment.ID,
		SubmissionID: submission.ID,
		Scores:       dto.GradeScoresRequest{Raw: 70},
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, fixture.db.Model(&models.Grade{}).Count(&count).Error)
	require.Zero(t, count)

	stored := fixture.reloadSubmission(t, submission.ID)
	require.Equal(t, models.SubmissionStatusSubmitted, stored.Status)
	require.Nil(t, stored.GradeID)
}

func TestGradeServiceStatusLifecycle(t *testing.T) {
	env := newGradeTestEnv(t)
	submission := env.submission(t, testStudentID, 1, nil)
	grade := env.createGrade(t, submission, 82, "")

	_, err := env.svc.Get(context.Background(), student, grade.ID)
	require.ErrorIs(t, err, ErrGradeForbidden, "draft grades are hidden from students")

	_, err = env.svc.ChangeStatus(context.Background(), instructor, grade.ID, dto.GradeStatusRequest{Status: "final"})
	require.ErrorIs(t, err, ErrInvalidGradeTransition)

	published, err := env.svc.ChangeStatus(context.Background(), instructor, grade.ID, dto.GradeStatusRequest{Status: "published"})
	require.NoError(t, err)
	require.NotNil(t, published.Timeline.PublishedAt)
	require.Len(t, env.notifications.calls, 1)
	require.Equal(t, testStudentID, env.notifications.calls[0].UserID)
	require.Equal(t, NotificationGradePublished, env.notifications.calls[0].Type)

	visible, err := env.svc.Get(context.Background(), student, grade.ID)
	require.NoError(t, err)
	require.Equal(t, grade.ID, visible.ID)

	_, err = env.svc.Get(context.Background(), ActivityActor{ID: testOtherStudent, Role: RoleStudent}, grade.ID)
	require.ErrorIs(t, err, ErrGradeForbidden)

	_, err = env.svc.ChangeStatus(context.Background(), student, grade.ID, dto.GradeStatusRequest{Status: "final"})
	require.ErrorIs(t, err, ErrGradeForbidden)

	disputed, err := env.svc.ChangeStatus(context.Background(), student, grade.ID, dto.GradeStatusRequest{Status: "disputed"})
	require.NoError(t, err)
	require.Equal(t, string(models.GradeStatusDisputed), disputed.Status)
	require.Equal(t, testInstructorID, env.notifications.calls[1].UserID)
	require.Equal(t, NotificationGradeDisputed, env.notifications.calls[1].Type)

	_, err = env.svc.ChangeStatus(context.Background(), instructor, grade.ID, dto.GradeStatusRequest{Status: "final"})
	require.NoError(t, err)

	_, err = env.svc.Update(context.Background(), instructor, grade.ID, dto.GradeUpdateRequest{Raw: ptrFloat(90)})
	require.ErrorIs(t, err, ErrGradeFinalized)
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = env.svc.ChangeStatus(context.Background(), instructor, grade.ID, dto.GradeStatusRequest{Status: "published"})
	require.ErrorIs(t, err, ErrGradeFinalized)
}

func TestGradeServiceReturnMovesSubmissionToReturned(t *testing.T) {
	env := newGradeTestEnv(t)
	submission := env.submission(t, testStudentID, 1, nil)
	grade := env.createGrade(t, submission, 55, "published")
	require.Len(t, env.notifications.calls, 1)

	_, err := env.svc.ChangeStatus(context.Background(), instructor, grade.ID, dto.GradeStatusRequest{Status: "returned"})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusReturned, env.reloadSubmission(t, submission.ID).Status)
	require.Equal(t, NotificationGradeReturned, env.notifications.calls[1].Type)
}

func TestGradeServiceCommentsAndViews(t *testing.T) {
	env := newGradeTestEnv(t)
	submission := env.submission(t, testStudentID, 1, nil)
	grade := env.createGrade(t, submission, 77, "published")

	comment, err := env.svc.AddComment(context.Background(), student, grade.ID, dto.GradeCommentRequest{Content: "Could you re-check question 2?<script>x()</script>"})
	require.NoError(t, err)
	require.Equal(t, "Could you re-check question 2?", comment.Content)
	require.Equal(t, RoleStudent, comment.AuthorRole)

	_, err = env.svc.AddComment(context.Background(), student, grade.ID, dto.GradeCommentRequest{Content: "<script>x()</script>"})
	require.ErrorIs(t, err, ErrEmptyContent)

	_, err = env.svc.MarkViewed(context.Background(), instructor, grade.ID)
	require.NoError(t, err)
	viewed, err := env.svc.MarkViewed(context.Background(), student, grade.ID)
	require.NoError(t, err)
	require.Equal(t, 2, viewed.ViewCount)
	require.NotNil(t, viewed.Timeline.ViewedByStudentAt)
	require.NotNil(t, viewed.Timeline.LastViewedAt)
	require.Len(t, viewed.Comments, 1)

	firstSeen := *viewed.Timeline.ViewedByStudentAt
	again, err := env.svc.MarkViewed(context.Background(), student, grade.ID)
	require.NoError(t, err)
	require.Equal(t, 3, again.ViewCount)
	require.True(t, firstSeen.Equal(*again.Timeline.ViewedByStudentAt))
}

func TestGradeServiceRecordsActivityForMutations(t *testing.T) {
	env := newGradeTestEnv(t)
	grade := env.createGrade(t, env.submission(t, testStudentID, 1, nil), 80, "")
	_, err := env.svc.AddBonus(context.Background(), instructor, grade.ID, dto.GradeAdjustmentRequest{Points: 5, Reason: "participation"})
	require.NoError(t, err)
	require.NoError(t, env.svc.Delete(context.Background(), admin, grade.ID))

	actions := make([]string, 0, len(env.activity.entries))
	for _, entry := range env.activity.entries {
		actions = append(actions, entry.Action)
	}
	require.Equal(t, []string{"grade.create", "grade.bonus", "grade.delete"}, actions)
}

func TestGradeServiceListByAssignmentRequiresOwnership(t *testing.T) {
	env := newGradeTestEnv(t)
	env.createGrade(t, env.submission(t, testStudentID, 1, nil), 80, "")
	env.createGrade(t, env.submission(t, testOtherStudent, 1, nil), 90, "")

	grades, err := env.svc.ListByAssignment(context.Background(), instructor, env.assignment.ID)
	require.NoError(t, err)
	require.Len(t, grades, 2)

	_, err = env.svc.ListByAssignment(context.Background(), student, env.assignment.ID)
	require.ErrorIs(t, err, ErrForbidden)
}
