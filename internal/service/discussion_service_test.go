package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

func newDiscussionTestService(t *testing.T) (*gradebookFixture, DiscussionService, *stubNotificationPublisher) {
	t.Helper()
	fixture := newGradebookFixture(t)
	notifications := &stubNotificationPublisher{}
	svc := NewDiscussionService(
		repository.NewDiscussionRepository(fixture.db),
		repository.NewCourseRepository(fixture.db),
		fixture.roster,
		notifications,
		testValidator(),
		testLogger(),
	)
	return fixture, svc, notifications
}

func TestDiscussionServiceCreateReplySendsNotifications(t *testing.T) {
	fixture, svc, notifications := newDiscussionTestService(t)

	thread, err := svc.CreateThread(context.Background(), instructor, dto.DiscussionThreadCreateRequest{
		CourseID: fixture.course.ID,
		Title:    "Weekly Standup",
		Body:     "Share your progress",
	})
	require.NoError(t, err)
	require.Equal(t, testInstructorID, thread.AuthorID)

	reply, err := svc.CreateReply(context.Background(), student, thread.ID, dto.DiscussionReplyCreateRequest{
		Content: "<script>alert(1)</script>Hello @21 and @21 and @20",
	})
	require.NoError(t, err)
	require.Equal(t, "Hello @21 and @21 and @20", reply.Content)
	require.Equal(t, RoleStudent, reply.AuthorRole)

	require.Len(t, notifications.calls, 2)
	require.Equal(t, testInstructorID, notifications.calls[0].UserID)
	require.Equal(t, NotificationDiscussionReply, notifications.calls[0].Type)
	require.Equal(t, testOtherStudent, notifications.calls[1].UserID)
	require.Equal(t, NotificationDiscussionMention, notifications.calls[1].Type)

	loaded, err := svc.GetThread(context.Background(), student, thread.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Replies, 1)
}

func TestDiscussionServiceRequiresCourseMembership(t *testing.T) {
	fixture, svc, _ := newDiscussionTestService(t)
	outsider := ActivityActor{ID: 55, Role: RoleStudent}

	_, err := svc.CreateThread(context.Background(), outsider, dto.DiscussionThreadCreateRequest{CourseID: fixture.course.ID, Title: "Hello there"})
	require.ErrorIs(t, err, ErrDiscussionForbidden)

	thread, err := svc.CreateThread(context.Background(), student, dto.DiscussionThreadCreateRequest{CourseID: fixture.course.ID, Title: "Question about essay"})
	require.NoError(t, err)

	_, err = svc.CreateReply(context.Background(), outsider, thread.ID, dto.DiscussionReplyCreateRequest{Content: "me too"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.ListThreads(context.Background(), outsider, fixture.course.ID, 10, 0)
	require.ErrorIs(t, err, ErrForbidden)

	threads, err := svc.ListThreads(context.Background(), admin, fixture.course.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, threads, 1)

	_, err = svc.CreateThread(context.Background(), student, dto.DiscussionThreadCreateRequest{CourseID: 404, Title: "Missing course"})
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestDiscussionServiceModeration(t *testing.T) {
	fixture, svc, _ := newDiscussionTestService(t)
	other := ActivityActor{ID: testOtherStudent, Role: RoleStudent}

	thread, err := svc.CreateThread(context.Background(), student, dto.DiscussionThreadCreateRequest{CourseID: fixture.course.ID, Title: "Study group"})
	require.NoError(t, err)

	_, err = svc.UpdateThread(context.Background(), other, thread.ID, dto.DiscussionThreadUpdateRequest{Title: ptrString("Hijacked")})
	require.ErrorIs(t, err, ErrDiscussionForbidden)

	renamed, err := svc.UpdateThread(context.Background(), student, thread.ID, dto.DiscussionThreadUpdateRequest{Title: ptrString("Study group (Friday)")})
	require.NoError(t, err)
	require.Equal(t, "Study group (Friday)", renamed.Title)

	require.ErrorIs(t, svc.DeleteThread(context.Background(), other, thread.ID), ErrDiscussionForbidden)
	require.NoError(t, svc.DeleteThread(context.Background(), instructor, thread.ID))

	_, err = svc.GetThread(context.Background(), student, thread.ID)
	require.ErrorIs(t, err, ErrThreadNotFound)
}
