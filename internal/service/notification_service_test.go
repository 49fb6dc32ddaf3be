package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

func TestNotificationServicePublishPersistsAndStreams(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil, nil, "", testValidator(), testLogger())

	stream, cleanup := svc.Subscribe(testStudentID)
	defer cleanup()

	published, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  testStudentID,
		Type:    NotificationGradePublished,
		Message: "<b>Your grade</b> is ready",
	})
	require.NoError(t, err)
	require.Equal(t, "Your grade is ready", published.Message)

	select {
	case received := <-stream:
		require.Equal(t, published.ID, received.ID)
	case <-time.After(time.Second):
		t.Fatal("expected notification on stream")
	}

	_, err = svc.Publish(context.Background(), dto.NotificationCreateRequest{UserID: testStudentID, Type: "generic", Message: "<script>x()</script>"})
	require.ErrorIs(t, err, ErrEmptyContent)

	listed, err := svc.List(context.Background(), testStudentID, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	count, err := svc.UnreadCount(context.Background(), testStudentID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	read, err := svc.MarkRead(context.Background(), published.ID, testStudentID)
	require.NoError(t, err)
	require.True(t, read.Read)
	require.NotNil(t, read.ReadAt)

	again, err := svc.MarkRead(context.Background(), published.ID, testStudentID)
	require.NoError(t, err)
	require.True(t, again.ReadAt.Equal(*read.ReadAt))

	unread, err := svc.List(context.Background(), testStudentID, true, 10, 0)
	require.NoError(t, err)
	require.Empty(t, unread)

	_, err = svc.MarkRead(context.Background(), published.ID, testOtherStudent)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	for _, message := range []string{"first", "second"} {
		_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{UserID: testStudentID, Type: NotificationDiscussionReply, Message: message})
		require.NoError(t, err)
	}
	updated, err := svc.MarkAllRead(context.Background(), testStudentID)
	require.NoError(t, err)
	require.Equal(t, int64(2), updated)

	count, err = svc.UnreadCount(context.Background(), testStudentID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestNotificationServiceFansOutAcrossNodesViaRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	db := setupTestDB(t)
	repo := repository.NewNotificationRepository(db)
	origin := NewNotificationService(repo, redisClient, nil, "gema", testValidator(), testLogger())
	replica := NewNotificationService(repo, redisClient, nil, "gema", testValidator(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	replica.Start(ctx)

	require.Eventually(t, func() bool {
		return server.PubSubNumSub("gema:notifications")["gema:notifications"] == 1
	}, 2*time.Second, 10*time.Millisecond)

	stream, cleanup := replica.Subscribe(testInstructorID)
	defer cleanup()

	_, err = origin.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  testInstructorID,
		Type:    NotificationGradeDisputed,
		Message: "A grade was disputed",
	})
	require.NoError(t, err)

	select {
	case received := <-stream:
		require.Equal(t, NotificationGradeDisputed, received.Type)
		require.Equal(t, testInstructorID, received.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected notification relayed through redis")
	}
}

func TestNotificationServiceRelaysRemoteNotificationOnce(t *testing.T) {
	server := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	replica := NewNotificationService(repository.NewNotificationRepository(setupTestDB(t)), redisClient, nil, "gema", testValidator(), testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	replica.Start(ctx)

	require.Eventually(t, func() bool {
		return server.PubSubNumSub("gema:notifications")["gema:notifications"] == 1
	}, 2*time.Second, 10*time.Millisecond)

	stream, cleanup := replica.Subscribe(testStudentID)
	defer cleanup()

	payload, err := json.Marshal(notificationEvent{
		Source:       "other-node",
		Notification: dto.NotificationResponse{ID: 41, UserID: testStudentID, Type: NotificationGradePublished, Message: "Your grade is ready"},
		SentAt:       time.Now().UTC(),
	})
	require.NoError(t, err)

	// the same event arriving over two transports
	require.NoError(t, redisClient.Publish(context.Background(), "gema:notifications", payload).Err())
	require.NoError(t, redisClient.Publish(context.Background(), "gema:notifications", payload).Err())

	select {
	case received := <-stream:
		require.Equal(t, uint(41), received.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected relayed notification")
	}

	select {
	case duplicate := <-stream:
		t.Fatalf("notification %d delivered twice", duplicate.ID)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNotificationServiceFanOutReportsTransportErrors(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	defer redisClient.Close()
	server.Close()

	svc := NewNotificationService(repository.NewNotificationRepository(setupTestDB(t)), redisClient, nil, "gema", testValidator(), testLogger())

	published, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  testStudentID,
		Type:    NotificationGradePublished,
		Message: "Your grade is ready",
	})
	require.NoError(t, err)

	err = svc.(*notificationService).fanOut(context.Background(), published)
	require.ErrorContains(t, err, "redis publish")
}
