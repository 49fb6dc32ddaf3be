package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

var mentionPattern = regexp.MustCompile(`@(\d+)\b`)

// DiscussionService exposes course discussion use-cases.
type DiscussionService interface {
	ListThreads(ctx context.Context, actor ActivityActor, courseID uint, limit, offset int) ([]dto.DiscussionThreadResponse, error)
	GetThread(ctx context.Context, actor ActivityActor, id uint) (dto.DiscussionThreadResponse, error)
	CreateThread(ctx context.Context, actor ActivityActor, payload dto.DiscussionThreadCreateRequest) (dto.DiscussionThreadResponse, error)
	UpdateThread(ctx context.Context, actor ActivityActor, id uint, payload dto.DiscussionThreadUpdateRequest) (dto.DiscussionThreadResponse, error)
	DeleteThread(ctx context.Context, actor ActivityActor, id uint) error
	CreateReply(ctx context.Context, actor ActivityActor, threadID uint, payload dto.DiscussionReplyCreateRequest) (dto.DiscussionReplyResponse, error)
}

type discussionService struct {
	repo          repository.DiscussionRepository
	courses       repository.CourseRepository
	roster        repository.RosterRepository
	notifications NotificationPublisher
	validator     *validator.Validate
	logger        zerolog.Logger
	tracer        trace.Tracer
	sanitizer     *bluemonday.Policy
}

// NewDiscussionService constructs a discussion service.
func NewDiscussionService(repo repository.DiscussionRepository, courses repository.CourseRepository, roster repository.RosterRepository, notifications NotificationPublisher, validate *validator.Validate, logger zerolog.Logger) DiscussionService {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("br")

	return &discussionService{
		repo:          repo,
		courses:       courses,
		roster:        roster,
		notifications: notifications,
		validator:     validate,
		logger:        logger.With().Str("component", "discussion_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/gema-classroom-api/internal/service/discussion"),
		sanitizer:     policy,
	}
}

func (s *discussionService) ListThreads(ctx context.Context, actor ActivityActor, courseID uint, limit, offset int) ([]dto.DiscussionThreadResponse, error) {
	if _, err := s.authorizeCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}

	threads, err := s.repo.ListThreads(ctx, courseID, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewDiscussionThreadResponseSlice(threads), nil
}

func (s *discussionService) GetThread(ctx context.Context, actor ActivityActor, id uint) (dto.DiscussionThreadResponse, error) {
	thread, err := s.repo.GetThreadWithReplies(ctx, id)
	if err != nil {
		return dto.DiscussionThreadResponse{}, translate(err, ErrThreadNotFound)
	}
	if _, err := s.authorizeCourse(ctx, actor, thread.CourseID); err != nil {
		return dto.DiscussionThreadResponse{}, err
	}

	return dto.NewDiscussionThreadResponse(thread), nil
}

func (s *discussionService) CreateThread(ctx context.Context, actor ActivityActor, payload dto.DiscussionThreadCreateRequest) (dto.DiscussionThreadResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DiscussionThreadResponse{}, err
	}

	title := strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))
	if title == "" {
		return dto.DiscussionThreadResponse{}, ErrEmptyContent
	}

	ctx, span := s.tracer.Start(ctx, "discussion.create", trace.WithAttributes(
		attribute.Int64("discussion.course_id", int64(payload.CourseID)),
		attribute.Int64("discussion.author_id", int64(actor.ID)),
	))
	defer span.End()

	if _, err := s.authorizeCourse(ctx, actor, payload.CourseID); err != nil {
		span.SetStatus(codes.Error, "forbidden")
		return dto.DiscussionThreadResponse{}, err
	}

	thread := models.DiscussionThread{
		CourseID:   payload.CourseID,
		Title:      title,
		Body:       strings.TrimSpace(s.sanitizer.Sanitize(payload.Body)),
		AuthorID:   actor.ID,
		AuthorRole: normalizeRole(actor.Role),
		Metadata:   datatypes.JSONMap{"created_by_role": normalizeRole(actor.Role)},
	}

	if err := s.repo.CreateThread(ctx, &thread); err != nil {
		span.RecordError(err)
		return dto.DiscussionThreadResponse{}, err
	}

	s.logger.Info().Uint("thread_id", thread.ID).Uint("course_id", thread.CourseID).Uint("author_id", actor.ID).Msg("discussion thread created")

	return dto.NewDiscussionThreadResponse(thread), nil
}

func (s *discussionService) UpdateThread(ctx context.Context, actor ActivityActor, id uint, payload dto.DiscussionThreadUpdateRequest) (dto.DiscussionThreadResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DiscussionThreadResponse{}, err
	}

	thread, err := s.repo.GetThread(ctx, id)
	if err != nil {
		return dto.DiscussionThreadResponse{}, translate(err, ErrThreadNotFound)
	}
	if err := s.authorizeModeration(ctx, actor, thread); err != nil {
		return dto.DiscussionThreadResponse{}, err
	}

	if payload.Title != nil {
		title := strings.TrimSpace(s.sanitizer.Sanitize(*payload.Title))
		if title == "" {
			return dto.DiscussionThreadResponse{}, ErrEmptyContent
		}
		thread.Title = title
	}
	if payload.Body != nil {
		thread.Body = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Body))
	}

	if err := s.repo.UpdateThread(ctx, &thread); err != nil {
		return dto.DiscussionThreadResponse{}, err
	}

	return dto.NewDiscussionThreadResponse(thread), nil
}

func (s *discussionService) DeleteThread(ctx context.Context, actor ActivityActor, id uint) error {
	thread, err := s.repo.GetThread(ctx, id)
	if err != nil {
		return translate(err, ErrThreadNotFound)
	}
	if err := s.authorizeModeration(ctx, actor, thread); err != nil {
		return err
	}

	if err := s.repo.DeleteThread(ctx, id); err != nil {
		return translate(err, ErrThreadNotFound)
	}

	s.logger.Info().Uint("thread_id", id).Uint("actor_id", actor.ID).Msg("discussion thread deleted")
	return nil
}

// CreateReply posts to a thread and notifies the thread author and mentioned users (@<id>).
func (s *discussionService) CreateReply(ctx context.Context, actor ActivityActor, threadID uint, payload dto.DiscussionReplyCreateRequest) (dto.DiscussionReplyResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DiscussionReplyResponse{}, err
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if content == "" {
		return dto.DiscussionReplyResponse{}, ErrEmptyContent
	}

	thread, err := s.repo.GetThread(ctx, threadID)
	if err != nil {
		return dto.DiscussionReplyResponse{}, translate(err, ErrThreadNotFound)
	}
	if _, err := s.authorizeCourse(ctx, actor, thread.CourseID); err != nil {
		return dto.DiscussionReplyResponse{}, err
	}

	reply := models.DiscussionReply{
		ThreadID:   thread.ID,
		AuthorID:   actor.ID,
		AuthorRole: normalizeRole(actor.Role),
		Content:    content,
	}

	if err := s.repo.CreateReply(ctx, &reply); err != nil {
		return dto.DiscussionReplyResponse{}, err
	}

	s.dispatchNotifications(ctx, thread, reply)

	return dto.NewDiscussionReplyResponse(reply), nil
}

// authorizeCourse admits admins, the course instructor and enrolled students.
func (s *discussionService) authorizeCourse(ctx context.Context, actor ActivityActor, courseID uint) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return models.Course{}, translate(err, ErrCourseNotFound)
	}
	if actor.Owns(course.InstructorID) {
		return course, nil
	}

	enrolled, err := s.roster.IsEnrolled(ctx, courseID, actor.ID)
	if err != nil {
		return models.Course{}, err
	}
	if !enrolled {
		return models.Course{}, ErrDiscussionForbidden
	}
	return course, nil
}

// authorizeModeration admits the thread author, the course instructor and admins.
func (s *discussionService) authorizeModeration(ctx context.Context, actor ActivityActor, thread models.DiscussionThread) error {
	if actor.Owns(thread.AuthorID) {
		return nil
	}
	course, err := s.courses.GetByID(ctx, thread.CourseID)
	if err != nil {
		return translate(err, ErrCourseNotFound)
	}
	if actor.Owns(course.InstructorID) {
		return nil
	}
	return ErrDiscussionForbidden
}

func (s *discussionService) dispatchNotifications(ctx context.Context, thread models.DiscussionThread, reply models.DiscussionReply) {
	if s.notifications == nil {
		return
	}

	if thread.AuthorID != reply.AuthorID {
		notify(ctx, s.notifications, s.logger, thread.AuthorID, NotificationDiscussionReply,
			fmt.Sprintf("New reply in thread '%s'", thread.Title))
	}

	for _, userID := range extractMentions(reply.Content) {
		if userID == reply.AuthorID || userID == thread.AuthorID {
			continue
		}
		notify(ctx, s.notifications, s.logger, userID, NotificationDiscussionMention,
			fmt.Sprintf("You were mentioned in thread '%s'", thread.Title))
	}
}

func extractMentions(content string) []uint {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	seen := make(map[uint]struct{}, len(matches))
	mentions := make([]uint, 0, len(matches))
	for _, match := range matches {
		id, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil || id == 0 {
			continue
		}
		if _, ok := seen[uint(id)]; ok {
			continue
		}
		seen[uint(id)] = struct{}{}
		mentions = append(mentions, uint(id))
	}
	return mentions
}
