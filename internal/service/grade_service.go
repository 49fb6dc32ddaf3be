package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/grading"
	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/observability"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

// GradeService issues and maintains instructor grades. Every mutation writes the
// grade, its submission and the assignment statistics in one transaction.
type GradeService interface {
	Create(ctx context.Context, actor ActivityActor, payload dto.GradeCreateRequest) (dto.GradeResponse, error)
	Get(ctx context.Context, actor ActivityActor, id uint) (dto.GradeResponse, error)
	ListByAssignment(ctx context.Context, actor ActivityActor, assignmentID uint) ([]dto.GradeResponse, error)
	Update(ctx context.Context, actor ActivityActor, id uint, payload dto.GradeUpdateRequest) (dto.GradeResponse, error)
	Delete(ctx context.Context, actor ActivityActor, id uint) error
	AddPenalty(ctx context.Context, actor ActivityActor, id uint, payload dto.GradeAdjustmentRequest) (dto.GradeResponse, error)
	AddBonus(ctx context.Context, actor ActivityActor, id uint, payload dto.GradeAdjustmentRequest) (dto.GradeResponse, error)
	ChangeStatus(ctx context.Context, actor ActivityActor, id uint, payload dto.GradeStatusRequest) (dto.GradeResponse, error)
	AddComment(ctx context.Context, actor ActivityActor, id uint, payload dto.GradeCommentRequest) (dto.GradeCommentResponse, error)
	MarkViewed(ctx context.Context, actor ActivityActor, id uint) (dto.GradeResponse, error)
}

type gradeService struct {
	store         repository.GradebookStore
	notifications NotificationPublisher
	activity      ActivityRecorder
	validator     *validator.Validate
	logger        zerolog.Logger
	tracer        trace.Tracer
	sanitizer     *bluemonday.Policy
	now           func() time.Time
}

// NewGradeService constructs the grade service.
func NewGradeService(store repository.GradebookStore, notifications NotificationPublisher, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) GradeService {
	return &gradeService{
		store:         store,
		notifications: notifications,
		activity:      activity,
		validator:     validate,
		logger:        logger.With().Str("component", "grade_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/gema-classroom-api/internal/service/grade"),
		sanitizer:     bluemonday.UGCPolicy(),
		now:           time.Now,
	}
}

func (s *gradeService) Create(ctx context.Context, actor ActivityActor, payload dto.GradeCreateRequest) (dto.GradeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grades.create", trace.WithAttributes(
		attribute.Int64("grade.student_id", int64(payload.StudentID)),
		attribute.Int64("grade.assignment_id", int64(payload.AssignmentID)),
		attribute.Int64("grade.submission_id", int64(payload.SubmissionID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.GradeResponse{}, s.fail(span, "create", err)
	}

	letter := normalizeLetter(payload.LetterGrade)
	if letter != "" && !grading.IsLetter(letter) {
		return dto.GradeResponse{}, s.fail(span, "create", ErrInvalidLetterGrade)
	}

	var (
		grade      models.Grade
		assignment models.Assignment
	)
	err := s.store.WithinTransaction(ctx, func(book repository.Gradebook) error {
		var err error
		assignment, err = book.Assignments.GetByID(ctx, payload.AssignmentID)
		if err != nil {
			return translate(err, ErrAssignmentNotFound)
		}
		if !actor.Owns(assignment.InstructorID) {
			return ErrGradeForbidden
		}

		submission, err := book.Submissions.GetByID(ctx, payload.SubmissionID)
		if err != nil {
			return translate(err, ErrSubmissionNotFound)
		}
		if submission.StudentID != payload.StudentID || submission.AssignmentID != assignment.ID {
			return ErrSubmissionNotFound
		}
		if submission.Status == models.SubmissionStatusDraft {
			return ErrSubmissionNotSubmitted
		}

		if _, err := book.Grades.FindByStudentAndAssignment(ctx, payload.StudentID, assignment.ID); err == nil {
			return ErrGradeExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		possible := payload.Scores.PointsPossible
		if possible <= 0 {
			possible = assignment.MaxGrade
		}
		if payload.Scores.Raw > possible {
			return ErrScoreExceedsMax
		}

		now := s.now()
		visible := true
		if payload.VisibleToStudent != nil {
			visible = *payload.VisibleToStudent
		}
		status := models.GradeStatusDraft
		if payload.Status != "" {
			status = models.GradeStatus(payload.Status)
		}

		grade = models.Grade{
			StudentID:    payload.StudentID,
			AssignmentID: assignment.ID,
			SubmissionID: submission.ID,
			CourseID:     assignment.CourseID,
			InstructorID: assignment.InstructorID,
			Scores: models.GradeScores{
				Raw:            payload.Scores.Raw,
				PointsPossible: possible,
			},
			LetterGrade: letter,
			Penalties:   []models.GradeAdjustment{},
			Bonuses:     []models.GradeAdjustment{},
			Feedback:    s.sanitizeFeedback(payload.Feedback),
			Status:      status,
			Visibility:  models.GradeVisibility{Student: visible},
			Timeline: models.GradeTimeline{
				GradedAt:       now,
				LastModifiedAt: now,
			},
		}
		if status == models.GradeStatusPublished {
			grade.Timeline.PublishedAt = &now
		}

		submission.ApplyScore(grade.Scores.Raw, assignment)
		applyLatePenalty(&grade, submission.Grading.LatePenalty, actor.ID, now)
		grade.Recalculate(true)

		if err := book.Grades.Create(ctx, &grade); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrGradeExists
			}
			return err
		}

		syncSubmission(&submission, grade, actor.ID, now)
		submission.Status = models.SubmissionStatusGraded
		submission.GradeID = &grade.ID
		if err := book.Submissions.Update(ctx, &submission); err != nil {
			return err
		}

		return recomputeGradeStatistics(ctx, book, assignment.ID)
	})
	if err != nil {
		return dto.GradeResponse{}, s.fail(span, "create", err)
	}

	observability.ObserveGrading("create", nil)
	span.SetAttributes(attribute.Int64("grade.id", int64(grade.ID)), attribute.Float64("grade.percentage", grade.Scores.Percentage))

	s.logger.Info().
		Uint("grade_id", grade.ID).
		Uint("submission_id", grade.SubmissionID).
		Float64("percentage", grade.Scores.Percentage).
		Str("letter_grade", grade.LetterGrade).
		Msg("grade created")

	recordActivity(ctx, s.activity, s.logger, actor, "grade.create", "grade", grade.ID, map[string]interface{}{
		"assignment_id": grade.AssignmentID,
		"student_id":    grade.StudentID,
		"percentage":    grade.Scores.Percentage,
		"letter_grade":  grade.LetterGrade,
	})

	if grade.Status == models.GradeStatusPublished && grade.Visibility.Student {
		notify(ctx, s.notifications, s.logger, grade.StudentID, NotificationGradePublished,
			fmt.Sprintf("Your grade for '%s' has been published", assignment.Title))
	}

	return dto.NewGradeResponse(grade), nil
}

func (s *gradeService) Get(ctx context.Context, actor ActivityActor, id uint) (dto.GradeResponse, error) {
	grade, err := s.store.Gradebook().Grades.GetByID(ctx, id)
	if err != nil {
		return dto.GradeResponse{}, translate(err, ErrGradeNotFound)
	}
	if !canReadGrade(actor, grade) {
		return dto.GradeResponse{}, ErrGradeForbidden
	}

	return dto.NewGradeResponse(grade), nil
}

func (s *gradeService) ListByAssignment(ctx context.Context, actor ActivityActor, assignmentID uint) ([]dto.GradeResponse, error) {
	book := s.store.Gradebook()
	assignment, err := book.Assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, translate(err, ErrAssignmentNotFound)
	}
	if !actor.Owns(assignment.InstructorID) {
		return nil, ErrGradeForbidden
	}

	grades, err := book.Grades.ListByAssignment(ctx, assignment.ID)
	if err != nil {
		return nil, err
	}

	return dto.NewGradeResponseSlice(grades), nil
}

// Update merges score and feedback changes. A new raw score recomputes the late penalty entry.
func (s *gradeService) Update(ctx context.Context, actor ActivityActor, id uint, payload dto.GradeUpdateRequest) (dto.GradeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grades.update", trace.WithAttributes(attribute.Int64("grade.id", int64(id))))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.GradeResponse{}, s.fail(span, "update", err)
	}

	var grade models.Grade
	err := s.mutate(ctx, actor, id, func(book repository.Gradebook, current *models.Grade, submission *models.Submission, now time.Time) error {
		scoresChanged := false
		if payload.PointsPossible != nil && *payload.PointsPossible != current.Scores.PointsPossible {
			current.Scores.PointsPossible = *payload.PointsPossible
			scoresChanged = true
		}
		if payload.Raw != nil && *payload.Raw != current.Scores.Raw {
			current.Scores.Raw = *payload.Raw
			scoresChanged = true
		}
		if current.Scores.Raw > current.Scores.PointsPossible {
			return ErrScoreExceedsMax
		}

		keepLetter := !scoresChanged
		if payload.LetterGrade != nil {
			letter := normalizeLetter(*payload.LetterGrade)
			if !grading.IsLetter(letter) {
				return ErrInvalidLetterGrade
			}
			current.LetterGrade = letter
			keepLetter = true
		}
		if payload.Feedback != nil {
			current.Feedback = s.sanitizeFeedback(*payload.Feedback)
		}
		if payload.VisibleToStudent != nil {
			current.Visibility.Student = *payload.VisibleToStudent
		}

		if scoresChanged {
			submission.ApplyScore(current.Scores.Raw, submission.Assignment)
			applyLatePenalty(current, submission.Grading.LatePenalty, actor.ID, now)
		}
		current.Recalculate(keepLetter)
		grade = *current
		return nil
	})
	if err != nil {
		return dto.GradeResponse{}, s.fail(span, "update", err)
	}

	observability.ObserveGrading("update", nil)
	s.logger.Info().Uint("grade_id", grade.ID).Float64("percentage", grade.Scores.Percentage).Msg("grade updated")
	recordActivity(ctx, s.activity, s.logger, actor, "grade.update", "grade", grade.ID, map[string]interface{}{
		"percentage":   grade.Scores.Percentage,
		"letter_grade": grade.LetterGrade,
	})

	return dto.NewGradeResponse(grade), nil
}

// Delete removes the grade and returns its submission to the submitted state.
func (s *gradeService) Delete(ctx context.Context, actor ActivityActor, id uint) error {
	ctx, span := s.tracer.Start(ctx, "grades.delete", trace.WithAttributes(attribute.Int64("grade.id", int64(id))))
	defer span.End()

	var grade models.Grade
	err := s.store.WithinTransaction(ctx, func(book repository.Gradebook) error {
		var err error
		grade, err = book.Grades.GetByID(ctx, id)
		if err != nil {
			return translate(err, ErrGradeNotFound)
		}
		if !actor.Owns(grade.InstructorID) {
			return ErrGradeForbidden
		}

		submission, err := book.Submissions.GetByID(ctx, grade.SubmissionID)
		switch {
		case err == nil:
			submission.ResetGrading()
			if err := book.Submissions.Update(ctx, &submission); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := book.Grades.Delete(ctx, grade.ID); err != nil {
			return translate(err, ErrGradeNotFound)
		}

		return recomputeGradeStatistics(ctx, book, grade.AssignmentID)
	})
	if err != nil {
		return s.fail(span, "delete", err)
	}

	observability.ObserveGrading("delete", nil)
	s.logger.Info().Uint("grade_id", id).Uint("assignment_id", grade.AssignmentID).Msg("grade deleted")
	recordActivity(ctx, s.activity, s.logger, actor, "grade.delete", "grade", id, map[string]interface{}{
		"assignment_id": grade.AssignmentID,
		"student_id":    grade.StudentID,
	})

	return nil
}

func (s *gradeService) AddPenalty(ctx context.Context, actor ActivityActor, id uint, payload dto.GradeAdjustmentRequest) (dto.GradeResponse, error) {
	return s.adjust(ctx, actor, id, payload, "penalty")
}

func (s *gradeService) AddBonus(ctx context.Context, actor ActivityActor, id uint, payload dto.GradeAdjustmentRequest) (dto.GradeResponse, error) {
	return s.adjust(ctx, actor, id, payload, "bonus")
}

// adjust appends a penalty or bonus and re-derives the scores from the summed lists.
func (s *gradeService) adjust(ctx context.Context, actor ActivityActor, id uint, payload dto.GradeAdjustmentRequest, kind string) (dto.GradeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grades."+kind, trace.WithAttributes(
		attribute.Int64("grade.id", int64(id)),
		attribute.Float64("grade.adjustment_points", payload.Points),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.GradeResponse{}, s.fail(span, kind, err)
	}

	var grade models.Grade
	err := s.mutate(ctx, actor, id, func(_ repository.Gradebook, current *models.Grade, _ *models.Submission, now time.Time) error {
		entry := models.GradeAdjustment{
			Points:    payload.Points,
			Reason:    strings.TrimSpace(s.sanitizer.Sanitize(payload.Reason)),
			AppliedBy: actor.ID,
			AppliedAt: now,
		}
		if kind == "penalty" {
			current.Penalties = append(current.Penalties, entry)
		} else {
			current.Bonuses = append(current.Bonuses, entry)
		}
		current.Recalculate(false)
		grade = *current
		return nil
	})
	if err != nil {
		return dto.GradeResponse{}, s.fail(span, kind, err)
	}

	observability.ObserveGrading(kind, nil)
	s.logger.Info().
		Uint("grade_id", grade.ID).
		Str("kind", kind).
		Float64("points", payload.Points).
		Float64("adjusted", grade.Scores.Adjusted).
		Msg("grade adjusted")
	recordActivity(ctx, s.activity, s.logger, actor, "grade."+kind, "grade", grade.ID, map[string]interface{}{
		"points":     payload.Points,
		"reason":     payload.Reason,
		"adjusted":   grade.Scores.Adjusted,
		"percentage": grade.Scores.Percentage,
	})

	return dto.NewGradeResponse(grade), nil
}

// ChangeStatus moves the grade through its publication states. Students may only dispute.
func (s *gradeService) ChangeStatus(ctx context.Context, actor ActivityActor, id uint, payload dto.GradeStatusRequest) (dto.GradeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grades.status", trace.WithAttributes(
		attribute.Int64("grade.id", int64(id)),
		attribute.String("grade.status", payload.Status),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.GradeResponse{}, s.fail(span, "status", err)
	}
	next := models.GradeStatus(payload.Status)

	var (
		grade      models.Grade
		assignment models.Assignment
	)
	err := s.store.WithinTransaction(ctx, func(book repository.Gradebook) error {
		var err error
		grade, err = book.Grades.GetByID(ctx, id)
		if err != nil {
			return translate(err, ErrGradeNotFound)
		}

		if actor.IsStudent() {
			if grade.StudentID != actor.ID || !grade.VisibleToStudent() {
				return ErrGradeForbidden
			}
			if next != models.GradeStatusDisputed {
				return ErrGradeForbidden
			}
		} else if !actor.Owns(grade.InstructorID) {
			return ErrGradeForbidden
		}

		if grade.Status == models.GradeStatusFinal {
			return ErrGradeFinalized
		}
		if !grade.Status.CanTransition(next) {
			return ErrInvalidGradeTransition
		}

		now := s.now()
		grade.Status = next
		grade.Timeline.LastModifiedAt = now
		if next == models.GradeStatusPublished {
			grade.Timeline.PublishedAt = &now
		}
		if err := book.Grades.Update(ctx, &grade); err != nil {
			return err
		}

		submission, err := book.Submissions.GetByID(ctx, grade.SubmissionID)
		if err != nil {
			return translate(err, ErrSubmissionNotFound)
		}
		assignment = submission.Assignment

		switch next {
		case models.GradeStatusReturned:
			submission.Status = models.SubmissionStatusReturned
		case models.GradeStatusPublished, models.GradeStatusFinal:
			submission.Status = models.SubmissionStatusGraded
		default:
			return nil
		}
		return book.Submissions.Update(ctx, &submission)
	})
	if err != nil {
		return dto.GradeResponse{}, s.fail(span, "status", err)
	}

	observability.ObserveGrading("status", nil)
	s.logger.Info().Uint("grade_id", grade.ID).Str("status", string(grade.Status)).Msg("grade status changed")
	recordActivity(ctx, s.activity, s.logger, actor, "grade.status", "grade", grade.ID, map[string]interface{}{
		"status": string(grade.Status),
	})

	switch next {
	case models.GradeStatusPublished:
		if grade.Visibility.Student {
			notify(ctx, s.notifications, s.logger, grade.StudentID, NotificationGradePublished,
				fmt.Sprintf("Your grade for '%s' has been published", assignment.Title))
		}
	case models.GradeStatusReturned:
		notify(ctx, s.notifications, s.logger, grade.StudentID, NotificationGradeReturned,
			fmt.Sprintf("Your submission for '%s' was returned for revision", assignment.Title))
	case models.GradeStatusDisputed:
		notify(ctx, s.notifications, s.logger, grade.InstructorID, NotificationGradeDisputed,
			fmt.Sprintf("A grade for '%s' was disputed", assignment.Title))
	}

	return dto.NewGradeResponse(grade), nil
}

func (s *gradeService) AddComment(ctx context.Context, actor ActivityActor, id uint, payload dto.GradeCommentRequest) (dto.GradeCommentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GradeCommentResponse{}, err
	}

	grades := s.store.Gradebook().Grades
	grade, err := grades.GetByID(ctx, id)
	if err != nil {
		return dto.GradeCommentResponse{}, translate(err, ErrGradeNotFound)
	}
	if !canReadGrade(actor, grade) {
		return dto.GradeCommentResponse{}, ErrGradeForbidden
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if content == "" {
		return dto.GradeCommentResponse{}, ErrEmptyContent
	}

	comment := models.GradeComment{
		GradeID:    grade.ID,
		AuthorID:   actor.ID,
		AuthorRole: normalizeRole(actor.Role),
		Content:    content,
		CreatedAt:  s.now(),
	}
	if err := grades.AddComment(ctx, &comment); err != nil {
		return dto.GradeCommentResponse{}, err
	}

	s.logger.Info().Uint("grade_id", grade.ID).Uint("comment_id", comment.ID).Msg("grade comment added")
	recordActivity(ctx, s.activity, s.logger, actor, "grade.comment", "grade", grade.ID, map[string]interface{}{
		"comment_id": comment.ID,
	})

	return dto.NewGradeCommentResponse(comment), nil
}

// MarkViewed counts every call. The first view by the owning student is stamped separately.
func (s *gradeService) MarkViewed(ctx context.Context, actor ActivityActor, id uint) (dto.GradeResponse, error) {
	grades := s.store.Gradebook().Grades
	grade, err := grades.GetByID(ctx, id)
	if err != nil {
		return dto.GradeResponse{}, translate(err, ErrGradeNotFound)
	}
	if !canReadGrade(actor, grade) {
		return dto.GradeResponse{}, ErrGradeForbidden
	}

	byStudent := actor.IsStudent() && grade.StudentID == actor.ID
	if err := grades.RecordView(ctx, grade.ID, s.now(), byStudent); err != nil {
		return dto.GradeResponse{}, translate(err, ErrGradeNotFound)
	}

	grade, err = grades.GetByID(ctx, id)
	if err != nil {
		return dto.GradeResponse{}, translate(err, ErrGradeNotFound)
	}

	return dto.NewGradeResponse(grade), nil
}

type gradeMutation func(book repository.Gradebook, grade *models.Grade, submission *models.Submission, now time.Time) error

// mutate loads an editable grade and its submission, applies fn, then persists
// both and recomputes the assignment statistics inside one transaction.
func (s *gradeService) mutate(ctx context.Context, actor ActivityActor, id uint, fn gradeMutation) error {
	return s.store.WithinTransaction(ctx, func(book repository.Gradebook) error {
		grade, err := book.Grades.GetByID(ctx, id)
		if err != nil {
			return translate(err, ErrGradeNotFound)
		}
		if !actor.Owns(grade.InstructorID) {
			return ErrGradeForbidden
		}
		if grade.Status == models.GradeStatusFinal {
			return ErrGradeFinalized
		}

		submission, err := book.Submissions.GetByID(ctx, grade.SubmissionID)
		if err != nil {
			return translate(err, ErrSubmissionNotFound)
		}

		now := s.now()
		if err := fn(book, &grade, &submission, now); err != nil {
			return err
		}
		grade.Timeline.LastModifiedAt = now

		if err := book.Grades.Update(ctx, &grade); err != nil {
			return err
		}

		syncSubmission(&submission, grade, actor.ID, now)
		if err := book.Submissions.Update(ctx, &submission); err != nil {
			return err
		}

		return recomputeGradeStatistics(ctx, book, grade.AssignmentID)
	})
}

func (s *gradeService) fail(span trace.Span, operation string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, operation+"_failed")
	observability.ObserveGrading(operation, err)
	return err
}

func (s *gradeService) sanitizeFeedback(feedback string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(feedback))
}

// applyLatePenalty replaces the automatic late entry with the submission's current deduction.
func applyLatePenalty(grade *models.Grade, late models.LatePenaltyDetail, appliedBy uint, at time.Time) {
	penalties := make([]models.GradeAdjustment, 0, len(grade.Penalties)+1)
	for _, penalty := range grade.Penalties {
		if penalty.Reason == models.LatePenaltyReason {
			continue
		}
		penalties = append(penalties, penalty)
	}
	if late.Applied && late.PointsDeducted > 0 {
		penalties = append(penalties, models.GradeAdjustment{
			Points:    late.PointsDeducted,
			Reason:    models.LatePenaltyReason,
			AppliedBy: appliedBy,
			AppliedAt: at,
		})
	}
	grade.Penalties = penalties
}

// syncSubmission mirrors the grade's derived figures onto the submission's grading block.
// FinalGrade only carries the late deduction; other penalties and bonuses stay on the grade.
func syncSubmission(submission *models.Submission, grade models.Grade, gradedBy uint, at time.Time) {
	submission.Grading.IsGraded = true
	submission.Grading.AutoGraded = false
	submission.Grading.RawScore = grade.Scores.Raw
	submission.Grading.MaxScore = grade.Scores.PointsPossible
	submission.Grading.Percentage = grade.Scores.Percentage
	submission.Grading.LetterGrade = grade.LetterGrade
	submission.Grading.FinalGrade = grading.Round(grade.Scores.Raw-submission.Grading.LatePenalty.PointsDeducted, 2)
	submission.Grading.GradedAt = &at
	submission.Grading.GradedBy = &gradedBy
}

func canReadGrade(actor ActivityActor, grade models.Grade) bool {
	if actor.IsStudent() {
		return grade.StudentID == actor.ID && grade.VisibleToStudent()
	}
	return actor.Owns(grade.InstructorID)
}

func normalizeLetter(letter string) string {
	return strings.ToUpper(strings.TrimSpace(letter))
}
