package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

var allowedAttachmentTypes = []string{
	"application/pdf",
	"application/zip",
	"application/x-zip-compressed",
	"text/plain",
	"image/png",
	"image/jpeg",
}

// SubmissionService orchestrates submission workflows.
type SubmissionService interface {
	Create(ctx context.Context, actor ActivityActor, payload dto.SubmissionCreateRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error)
	Get(ctx context.Context, actor ActivityActor, id uint) (dto.SubmissionResponse, error)
	ListByAssignment(ctx context.Context, actor ActivityActor, assignmentID uint) ([]dto.SubmissionResponse, error)
	UpdateContent(ctx context.Context, actor ActivityActor, id uint, payload dto.SubmissionUpdateRequest) (dto.SubmissionResponse, error)
	Submit(ctx context.Context, actor ActivityActor, id uint) (dto.SubmissionResponse, error)
	AttachFile(ctx context.Context, actor ActivityActor, id uint, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	AutoGrade(ctx context.Context, actor ActivityActor, id uint) (dto.SubmissionResponse, error)
	CanResubmit(ctx context.Context, actor ActivityActor, id uint) (dto.ResubmitEligibilityResponse, error)
}

type submissionService struct {
	store     repository.GradebookStore
	roster    repository.RosterRepository
	validator *validator.Validate
	uploader  FileUploader
	activity  ActivityRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(store repository.GradebookStore, roster repository.RosterRepository, validate *validator.Validate, uploader FileUploader, activity ActivityRecorder, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		store:     store,
		roster:    roster,
		validator: validate,
		uploader:  uploader,
		activity:  activity,
		logger:    logger.With().Str("component", "submission_service").Logger(),
		now:       time.Now,
	}
}

// Create starts a new attempt. Each call consumes one attempt of the assignment's allowance.
func (s *submissionService) Create(ctx context.Context, actor ActivityActor, payload dto.SubmissionCreateRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !actor.IsStudent() {
		return dto.SubmissionResponse{}, ErrSubmissionForbidden
	}

	book := s.store.Gradebook()
	assignment, err := book.Assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, translate(err, ErrAssignmentNotFound)
	}
	if assignment.CourseID != payload.CourseID {
		return dto.SubmissionResponse{}, ErrAssignmentCourseMismatch
	}

	enrolled, err := s.roster.IsEnrolled(ctx, assignment.CourseID, actor.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !enrolled {
		return dto.SubmissionResponse{}, ErrNotEnrolled
	}

	now := s.now()
	if !assignment.AcceptingSubmissions(now) {
		return dto.SubmissionResponse{}, ErrSubmissionClosed
	}

	attempts, err := book.Submissions.CountAttempts(ctx, assignment.ID, actor.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if attempts >= int64(assignment.Attempts.Allowed) {
		return dto.SubmissionResponse{}, ErrAttemptLimitReached
	}

	submission := models.Submission{
		AssignmentID:  assignment.ID,
		StudentID:     actor.ID,
		CourseID:      assignment.CourseID,
		AttemptNumber: int(attempts) + 1,
		Status:        models.SubmissionStatusDraft,
		Content: models.SubmissionContent{
			Text:    strings.TrimSpace(payload.Content.Text),
			Answers: dto.AnswersFromRequest(payload.Content.Answers),
			Code:    dto.CodeFromRequest(payload.Content.Code),
			Files:   []models.SubmissionFile{},
		},
	}

	if payload.StartedAt != nil {
		startedAt, err := dto.ParseTimestamp(*payload.StartedAt)
		if err != nil {
			return dto.SubmissionResponse{}, fmt.Errorf("invalid started_at: %w", ErrValidation)
		}
		submission.StartedAt = &startedAt
	} else {
		submission.StartedAt = &now
	}

	for _, file := range files {
		attachment, err := s.upload(ctx, file)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		submission.Content.Files = append(submission.Content.Files, attachment)
	}

	if !payload.Draft {
		s.markSubmitted(&submission, assignment, now)
	}

	if err := book.Submissions.Create(ctx, &submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SubmissionResponse{}, ErrAttemptLimitReached
		}
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", assignment.ID).
		Int("attempt", submission.AttemptNumber).
		Str("status", submission.Status).
		Msg("submission created")

	recordActivity(ctx, s.activity, s.logger, actor, "submission.create", "submission", submission.ID, map[string]interface{}{
		"assignment_id": assignment.ID,
		"attempt":       submission.AttemptNumber,
		"status":        submission.Status,
		"is_late":       submission.IsLate,
	})

	if submission.Status == models.SubmissionStatusSubmitted {
		s.refreshStatistics(ctx, assignment)
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Get(ctx context.Context, actor ActivityActor, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.store.Gradebook().Submissions.GetByID(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, translate(err, ErrSubmissionNotFound)
	}
	if !canViewSubmission(actor, submission) {
		return dto.SubmissionResponse{}, ErrSubmissionForbidden
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListByAssignment(ctx context.Context, actor ActivityActor, assignmentID uint) ([]dto.SubmissionResponse, error) {
	book := s.store.Gradebook()
	assignment, err := book.Assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, translate(err, ErrAssignmentNotFound)
	}

	filter := repository.SubmissionFilter{AssignmentID: &assignment.ID}
	switch {
	case actor.Owns(assignment.InstructorID):
		filter.ExcludeDrafts = true
	case actor.IsStudent():
		filter.StudentID = &actor.ID
	default:
		return nil, ErrAssignmentForbidden
	}

	submissions, err := book.Submissions.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

// UpdateContent edits an attempt that has not been graded. Editing returned work resubmits it.
func (s *submissionService) UpdateContent(ctx context.Context, actor ActivityActor, id uint, payload dto.SubmissionUpdateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submissions := s.store.Gradebook().Submissions
	submission, err := s.editableSubmission(ctx, actor, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if payload.Text != nil {
		submission.Content.Text = strings.TrimSpace(*payload.Text)
	}
	if payload.Answers != nil {
		submission.Content.Answers = dto.AnswersFromRequest(payload.Answers)
	}
	if payload.Code != nil {
		submission.Content.Code = dto.CodeFromRequest(payload.Code)
	}
	s.resubmitIfReturned(&submission)

	if err := submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Str("status", submission.Status).Msg("submission content updated")

	return dto.NewSubmissionResponse(submission), nil
}

// Submit hands in a draft.
func (s *submissionService) Submit(ctx context.Context, actor ActivityActor, id uint) (dto.SubmissionResponse, error) {
	book := s.store.Gradebook()
	submission, err := book.Submissions.GetByID(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, translate(err, ErrSubmissionNotFound)
	}
	if submission.StudentID != actor.ID {
		return dto.SubmissionResponse{}, ErrSubmissionForbidden
	}
	if submission.Status != models.SubmissionStatusDraft {
		return dto.SubmissionResponse{}, ErrSubmissionNotDraft
	}

	now := s.now()
	if !submission.Assignment.AcceptingSubmissions(now) {
		return dto.SubmissionResponse{}, ErrSubmissionClosed
	}

	s.markSubmitted(&submission, submission.Assignment, now)

	if err := book.Submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Bool("is_late", submission.IsLate).Msg("submission handed in")

	recordActivity(ctx, s.activity, s.logger, actor, "submission.submit", "submission", submission.ID, map[string]interface{}{
		"assignment_id": submission.AssignmentID,
		"is_late":       submission.IsLate,
	})
	s.refreshStatistics(ctx, submission.Assignment)

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) AttachFile(ctx context.Context, actor ActivityActor, id uint, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if file == nil {
		return dto.SubmissionResponse{}, fmt.Errorf("file is required: %w", ErrValidation)
	}

	submission, err := s.editableSubmission(ctx, actor, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	attachment, err := s.upload(ctx, file)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission.Content.Files = append(submission.Content.Files, attachment)
	s.resubmitIfReturned(&submission)

	if err := s.store.Gradebook().Submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Str("file", attachment.Name).Msg("submission file attached")

	return dto.NewSubmissionResponse(submission), nil
}

// AutoGrade scores objective answers and test results. Submissions without
// scorable content are returned unchanged. Submissions linked to an instructor
// grade are never auto-graded.
func (s *submissionService) AutoGrade(ctx context.Context, actor ActivityActor, id uint) (dto.SubmissionResponse, error) {
	submissions := s.store.Gradebook().Submissions
	submission, err := submissions.GetByID(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, translate(err, ErrSubmissionNotFound)
	}

	assignment := submission.Assignment
	if !actor.Owns(assignment.InstructorID) {
		return dto.SubmissionResponse{}, ErrSubmissionForbidden
	}

	switch {
	case submission.Status == models.SubmissionStatusGraded, submission.GradeID != nil:
		return dto.SubmissionResponse{}, ErrSubmissionGraded
	case submission.Status == models.SubmissionStatusDraft:
		return dto.SubmissionResponse{}, ErrSubmissionNotSubmitted
	}

	if !submission.HasScorableContent() {
		return dto.NewSubmissionResponse(submission), nil
	}

	raw := math.Min(submission.ObjectiveScore(), assignment.MaxGrade)
	submission.ApplyScore(raw, assignment)
	submission.Grading.AutoGraded = true
	gradedAt := s.now()
	submission.Grading.GradedAt = &gradedAt
	submission.Status = models.SubmissionStatusGraded

	if err := submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Float64("raw_score", raw).
		Float64("final_grade", submission.Grading.FinalGrade).
		Msg("submission auto-graded")

	recordActivity(ctx, s.activity, s.logger, actor, "submission.auto_grade", "submission", submission.ID, map[string]interface{}{
		"raw_score":    raw,
		"final_grade":  submission.Grading.FinalGrade,
		"letter_grade": submission.Grading.LetterGrade,
	})

	return dto.NewSubmissionResponse(submission), nil
}

// CanResubmit reports whether the student may start another attempt.
func (s *submissionService) CanResubmit(ctx context.Context, actor ActivityActor, id uint) (dto.ResubmitEligibilityResponse, error) {
	book := s.store.Gradebook()
	submission, err := book.Submissions.GetByID(ctx, id)
	if err != nil {
		return dto.ResubmitEligibilityResponse{}, translate(err, ErrSubmissionNotFound)
	}
	if !canViewSubmission(actor, submission) {
		return dto.ResubmitEligibilityResponse{}, ErrSubmissionForbidden
	}

	attempts, err := book.Submissions.CountAttempts(ctx, submission.AssignmentID, submission.StudentID)
	if err != nil {
		return dto.ResubmitEligibilityResponse{}, err
	}

	assignment := submission.Assignment
	eligible := assignment.AcceptingSubmissions(s.now()) && attempts < int64(assignment.Attempts.Allowed)

	return dto.ResubmitEligibilityResponse{
		SubmissionID:    submission.ID,
		CanResubmit:     eligible,
		AttemptsUsed:    attempts,
		AttemptsAllowed: assignment.Attempts.Allowed,
	}, nil
}

func (s *submissionService) editableSubmission(ctx context.Context, actor ActivityActor, id uint) (models.Submission, error) {
	submission, err := s.store.Gradebook().Submissions.GetByID(ctx, id)
	if err != nil {
		return models.Submission{}, translate(err, ErrSubmissionNotFound)
	}
	if submission.StudentID != actor.ID {
		return models.Submission{}, ErrSubmissionForbidden
	}
	if !submission.AcceptsContentChanges() {
		return models.Submission{}, ErrSubmissionLocked
	}
	return submission, nil
}

func (s *submissionService) markSubmitted(submission *models.Submission, assignment models.Assignment, now time.Time) {
	submission.Status = models.SubmissionStatusSubmitted
	submission.SubmittedAt = &now
	submission.IsLate = assignment.IsPastDue(now)
	if submission.StartedAt != nil && now.After(*submission.StartedAt) {
		submission.TimeSpentSeconds = int64(now.Sub(*submission.StartedAt).Seconds())
	}
}

func (s *submissionService) resubmitIfReturned(submission *models.Submission) {
	if submission.Status != models.SubmissionStatusReturned {
		return
	}
	now := s.now()
	submission.Status = models.SubmissionStatusResubmitted
	submission.SubmittedAt = &now
	submission.IsLate = submission.Assignment.IsPastDue(now)
}

// refreshStatistics is best-effort; the submission is already stored.
func (s *submissionService) refreshStatistics(ctx context.Context, assignment models.Assignment) {
	if _, err := refreshStatistics(ctx, s.store.Gradebook(), s.roster, assignment); err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", assignment.ID).Msg("failed to refresh assignment statistics")
	}
}

func (s *submissionService) upload(ctx context.Context, file *multipart.FileHeader) (models.SubmissionFile, error) {
	if s.uploader == nil {
		return models.SubmissionFile{}, ErrUploadsDisabled
	}

	mime, err := detectAttachmentType(file)
	if err != nil {
		return models.SubmissionFile{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return models.SubmissionFile{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return models.SubmissionFile{}, fmt.Errorf("failed to upload file: %w", err)
	}

	return models.SubmissionFile{
		Name:       file.Filename,
		URL:        url,
		MimeType:   mime,
		Size:       file.Size,
		UploadedAt: s.now(),
	}, nil
}

func detectAttachmentType(file *multipart.FileHeader) (string, error) {
	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}

	for _, allowed := range allowedAttachmentTypes {
		if mime.Is(allowed) {
			return mime.String(), nil
		}
	}

	return "", fmt.Errorf("%s: %w", mime.String(), ErrUnsupportedFileType)
}

func canViewSubmission(actor ActivityActor, submission models.Submission) bool {
	if submission.StudentID == actor.ID && actor.IsStudent() {
		return true
	}
	return actor.Owns(submission.Assignment.InstructorID)
}
