package service

import (
	"errors"

	"gorm.io/gorm"
)

// Error kinds. Every service error wraps exactly one of these so handlers can map
// it to a response status with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
)

type kindError struct {
	message string
	kind    error
}

func (e *kindError) Error() string { return e.message }

func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, message string) error {
	return &kindError{message: message, kind: kind}
}

var (
	ErrCourseNotFound  = newError(ErrNotFound, "course not found")
	ErrCourseForbidden = newError(ErrForbidden, "insufficient permissions for course")
	ErrCourseCodeTaken = newError(ErrConflict, "course code already in use")
	ErrAlreadyEnrolled = newError(ErrConflict, "student already enrolled")
	ErrNotEnrolled     = newError(ErrForbidden, "student is not enrolled in course")
)

var (
	ErrAssignmentNotFound       = newError(ErrNotFound, "assignment not found")
	ErrAssignmentForbidden      = newError(ErrForbidden, "insufficient permissions for assignment")
	ErrAssignmentCourseMismatch = newError(ErrValidation, "assignment does not belong to course")
	ErrInvalidSchedule          = newError(ErrValidation, "invalid assignment schedule")
)

var (
	ErrSubmissionNotFound     = newError(ErrNotFound, "submission not found")
	ErrSubmissionForbidden    = newError(ErrForbidden, "insufficient permissions for submission")
	ErrSubmissionClosed       = newError(ErrInvalidState, "assignment is not accepting submissions")
	ErrAttemptLimitReached    = newError(ErrConflict, "attempt limit reached")
	ErrSubmissionLocked       = newError(ErrInvalidState, "submission content can no longer be changed")
	ErrSubmissionNotDraft     = newError(ErrInvalidState, "submission is not a draft")
	ErrSubmissionNotSubmitted = newError(ErrInvalidState, "submission has not been submitted")
	ErrSubmissionGraded       = newError(ErrInvalidState, "submission is already graded")
	ErrUnsupportedFileType    = newError(ErrValidation, "unsupported file type")
	ErrUploadsDisabled        = newError(ErrInvalidState, "file attachments are not configured")
)

var (
	ErrGradeNotFound          = newError(ErrNotFound, "grade not found")
	ErrGradeForbidden         = newError(ErrForbidden, "insufficient permissions for grade")
	ErrGradeExists            = newError(ErrConflict, "grade already exists for student and assignment")
	ErrGradeFinalized         = newError(ErrInvalidState, "grade is final")
	ErrInvalidGradeTransition = newError(ErrInvalidState, "grade status transition not allowed")
	ErrScoreExceedsMax        = newError(ErrValidation, "score exceeds points possible")
	ErrInvalidLetterGrade     = newError(ErrValidation, "unknown letter grade")
)

var (
	ErrThreadNotFound       = newError(ErrNotFound, "discussion thread not found")
	ErrDiscussionForbidden  = newError(ErrForbidden, "insufficient permissions for discussion operation")
	ErrNotificationNotFound = newError(ErrNotFound, "notification not found")
	ErrEmptyContent         = newError(ErrValidation, "content empty after sanitization")
)

// translate maps storage errors onto service errors.
func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	default:
		return err
	}
}
