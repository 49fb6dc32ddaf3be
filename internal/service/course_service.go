package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

// CourseService manages courses and their rosters.
type CourseService interface {
	Create(ctx context.Context, actor ActivityActor, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Get(ctx context.Context, id uint) (dto.CourseResponse, error)
	Enroll(ctx context.Context, actor ActivityActor, courseID uint, payload dto.EnrollRequest) (dto.EnrollmentResponse, error)
}

type courseService struct {
	courses   repository.CourseRepository
	roster    repository.RosterRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCourseService constructs the course service.
func NewCourseService(courses repository.CourseRepository, roster repository.RosterRepository, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:   courses,
		roster:    roster,
		validator: validate,
		logger:    logger.With().Str("component", "course_service").Logger(),
		now:       time.Now,
	}
}

func (s *courseService) Create(ctx context.Context, actor ActivityActor, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}
	if !actor.IsInstructor() && !actor.IsAdmin() {
		return dto.CourseResponse{}, ErrCourseForbidden
	}

	course := models.Course{
		Code:         strings.ToUpper(strings.TrimSpace(payload.Code)),
		Title:        strings.TrimSpace(payload.Title),
		Description:  strings.TrimSpace(payload.Description),
		InstructorID: actor.ID,
		IsActive:     true,
	}

	if err := s.courses.Create(ctx, &course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CourseResponse{}, ErrCourseCodeTaken
		}
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Str("code", course.Code).Msg("course created")

	return dto.NewCourseResponse(course, 0), nil
}

func (s *courseService) Get(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, translate(err, ErrCourseNotFound)
	}

	enrolled, err := s.roster.CountEnrolled(ctx, course.ID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course, enrolled), nil
}

// Enroll adds a student to the course roster. Students may only enroll themselves.
func (s *courseService) Enroll(ctx context.Context, actor ActivityActor, courseID uint, payload dto.EnrollRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return dto.EnrollmentResponse{}, translate(err, ErrCourseNotFound)
	}

	studentID := payload.StudentID
	switch {
	case actor.IsStudent():
		if studentID != 0 && studentID != actor.ID {
			return dto.EnrollmentResponse{}, ErrCourseForbidden
		}
		studentID = actor.ID
	case actor.Owns(course.InstructorID):
		if studentID == 0 {
			return dto.EnrollmentResponse{}, newError(ErrValidation, "student_id is required")
		}
	default:
		return dto.EnrollmentResponse{}, ErrCourseForbidden
	}

	enrollment, err := s.courses.FindEnrollment(ctx, course.ID, studentID)
	switch {
	case err == nil:
		if enrollment.Status == models.EnrollmentStatusEnrolled {
			return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		enrollment = models.Enrollment{CourseID: course.ID, StudentID: studentID}
	default:
		return dto.EnrollmentResponse{}, err
	}

	enrollment.Status = models.EnrollmentStatusEnrolled
	enrollment.EnrolledAt = s.now()

	if err := s.courses.SaveEnrollment(ctx, &enrollment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
		}
		return dto.EnrollmentResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Uint("student_id", studentID).Msg("student enrolled")

	return dto.NewEnrollmentResponse(enrollment), nil
}
