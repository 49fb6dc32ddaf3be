package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

// AssignmentService exposes assignment domain use cases.
type AssignmentService interface {
	List(ctx context.Context, courseID uint) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, actor ActivityActor, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, actor ActivityActor, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, actor ActivityActor, id uint) error
	RefreshStatistics(ctx context.Context, actor ActivityActor, id uint) (dto.AssignmentStatisticsResponse, error)
}

type assignmentService struct {
	store     repository.GradebookStore
	courses   repository.CourseRepository
	roster    repository.RosterRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(store repository.GradebookStore, courses repository.CourseRepository, roster repository.RosterRepository, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		store:     store,
		courses:   courses,
		roster:    roster,
		validator: validate,
		logger:    logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) List(ctx context.Context, courseID uint) ([]dto.AssignmentResponse, error) {
	filter := repository.AssignmentFilter{ActiveOnly: true}
	if courseID > 0 {
		filter.CourseID = &courseID
	}

	assignments, err := s.store.Gradebook().Assignments.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, dto.NewAssignmentResponse(assignment))
	}
	return responses, nil
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.store.Gradebook().Assignments.GetByID(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, translate(err, ErrAssignmentNotFound)
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, actor ActivityActor, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, payload.CourseID)
	if err != nil {
		return dto.AssignmentResponse{}, translate(err, ErrCourseNotFound)
	}
	if !actor.Owns(course.InstructorID) {
		return dto.AssignmentResponse{}, ErrAssignmentForbidden
	}

	dueDate, err := dto.ParseTimestamp(payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("invalid due date: %w", ErrInvalidSchedule)
	}

	assignment := models.Assignment{
		CourseID:     course.ID,
		InstructorID: course.InstructorID,
		Title:        strings.TrimSpace(payload.Title),
		Description:  strings.TrimSpace(payload.Description),
		Type:         payload.Type,
		MaxGrade:     payload.MaxGrade,
		PassingGrade: payload.PassingGrade,
		DueDate:      dueDate,
		Attempts: models.AttemptPolicy{
			Allowed:     payload.Attempts.Allowed,
			KeepHighest: payload.Attempts.KeepHighest,
		},
		LatePenalty: models.LatePenaltyPolicy{
			Enabled:    payload.LatePenalty.Enabled,
			Percentage: payload.LatePenalty.Percentage,
			PerDay:     payload.LatePenalty.PerDay,
		},
		IsActive: true,
	}

	if assignment.AvailableFrom, err = optionalTimestamp(payload.AvailableFrom); err != nil {
		return dto.AssignmentResponse{}, err
	}
	if assignment.AvailableUntil, err = optionalTimestamp(payload.AvailableUntil); err != nil {
		return dto.AssignmentResponse{}, err
	}
	if err := validateSchedule(assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment.ApplyDefaults()

	if err := s.store.Gradebook().Assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("course_id", assignment.CourseID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, actor ActivityActor, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	repo := s.store.Gradebook().Assignments
	assignment, err := repo.GetByID(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, translate(err, ErrAssignmentNotFound)
	}
	if !actor.Owns(assignment.InstructorID) {
		return dto.AssignmentResponse{}, ErrAssignmentForbidden
	}

	if payload.Title != nil {
		assignment.Title = strings.TrimSpace(*payload.Title)
	}
	if payload.Description != nil {
		assignment.Description = strings.TrimSpace(*payload.Description)
	}
	if payload.MaxGrade != nil {
		if payload.PassingGrade == nil && assignment.HasDefaultPassingGrade() {
			assignment.PassingGrade = 0
		}
		assignment.MaxGrade = *payload.MaxGrade
	}
	if payload.PassingGrade != nil {
		assignment.PassingGrade = *payload.PassingGrade
	}
	if payload.DueDate != nil {
		dueDate, err := dto.ParseTimestamp(*payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("invalid due date: %w", ErrInvalidSchedule)
		}
		assignment.DueDate = dueDate
	}
	if payload.AvailableFrom != nil {
		if assignment.AvailableFrom, err = optionalTimestamp(payload.AvailableFrom); err != nil {
			return dto.AssignmentResponse{}, err
		}
	}
	if payload.AvailableUntil != nil {
		if assignment.AvailableUntil, err = optionalTimestamp(payload.AvailableUntil); err != nil {
			return dto.AssignmentResponse{}, err
		}
	}
	if payload.Attempts != nil {
		assignment.Attempts = models.AttemptPolicy{
			Allowed:     payload.Attempts.Allowed,
			KeepHighest: payload.Attempts.KeepHighest,
		}
	}
	if payload.LatePenalty != nil {
		assignment.LatePenalty = models.LatePenaltyPolicy{
			Enabled:    payload.LatePenalty.Enabled,
			Percentage: payload.LatePenalty.Percentage,
			PerDay:     payload.LatePenalty.PerDay,
		}
	}
	if err := validateSchedule(assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment.ApplyDefaults()

	if err := repo.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment), nil
}

// Delete deactivates the assignment. Submissions and grades are retained.
func (s *assignmentService) Delete(ctx context.Context, actor ActivityActor, id uint) error {
	repo := s.store.Gradebook().Assignments
	assignment, err := repo.GetByID(ctx, id)
	if err != nil {
		return translate(err, ErrAssignmentNotFound)
	}
	if !actor.Owns(assignment.InstructorID) {
		return ErrAssignmentForbidden
	}

	if err := repo.Deactivate(ctx, id); err != nil {
		return translate(err, ErrAssignmentNotFound)
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deactivated")
	return nil
}

func (s *assignmentService) RefreshStatistics(ctx context.Context, actor ActivityActor, id uint) (dto.AssignmentStatisticsResponse, error) {
	book := s.store.Gradebook()
	assignment, err := book.Assignments.GetByID(ctx, id)
	if err != nil {
		return dto.AssignmentStatisticsResponse{}, translate(err, ErrAssignmentNotFound)
	}
	if !actor.Owns(assignment.InstructorID) {
		return dto.AssignmentStatisticsResponse{}, ErrAssignmentForbidden
	}

	stats, err := refreshStatistics(ctx, book, s.roster, assignment)
	if err != nil {
		return dto.AssignmentStatisticsResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", id).Int64("graded", stats.GradedSubmissions).Msg("assignment statistics refreshed")

	return dto.NewAssignmentStatisticsResponse(stats), nil
}

func optionalTimestamp(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := dto.ParseTimestamp(*value)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", *value, ErrInvalidSchedule)
	}
	return &parsed, nil
}

func validateSchedule(assignment models.Assignment) error {
	if assignment.AvailableFrom != nil && assignment.AvailableFrom.After(assignment.DueDate) {
		return fmt.Errorf("available_from must not be after due_date: %w", ErrInvalidSchedule)
	}
	if assignment.PassingGrade > assignment.MaxGrade {
		return fmt.Errorf("passing_grade exceeds max_grade: %w", ErrValidation)
	}
	return nil
}
