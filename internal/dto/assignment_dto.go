package dto

import (
	"time"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

const isoLayout = time.RFC3339

// AttemptPolicyRequest configures attempt limits.
type AttemptPolicyRequest struct {
	Allowed     int  `json:"allowed" validate:"omitempty,min=1,max=100"`
	KeepHighest bool `json:"keep_highest"`
}

// LatePenaltyRequest configures late deductions.
type LatePenaltyRequest struct {
	Enabled    bool    `json:"enabled"`
	Percentage float64 `json:"percentage" validate:"gte=0,lte=100"`
	PerDay     bool    `json:"per_day"`
}

// AssignmentCreateRequest describes the payload for creating a new assignment.
type AssignmentCreateRequest struct {
	CourseID       uint                 `json:"course_id" validate:"required,gt=0"`
	Title          string               `json:"title" validate:"required,min=3,max=255"`
	Description    string               `json:"description" validate:"omitempty,max=10000"`
	Type           string               `json:"type" validate:"required,oneof=essay quiz code file"`
	MaxGrade       float64              `json:"max_grade" validate:"required,gt=0"`
	PassingGrade   float64              `json:"passing_grade" validate:"gte=0"`
	DueDate        string               `json:"due_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	AvailableFrom  *string              `json:"available_from" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	AvailableUntil *string              `json:"available_until" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Attempts       AttemptPolicyRequest `json:"attempts"`
	LatePenalty    LatePenaltyRequest   `json:"late_penalty"`
}

// AssignmentUpdateRequest describes the payload for updating an assignment.
type AssignmentUpdateRequest struct {
	Title          *string               `json:"title" validate:"omitempty,min=3,max=255"`
	Description    *string               `json:"description" validate:"omitempty,max=10000"`
	MaxGrade       *float64              `json:"max_grade" validate:"omitempty,gt=0"`
	PassingGrade   *float64              `json:"passing_grade" validate:"omitempty,gte=0"`
	DueDate        *string               `json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	AvailableFrom  *string               `json:"available_from" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	AvailableUntil *string               `json:"available_until" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Attempts       *AttemptPolicyRequest `json:"attempts"`
	LatePenalty    *LatePenaltyRequest   `json:"late_penalty"`
}

// AssignmentStatisticsResponse mirrors the cached statistics block.
type AssignmentStatisticsResponse struct {
	TotalSubmissions  int64   `json:"total_submissions"`
	GradedSubmissions int64   `json:"graded_submissions"`
	AverageGrade      float64 `json:"average_grade"`
	HighestGrade      float64 `json:"highest_grade"`
	LowestGrade       float64 `json:"lowest_grade"`
	SubmissionRate    float64 `json:"submission_rate"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID             uint                         `json:"id"`
	CourseID       uint                         `json:"course_id"`
	InstructorID   uint                         `json:"instructor_id"`
	Title          string                       `json:"title"`
	Description    string                       `json:"description"`
	Type           string                       `json:"type"`
	MaxGrade       float64                      `json:"max_grade"`
	PassingGrade   float64                      `json:"passing_grade"`
	DueDate        time.Time                    `json:"due_date"`
	AvailableFrom  *time.Time                   `json:"available_from"`
	AvailableUntil *time.Time                   `json:"available_until"`
	Attempts       AttemptPolicyRequest         `json:"attempts"`
	LatePenalty    LatePenaltyRequest           `json:"late_penalty"`
	Statistics     AssignmentStatisticsResponse `json:"statistics"`
	IsActive       bool                         `json:"is_active"`
	CreatedAt      time.Time                    `json:"created_at"`
	UpdatedAt      time.Time                    `json:"updated_at"`
}

// NewAssignmentStatisticsResponse converts the statistics block.
func NewAssignmentStatisticsResponse(stats models.AssignmentStatistics) AssignmentStatisticsResponse {
	return AssignmentStatisticsResponse{
		TotalSubmissions:  stats.TotalSubmissions,
		GradedSubmissions: stats.GradedSubmissions,
		AverageGrade:      stats.AverageGrade,
		HighestGrade:      stats.HighestGrade,
		LowestGrade:       stats.LowestGrade,
		SubmissionRate:    stats.SubmissionRate,
	}
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:             model.ID,
		CourseID:       model.CourseID,
		InstructorID:   model.InstructorID,
		Title:          model.Title,
		Description:    model.Description,
		Type:           model.Type,
		MaxGrade:       model.MaxGrade,
		PassingGrade:   model.PassingGrade,
		DueDate:        model.DueDate,
		AvailableFrom:  model.AvailableFrom,
		AvailableUntil: model.AvailableUntil,
		Attempts: AttemptPolicyRequest{
			Allowed:     model.Attempts.Allowed,
			KeepHighest: model.Attempts.KeepHighest,
		},
		LatePenalty: LatePenaltyRequest{
			Enabled:    model.LatePenalty.Enabled,
			Percentage: model.LatePenalty.Percentage,
			PerDay:     model.LatePenalty.PerDay,
		},
		Statistics: NewAssignmentStatisticsResponse(model.Statistics),
		IsActive:   model.IsActive,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

// ParseTimestamp parses an RFC3339 timestamp used by request payloads.
func ParseTimestamp(value string) (time.Time, error) {
	return time.Parse(isoLayout, value)
}
