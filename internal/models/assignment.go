package models

import (
	"time"

	"github.com/noah-isme/gema-classroom-api/internal/grading"
)

// Assignment types.
const (
	AssignmentTypeEssay = "essay"
	AssignmentTypeQuiz  = "quiz"
	AssignmentTypeCode  = "code"
	AssignmentTypeFile  = "file"
)

// DefaultPassingRatio is applied to MaxGrade when no passing grade is configured.
const DefaultPassingRatio = 0.6

// AttemptPolicy limits how many submissions a student may make.
type AttemptPolicy struct {
	Allowed     int  `gorm:"not null" json:"allowed"`
	KeepHighest bool `gorm:"not null" json:"keep_highest"`
}

// LatePenaltyPolicy configures deductions for work submitted after the due date.
type LatePenaltyPolicy struct {
	Enabled    bool    `gorm:"not null" json:"enabled"`
	Percentage float64 `gorm:"not null" json:"percentage"`
	PerDay     bool    `gorm:"not null" json:"per_day"`
}

// AssignmentStatistics is a denormalised cache recomputed from submissions and grades.
type AssignmentStatistics struct {
	TotalSubmissions  int64   `gorm:"not null" json:"total_submissions"`
	GradedSubmissions int64   `gorm:"not null" json:"graded_submissions"`
	AverageGrade      float64 `gorm:"not null" json:"average_grade"`
	HighestGrade      float64 `gorm:"not null" json:"highest_grade"`
	LowestGrade       float64 `gorm:"not null" json:"lowest_grade"`
	SubmissionRate    float64 `gorm:"not null" json:"submission_rate"`
}

// Assignment defines a gradable unit of work within a course.
type Assignment struct {
	ID             uint                 `gorm:"primaryKey" json:"id"`
	CourseID       uint                 `gorm:"not null;index" json:"course_id"`
	InstructorID   uint                 `gorm:"not null;index" json:"instructor_id"`
	Title          string               `gorm:"size:255;not null" json:"title"`
	Description    string               `gorm:"type:text" json:"description"`
	Type           string               `gorm:"size:32;not null" json:"type"`
	MaxGrade       float64              `gorm:"not null" json:"max_grade"`
	PassingGrade   float64              `gorm:"not null" json:"passing_grade"`
	DueDate        time.Time            `gorm:"not null" json:"due_date"`
	AvailableFrom  *time.Time           `json:"available_from"`
	AvailableUntil *time.Time           `json:"available_until"`
	Attempts       AttemptPolicy        `gorm:"embedded;embeddedPrefix:attempts_" json:"attempts"`
	LatePenalty    LatePenaltyPolicy    `gorm:"embedded;embeddedPrefix:late_penalty_" json:"late_penalty"`
	Statistics     AssignmentStatistics `gorm:"embedded;embeddedPrefix:stats_" json:"statistics"`
	IsActive       bool                 `gorm:"not null;index" json:"is_active"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// ApplyDefaults fills derived policy fields before the assignment is written.
func (a *Assignment) ApplyDefaults() {
	if a.PassingGrade <= 0 && a.MaxGrade > 0 {
		a.PassingGrade = grading.Round(a.MaxGrade*DefaultPassingRatio, 2)
	}
	if a.Attempts.Allowed < 1 {
		a.Attempts.Allowed = 1
	}
	if a.AvailableUntil != nil && a.AvailableUntil.Before(a.DueDate) {
		due := a.DueDate
		a.AvailableUntil = &due
	}
}

// HasDefaultPassingGrade reports whether the passing grade is the derived share of MaxGrade.
func (a Assignment) HasDefaultPassingGrade() bool {
	return a.MaxGrade > 0 && a.PassingGrade == grading.Round(a.MaxGrade*DefaultPassingRatio, 2)
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// IsAvailableForSubmission reports whether on-time submissions are currently accepted.
func (a Assignment) IsAvailableForSubmission(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.AvailableFrom != nil && now.Before(*a.AvailableFrom) {
		return false
	}
	return !a.IsPastDue(now)
}

// AcceptsLateSubmission reports whether the late window is open.
func (a Assignment) AcceptsLateSubmission(now time.Time) bool {
	if !a.IsActive || !a.IsPastDue(now) || a.AvailableUntil == nil {
		return false
	}
	return !now.After(*a.AvailableUntil)
}

// AcceptingSubmissions combines the on-time and late windows.
func (a Assignment) AcceptingSubmissions(now time.Time) bool {
	return a.IsAvailableForSubmission(now) || a.AcceptsLateSubmission(now)
}

// AllowsMultipleAttempts reports whether more than one attempt is permitted.
func (a Assignment) AllowsMultipleAttempts() bool {
	return a.Attempts.Allowed > 1
}

// LatePenaltyPercent returns the late deduction percentage for a submission time.
func (a Assignment) LatePenaltyPercent(submittedAt time.Time) float64 {
	policy := grading.LatePolicy{
		Enabled:    a.LatePenalty.Enabled,
		Percentage: a.LatePenalty.Percentage,
		PerDay:     a.LatePenalty.PerDay,
	}
	return grading.LatePenaltyPercent(policy, a.DueDate, submittedAt)
}
