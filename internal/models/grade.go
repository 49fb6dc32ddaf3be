package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/gema-classroom-api/internal/grading"
)

// GradeStatus enumerates the publication states of a grade.
type GradeStatus string

const (
	GradeStatusDraft     GradeStatus = "draft"
	GradeStatusPublished GradeStatus = "published"
	GradeStatusReturned  GradeStatus = "returned"
	GradeStatusDisputed  GradeStatus = "disputed"
	GradeStatusFinal     GradeStatus = "final"
)

var gradeTransitions = map[GradeStatus][]GradeStatus{
	GradeStatusDraft:     {GradeStatusPublished},
	GradeStatusPublished: {GradeStatusReturned, GradeStatusDisputed, GradeStatusFinal},
	GradeStatusReturned:  {GradeStatusPublished, GradeStatusFinal},
	GradeStatusDisputed:  {GradeStatusPublished, GradeStatusFinal},
}

// CanTransition reports whether the status may move to next.
func (s GradeStatus) CanTransition(next GradeStatus) bool {
	for _, allowed := range gradeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LatePenaltyReason tags the penalty appended automatically for late work.
const LatePenaltyReason = "late_submission"

// GradeAdjustment is a single penalty or bonus entry.
type GradeAdjustment struct {
	Points    float64   `json:"points"`
	Reason    string    `json:"reason"`
	AppliedBy uint      `json:"applied_by"`
	AppliedAt time.Time `json:"applied_at"`
}

// GradeScores holds raw and derived scoring figures.
type GradeScores struct {
	Raw            float64 `gorm:"not null" json:"raw"`
	Adjusted       float64 `gorm:"not null" json:"adjusted"`
	Percentage     float64 `gorm:"not null" json:"percentage"`
	PointsEarned   float64 `gorm:"not null" json:"points_earned"`
	PointsPossible float64 `gorm:"not null" json:"points_possible"`
}

// GradeTimeline tracks lifecycle timestamps.
type GradeTimeline struct {
	GradedAt          time.Time  `json:"graded_at"`
	PublishedAt       *time.Time `json:"published_at"`
	ViewedByStudentAt *time.Time `json:"viewed_by_student_at"`
	LastViewedAt      *time.Time `json:"last_viewed_at"`
	LastModifiedAt    time.Time  `json:"last_modified_at"`
}

// GradeVisibility controls who may read the grade.
type GradeVisibility struct {
	Student bool `gorm:"not null" json:"student"`
}

// Grade is the instructor's authoritative evaluation of one submission.
type Grade struct {
	ID           uint                                 `gorm:"primaryKey" json:"id"`
	StudentID    uint                                 `gorm:"not null;uniqueIndex:idx_grade_student_assignment" json:"student_id"`
	AssignmentID uint                                 `gorm:"not null;uniqueIndex:idx_grade_student_assignment" json:"assignment_id"`
	SubmissionID uint                                 `gorm:"not null;index" json:"submission_id"`
	CourseID     uint                                 `gorm:"not null;index" json:"course_id"`
	InstructorID uint                                 `gorm:"not null;index" json:"instructor_id"`
	Scores       GradeScores                          `gorm:"embedded;embeddedPrefix:score_" json:"scores"`
	LetterGrade  string                               `gorm:"size:4;not null" json:"letter_grade"`
	GradePoints  float64                              `gorm:"not null" json:"grade_points"`
	Penalties    datatypes.JSONSlice[GradeAdjustment] `json:"penalties"`
	Bonuses      datatypes.JSONSlice[GradeAdjustment] `json:"bonuses"`
	Feedback     string                               `gorm:"type:text" json:"feedback"`
	Status       GradeStatus                          `gorm:"size:16;not null;index" json:"status"`
	Visibility   GradeVisibility                      `gorm:"embedded;embeddedPrefix:visibility_" json:"visibility"`
	Timeline     GradeTimeline                        `gorm:"embedded;embeddedPrefix:timeline_" json:"timeline"`
	ViewCount    int                                  `gorm:"not null" json:"view_count"`
	Comments     []GradeComment                       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"comments"`
	CreatedAt    time.Time                            `json:"created_at"`
	UpdatedAt    time.Time                            `json:"updated_at"`
}

// GradeComment is an append-only remark on a grade.
type GradeComment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GradeID    uint      `gorm:"not null;index" json:"grade_id"`
	AuthorID   uint      `gorm:"not null" json:"author_id"`
	AuthorRole string    `gorm:"size:32;not null" json:"author_role"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// TotalPenalties sums all penalty points.
func (g Grade) TotalPenalties() float64 {
	var total float64
	for _, p := range g.Penalties {
		total += p.Points
	}
	return total
}

// TotalBonuses sums all bonus points.
func (g Grade) TotalBonuses() float64 {
	var total float64
	for _, b := range g.Bonuses {
		total += b.Points
	}
	return total
}

// Recalculate derives adjusted score, percentage, letter grade and grade points.
// An explicit letter is kept only when keepLetter is set and no adjustments exist.
func (g *Grade) Recalculate(keepLetter bool) {
	adjusted := grading.AdjustedScore(g.Scores.Raw, grading.Adjustments{
		Penalties: g.TotalPenalties(),
		Bonuses:   g.TotalBonuses(),
	})
	g.Scores.Adjusted = grading.Round(adjusted, 2)
	g.Scores.PointsEarned = g.Scores.Adjusted
	g.Scores.Percentage = grading.Percentage(g.Scores.PointsEarned, g.Scores.PointsPossible)

	hasAdjustments := len(g.Penalties) > 0 || len(g.Bonuses) > 0
	if !keepLetter || hasAdjustments || !grading.IsLetter(g.LetterGrade) {
		g.LetterGrade = grading.LetterFor(g.Scores.Percentage)
	}
	g.GradePoints = grading.PointsFor(g.LetterGrade)
}

// VisibleToStudent reports whether the owning student may read the grade.
func (g Grade) VisibleToStudent() bool {
	return g.Visibility.Student && g.Status != GradeStatusDraft
}
