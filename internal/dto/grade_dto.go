package dto

import (
	"time"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

// GradeScoresRequest carries the raw score and the points it is measured against.
type GradeScoresRequest struct {
	Raw            float64 `json:"raw" validate:"gte=0"`
	PointsPossible float64 `json:"points_possible" validate:"gte=0"`
}

// GradeCreateRequest issues a grade for a submission.
type GradeCreateRequest struct {
	StudentID        uint               `json:"student_id" validate:"required,gt=0"`
	AssignmentID     uint               `json:"assignment_id" validate:"required,gt=0"`
	SubmissionID     uint               `json:"submission_id" validate:"required,gt=0"`
	Scores           GradeScoresRequest `json:"scores"`
	LetterGrade      string             `json:"letter_grade" validate:"omitempty,max=2"`
	Feedback         string             `json:"feedback" validate:"omitempty,max=10000"`
	Status           string             `json:"status" validate:"omitempty,oneof=draft published"`
	VisibleToStudent *bool              `json:"visible_to_student"`
}

// GradeUpdateRequest merges new values into an existing grade.
type GradeUpdateRequest struct {
	Raw              *float64 `json:"raw" validate:"omitempty,gte=0"`
	PointsPossible   *float64 `json:"points_possible" validate:"omitempty,gt=0"`
	LetterGrade      *string  `json:"letter_grade" validate:"omitempty,max=2"`
	Feedback         *string  `json:"feedback" validate:"omitempty,max=10000"`
	VisibleToStudent *bool    `json:"visible_to_student"`
}

// GradeAdjustmentRequest adds a penalty or bonus.
type GradeAdjustmentRequest struct {
	Points float64 `json:"points" validate:"required,gt=0"`
	Reason string  `json:"reason" validate:"required,min=2,max=255"`
}

// GradeStatusRequest moves a grade through its publication states.
type GradeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft published returned disputed final"`
}

// GradeCommentRequest appends a comment to a grade.
type GradeCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// GradeScoresResponse serializes grade scores.
type GradeScoresResponse struct {
	Raw            float64 `json:"raw"`
	Adjusted       float64 `json:"adjusted"`
	Percentage     float64 `json:"percentage"`
	PointsEarned   float64 `json:"points_earned"`
	PointsPossible float64 `json:"points_possible"`
}

// GradeAdjustmentResponse serializes a penalty or bonus.
type GradeAdjustmentResponse struct {
	Points    float64   `json:"points"`
	Reason    string    `json:"reason"`
	AppliedBy uint      `json:"applied_by"`
	AppliedAt time.Time `json:"applied_at"`
}

// GradeTimelineResponse serializes grade timestamps.
type GradeTimelineResponse struct {
	GradedAt          time.Time  `json:"graded_at"`
	PublishedAt       *time.Time `json:"published_at"`
	ViewedByStudentAt *time.Time `json:"viewed_by_student_at"`
	LastViewedAt      *time.Time `json:"last_viewed_at"`
	LastModifiedAt    time.Time  `json:"last_modified_at"`
}

// GradeCommentResponse serializes a grade comment.
type GradeCommentResponse struct {
	ID         uint      `json:"id"`
	GradeID    uint      `json:"grade_id"`
	AuthorID   uint      `json:"author_id"`
	AuthorRole string    `json:"author_role"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// GradeResponse is the serialized representation of a grade.
type GradeResponse struct {
	ID               uint                      `json:"id"`
	StudentID        uint                      `json:"student_id"`
	AssignmentID     uint                      `json:"assignment_id"`
	SubmissionID     uint                      `json:"submission_id"`
	CourseID         uint                      `json:"course_id"`
	InstructorID     uint                      `json:"instructor_id"`
	Scores           GradeScoresResponse       `json:"scores"`
	LetterGrade      string                    `json:"letter_grade"`
	GradePoints      float64                   `json:"grade_points"`
	Penalties        []GradeAdjustmentResponse `json:"penalties"`
	Bonuses          []GradeAdjustmentResponse `json:"bonuses"`
	Feedback         string                    `json:"feedback"`
	Status           string                    `json:"status"`
	VisibleToStudent bool                      `json:"visible_to_student"`
	Timeline         GradeTimelineResponse     `json:"timeline"`
	ViewCount        int                       `json:"view_count"`
	Comments         []GradeCommentResponse    `json:"comments"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// NewGradeResponse converts a grade model into its DTO.
func NewGradeResponse(model models.Grade) GradeResponse {
	comments := make([]GradeCommentResponse, 0, len(model.Comments))
	for _, comment := range model.Comments {
		comments = append(comments, NewGradeCommentResponse(comment))
	}

	return GradeResponse{
		ID:           model.ID,
		StudentID:    model.StudentID,
		AssignmentID: model.AssignmentID,
		SubmissionID: model.SubmissionID,
		CourseID:     model.CourseID,
		InstructorID: model.InstructorID,
		Scores: GradeScoresResponse{
			Raw:            model.Scores.Raw,
			Adjusted:       model.Scores.Adjusted,
			Percentage:     model.Scores.Percentage,
			PointsEarned:   model.Scores.PointsEarned,
			PointsPossible: model.Scores.PointsPossible,
		},
		LetterGrade:      model.LetterGrade,
		GradePoints:      model.GradePoints,
		Penalties:        newAdjustmentResponses(model.Penalties),
		Bonuses:          newAdjustmentResponses(model.Bonuses),
		Feedback:         model.Feedback,
		Status:           string(model.Status),
		VisibleToStudent: model.Visibility.Student,
		Timeline: GradeTimelineResponse{
			GradedAt:          model.Timeline.GradedAt,
			PublishedAt:       model.Timeline.PublishedAt,
			ViewedByStudentAt: model.Timeline.ViewedByStudentAt,
			LastViewedAt:      model.Timeline.LastViewedAt,
			LastModifiedAt:    model.Timeline.LastModifiedAt,
		},
		ViewCount: model.ViewCount,
		Comments:  comments,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewGradeResponseSlice converts grades into DTOs.
func NewGradeResponseSlice(items []models.Grade) []GradeResponse {
	out := make([]GradeResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewGradeResponse(item))
	}
	return out
}

// NewGradeCommentResponse converts a comment model into its DTO.
func NewGradeCommentResponse(model models.GradeComment) GradeCommentResponse {
	return GradeCommentResponse{
		ID:         model.ID,
		GradeID:    model.GradeID,
		AuthorID:   model.AuthorID,
		AuthorRole: model.AuthorRole,
		Content:    model.Content,
		CreatedAt:  model.CreatedAt,
	}
}

func newAdjustmentResponses(items []models.GradeAdjustment) []GradeAdjustmentResponse {
	out := make([]GradeAdjustmentResponse, 0, len(items))
	for _, item := range items {
		out = append(out, GradeAdjustmentResponse{
			Points:    item.Points,
			Reason:    item.Reason,
			AppliedBy: item.AppliedBy,
			AppliedAt: item.AppliedAt,
		})
	}
	return out
}
