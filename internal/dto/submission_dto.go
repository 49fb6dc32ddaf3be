package dto

import (
	"time"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

// AnswerRequest is one quiz response as scored by the quiz engine.
type AnswerRequest struct {
	QuestionID string  `json:"question_id" validate:"required,max=64"`
	Type       string  `json:"type" validate:"required,oneof=multiple_choice true_false short_text"`
	Response   string  `json:"response" validate:"max=10000"`
	IsCorrect  *bool   `json:"is_correct"`
	Points     float64 `json:"points" validate:"gte=0"`
}

// TestResultRequest reports one test case outcome.
type TestResultRequest struct {
	Name   string `json:"name" validate:"required,max=255"`
	Passed bool   `json:"passed"`
}

// CodeSubmissionRequest carries source code and its test results.
type CodeSubmissionRequest struct {
	Language    string              `json:"language" validate:"required,max=32"`
	Source      string              `json:"source" validate:"required,max=200000"`
	Points      float64             `json:"points" validate:"gte=0"`
	TestResults []TestResultRequest `json:"test_results" validate:"omitempty,dive"`
}

// SubmissionContentRequest is the editable body of a submission.
type SubmissionContentRequest struct {
	Text    string                  `json:"text" validate:"max=100000"`
	Answers []AnswerRequest         `json:"answers" validate:"omitempty,dive"`
	Code    []CodeSubmissionRequest `json:"code" validate:"omitempty,dive"`
}

// SubmissionCreateRequest starts a new attempt.
type SubmissionCreateRequest struct {
	AssignmentID uint                     `json:"assignment_id" validate:"required,gt=0"`
	CourseID     uint                     `json:"course_id" validate:"required,gt=0"`
	Content      SubmissionContentRequest `json:"content"`
	Draft        bool                     `json:"draft"`
	StartedAt    *string                  `json:"started_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// SubmissionUpdateRequest replaces parts of the submission content. Nil fields are left untouched.
type SubmissionUpdateRequest struct {
	Text    *string                 `json:"text" validate:"omitempty,max=100000"`
	Answers []AnswerRequest         `json:"answers" validate:"omitempty,dive"`
	Code    []CodeSubmissionRequest `json:"code" validate:"omitempty,dive"`
}

// LatePenaltyResponse serializes the late deduction detail.
type LatePenaltyResponse struct {
	Applied        bool    `json:"applied"`
	DaysLate       int     `json:"days_late"`
	Percentage     float64 `json:"percentage"`
	PointsDeducted float64 `json:"points_deducted"`
}

// SubmissionGradingResponse serializes the grading sub-record.
type SubmissionGradingResponse struct {
	IsGraded    bool                `json:"is_graded"`
	AutoGraded  bool                `json:"auto_graded"`
	RawScore    float64             `json:"raw_score"`
	MaxScore    float64             `json:"max_score"`
	Percentage  float64             `json:"percentage"`
	LetterGrade string              `json:"letter_grade"`
	FinalGrade  float64             `json:"final_grade"`
	GradedAt    *time.Time          `json:"graded_at"`
	GradedBy    *uint               `json:"graded_by"`
	LatePenalty LatePenaltyResponse `json:"late_penalty"`
}

// SubmissionContentResponse serializes submission content.
type SubmissionContentResponse struct {
	Text    string                  `json:"text"`
	Answers []models.Answer         `json:"answers"`
	Code    []models.CodeSubmission `json:"code"`
	Files   []models.SubmissionFile `json:"files"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID               uint                      `json:"id"`
	AssignmentID     uint                      `json:"assignment_id"`
	StudentID        uint                      `json:"student_id"`
	CourseID         uint                      `json:"course_id"`
	AttemptNumber    int                       `json:"attempt_number"`
	Status           string                    `json:"status"`
	IsLate           bool                      `json:"is_late"`
	StartedAt        *time.Time                `json:"started_at"`
	SubmittedAt      *time.Time                `json:"submitted_at"`
	TimeSpentSeconds int64                     `json:"time_spent_seconds"`
	Content          SubmissionContentResponse `json:"content"`
	Grading          SubmissionGradingResponse `json:"grading"`
	GradeID          *uint                     `json:"grade_id"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// ResubmitEligibilityResponse reports whether another attempt may be started.
type ResubmitEligibilityResponse struct {
	SubmissionID    uint  `json:"submission_id"`
	CanResubmit     bool  `json:"can_resubmit"`
	AttemptsUsed    int64 `json:"attempts_used"`
	AttemptsAllowed int   `json:"attempts_allowed"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:               model.ID,
		AssignmentID:     model.AssignmentID,
		StudentID:        model.StudentID,
		CourseID:         model.CourseID,
		AttemptNumber:    model.AttemptNumber,
		Status:           model.Status,
		IsLate:           model.IsLate,
		StartedAt:        model.StartedAt,
		SubmittedAt:      model.SubmittedAt,
		TimeSpentSeconds: model.TimeSpentSeconds,
		Content: SubmissionContentResponse{
			Text:    model.Content.Text,
			Answers: nonNil(model.Content.Answers),
			Code:    nonNil(model.Content.Code),
			Files:   nonNil(model.Content.Files),
		},
		Grading: SubmissionGradingResponse{
			IsGraded:    model.Grading.IsGraded,
			AutoGraded:  model.Grading.AutoGraded,
			RawScore:    model.Grading.RawScore,
			MaxScore:    model.Grading.MaxScore,
			Percentage:  model.Grading.Percentage,
			LetterGrade: model.Grading.LetterGrade,
			FinalGrade:  model.Grading.FinalGrade,
			GradedAt:    model.Grading.GradedAt,
			GradedBy:    model.Grading.GradedBy,
			LatePenalty: LatePenaltyResponse{
				Applied:        model.Grading.LatePenalty.Applied,
				DaysLate:       model.Grading.LatePenalty.DaysLate,
				Percentage:     model.Grading.LatePenalty.Percentage,
				PointsDeducted: model.Grading.LatePenalty.PointsDeducted,
			},
		},
		GradeID:   model.GradeID,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewSubmissionResponseSlice converts a slice of submissions into DTOs.
func NewSubmissionResponseSlice(items []models.Submission) []SubmissionResponse {
	out := make([]SubmissionResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewSubmissionResponse(item))
	}
	return out
}

// AnswersFromRequest converts request answers into model answers.
func AnswersFromRequest(items []AnswerRequest) []models.Answer {
	out := make([]models.Answer, 0, len(items))
	for _, item := range items {
		out = append(out, models.Answer{
			QuestionID: item.QuestionID,
			Type:       item.Type,
			Response:   item.Response,
			IsCorrect:  item.IsCorrect,
			Points:     item.Points,
		})
	}
	return out
}

// CodeFromRequest converts request code blocks into model code submissions.
func CodeFromRequest(items []CodeSubmissionRequest) []models.CodeSubmission {
	out := make([]models.CodeSubmission, 0, len(items))
	for _, item := range items {
		results := make([]models.TestResult, 0, len(item.TestResults))
		for _, result := range item.TestResults {
			results = append(results, models.TestResult{Name: result.Name, Passed: result.Passed})
		}
		out = append(out, models.CodeSubmission{
			Language:    item.Language,
			Source:      item.Source,
			Points:      item.Points,
			TestResults: results,
		})
	}
	return out
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
