package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/gema-classroom-api/internal/grading"
)

const (
	// SubmissionStatusDraft indicates the work has been started but not handed in.
	SubmissionStatusDraft = "draft"
	// SubmissionStatusSubmitted indicates the submission has been handed in but not graded.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusGraded indicates the submission has been evaluated.
	SubmissionStatusGraded = "graded"
	// SubmissionStatusReturned indicates the instructor handed the work back for revision.
	SubmissionStatusReturned = "returned"
	// SubmissionStatusResubmitted indicates a returned submission was revised.
	SubmissionStatusResubmitted = "resubmitted"
)

// Answer types eligible for objective scoring.
const (
	AnswerTypeMultipleChoice = "multiple_choice"
	AnswerTypeTrueFalse      = "true_false"
	AnswerTypeShortText      = "short_text"
)

// Answer is a single quiz response.
type Answer struct {
	QuestionID string  `json:"question_id"`
	Type       string  `json:"type"`
	Response   string  `json:"response"`
	IsCorrect  *bool   `json:"is_correct,omitempty"`
	Points     float64 `json:"points"`
}

// TestResult is the outcome of one test case run against submitted code.
type TestResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// CodeSubmission holds submitted source with the test results reported for it.
type CodeSubmission struct {
	Language    string       `json:"language"`
	Source      string       `json:"source"`
	Points      float64      `json:"points"`
	TestResults []TestResult `json:"test_results"`
}

// SubmissionFile references an uploaded attachment.
type SubmissionFile struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// SubmissionContent is the free-form body of an attempt.
type SubmissionContent struct {
	Text    string                              `gorm:"type:text" json:"text"`
	Answers datatypes.JSONSlice[Answer]         `json:"answers"`
	Code    datatypes.JSONSlice[CodeSubmission] `json:"code"`
	Files   datatypes.JSONSlice[SubmissionFile] `json:"files"`
}

// LatePenaltyDetail records the deduction applied to a late submission.
type LatePenaltyDetail struct {
	Applied        bool    `gorm:"not null" json:"applied"`
	DaysLate       int     `gorm:"not null" json:"days_late"`
	Percentage     float64 `gorm:"not null" json:"percentage"`
	PointsDeducted float64 `gorm:"not null" json:"points_deducted"`
}

// SubmissionGrading carries the derived scoring state of a submission.
type SubmissionGrading struct {
	IsGraded    bool              `gorm:"not null" json:"is_graded"`
	AutoGraded  bool              `gorm:"not null" json:"auto_graded"`
	RawScore    float64           `gorm:"not null" json:"raw_score"`
	MaxScore    float64           `gorm:"not null" json:"max_score"`
	Percentage  float64           `gorm:"not null" json:"percentage"`
	LetterGrade string            `gorm:"size:4" json:"letter_grade"`
	FinalGrade  float64           `gorm:"not null" json:"final_grade"`
	GradedAt    *time.Time        `json:"graded_at"`
	GradedBy    *uint             `json:"graded_by"`
	LatePenalty LatePenaltyDetail `gorm:"embedded;embeddedPrefix:late_penalty_" json:"late_penalty"`
}

// Submission represents one student's attempt at an assignment.
type Submission struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	AssignmentID     uint              `gorm:"not null;uniqueIndex:idx_submission_attempt" json:"assignment_id"`
	StudentID        uint              `gorm:"not null;uniqueIndex:idx_submission_attempt" json:"student_id"`
	AttemptNumber    int               `gorm:"not null;uniqueIndex:idx_submission_attempt" json:"attempt_number"`
	CourseID         uint              `gorm:"not null;index" json:"course_id"`
	Status           string            `gorm:"size:32;not null;index" json:"status"`
	IsLate           bool              `gorm:"not null" json:"is_late"`
	StartedAt        *time.Time        `json:"started_at"`
	SubmittedAt      *time.Time        `json:"submitted_at"`
	TimeSpentSeconds int64             `gorm:"not null" json:"time_spent_seconds"`
	Content          SubmissionContent `gorm:"embedded;embeddedPrefix:content_" json:"content"`
	Grading          SubmissionGrading `gorm:"embedded;embeddedPrefix:grading_" json:"grading"`
	GradeID          *uint             `gorm:"index" json:"grade_id"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	Assignment       Assignment        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsGraded reports whether the submission has a final grade.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// AcceptsContentChanges reports whether the student may still edit the attempt.
func (s Submission) AcceptsContentChanges() bool {
	switch s.Status {
	case SubmissionStatusDraft, SubmissionStatusSubmitted, SubmissionStatusResubmitted, SubmissionStatusReturned:
		return true
	default:
		return false
	}
}

// HasScorableContent reports whether any answer or code block can be auto-graded.
func (s Submission) HasScorableContent() bool {
	for _, answer := range s.Content.Answers {
		if isObjective(answer.Type) {
			return true
		}
	}
	for _, code := range s.Content.Code {
		if len(code.TestResults) > 0 {
			return true
		}
	}
	return false
}

// ObjectiveScore sums points for correct objective answers and passed test cases.
func (s Submission) ObjectiveScore() float64 {
	var total float64
	for _, answer := range s.Content.Answers {
		if !isObjective(answer.Type) || answer.IsCorrect == nil || !*answer.IsCorrect {
			continue
		}
		total += answer.Points
	}
	for _, code := range s.Content.Code {
		if len(code.TestResults) == 0 {
			continue
		}
		passed := 0
		for _, result := range code.TestResults {
			if result.Passed {
				passed++
			}
		}
		total += code.Points * float64(passed) / float64(len(code.TestResults))
	}
	return grading.Round(total, 2)
}

// ApplyScore records the raw score against the assignment and derives the remaining grading fields.
func (s *Submission) ApplyScore(raw float64, assignment Assignment) {
	s.Grading.RawScore = raw
	s.Grading.MaxScore = assignment.MaxGrade
	s.Grading.LatePenalty = LatePenaltyDetail{}

	if s.IsLate && s.SubmittedAt != nil {
		percent := assignment.LatePenaltyPercent(*s.SubmittedAt)
		if percent > 0 {
			s.Grading.LatePenalty = LatePenaltyDetail{
				Applied:        true,
				DaysLate:       grading.DaysLate(assignment.DueDate, *s.SubmittedAt),
				Percentage:     percent,
				PointsDeducted: grading.PenaltyPoints(raw, percent),
			}
		}
	}

	s.Grading.FinalGrade = grading.Round(raw-s.Grading.LatePenalty.PointsDeducted, 2)
	s.Grading.Percentage = grading.Percentage(s.Grading.FinalGrade, s.Grading.MaxScore)
	s.Grading.LetterGrade = grading.LetterFor(s.Grading.Percentage)
	s.Grading.IsGraded = true
}

// ResetGrading clears derived scoring state when a grade is removed.
func (s *Submission) ResetGrading() {
	s.Grading = SubmissionGrading{}
	s.GradeID = nil
	s.Status = SubmissionStatusSubmitted
}

func isObjective(answerType string) bool {
	return answerType == AnswerTypeMultipleChoice || answerType == AnswerTypeTrueFalse
}
