package dto

import (
	"time"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

// CourseCreateRequest is the payload to open a course.
type CourseCreateRequest struct {
	Code        string `json:"code" validate:"required,min=2,max=32"`
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"omitempty,max=5000"`
}

// EnrollRequest enrolls a student. Students enrolling themselves may omit the id.
type EnrollRequest struct {
	StudentID uint `json:"student_id" validate:"omitempty,gt=0"`
}

// CourseResponse describes a course returned by the API.
type CourseResponse struct {
	ID            uint      `json:"id"`
	Code          string    `json:"code"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	InstructorID  uint      `json:"instructor_id"`
	IsActive      bool      `json:"is_active"`
	EnrolledCount int64     `json:"enrolled_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EnrollmentResponse describes an enrollment record.
type EnrollmentResponse struct {
	ID         uint      `json:"id"`
	CourseID   uint      `json:"course_id"`
	StudentID  uint      `json:"student_id"`
	Status     string    `json:"status"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// NewCourseResponse converts a course model to its DTO.
func NewCourseResponse(model models.Course, enrolled int64) CourseResponse {
	return CourseResponse{
		ID:            model.ID,
		Code:          model.Code,
		Title:         model.Title,
		Description:   model.Description,
		InstructorID:  model.InstructorID,
		IsActive:      model.IsActive,
		EnrolledCount: enrolled,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewEnrollmentResponse converts an enrollment model to its DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:         model.ID,
		CourseID:   model.CourseID,
		StudentID:  model.StudentID,
		Status:     model.Status,
		EnrolledAt: model.EnrolledAt,
	}
}
