package models

import "time"

// Enrollment statuses.
const (
	EnrollmentStatusEnrolled = "enrolled"
	EnrollmentStatusDropped  = "dropped"
)

// Course groups assignments under one instructor.
type Course struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Code         string    `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	InstructorID uint      `gorm:"not null;index" json:"instructor_id"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Enrollment links a student to a course roster.
type Enrollment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseID   uint      `gorm:"not null;uniqueIndex:idx_enrollment_course_student" json:"course_id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_course_student" json:"student_id"`
	Status     string    `gorm:"size:32;not null;index" json:"status"`
	EnrolledAt time.Time `json:"enrolled_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
