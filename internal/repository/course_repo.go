package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

// CourseRepository persists courses and their enrollment records.
type CourseRepository interface {
	GetByID(ctx context.Context, id uint) (models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	FindEnrollment(ctx context.Context, courseID, studentID uint) (models.Enrollment, error)
	SaveEnrollment(ctx context.Context, enrollment *models.Enrollment) error
}

// RosterRepository answers enrollment questions for a course.
type RosterRepository interface {
	CountEnrolled(ctx context.Context, courseID uint) (int64, error)
	IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs the course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) FindEnrollment(ctx context.Context, courseID, studentID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (r *courseRepository) SaveEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Save(enrollment).Error
}

type rosterRepository struct {
	db *gorm.DB
}

// NewRosterRepository answers roster queries from the enrollments table.
func NewRosterRepository(db *gorm.DB) RosterRepository {
	return &rosterRepository{db: db}
}

func (r *rosterRepository) CountEnrolled(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("course_id = ? AND status = ?", courseID, models.EnrollmentStatusEnrolled).
		Count(&count).Error
	return count, err
}

func (r *rosterRepository) IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("course_id = ? AND student_id = ? AND status = ?", courseID, studentID, models.EnrollmentStatusEnrolled).
		Count(&count).Error
	return count > 0, err
}
