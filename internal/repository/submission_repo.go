package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

// SubmissionFilter narrows submission listings. Nil fields match everything.
type SubmissionFilter struct {
	AssignmentID  *uint
	StudentID     *uint
	Statuses      []string
	ExcludeDrafts bool
}

// SubmissionRepository stores submission attempts.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	CountAttempts(ctx context.Context, assignmentID, studentID uint) (int64, error)
	CountSubmitters(ctx context.Context, assignmentID uint) (int64, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) withAssignment(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).Preload("Assignment")
}

// List groups attempts by student, newest attempt first.
func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.withAssignment(ctx).
		Scopes(submissionFilterScope(filter)).
		Order("student_id ASC").
		Order("attempt_number DESC").
		Find(&submissions).Error
	return submissions, err
}

func submissionFilterScope(filter SubmissionFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.AssignmentID != nil {
			db = db.Where("assignment_id = ?", *filter.AssignmentID)
		}
		if filter.StudentID != nil {
			db = db.Where("student_id = ?", *filter.StudentID)
		}
		if len(filter.Statuses) > 0 {
			db = db.Where("status IN ?", filter.Statuses)
		}
		if filter.ExcludeDrafts {
			db = db.Where("status <> ?", models.SubmissionStatusDraft)
		}
		return db
	}
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	err := r.withAssignment(ctx).First(&submission, id).Error
	return submission, err
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(submission).Error
}

func (r *submissionRepository) CountAttempts(ctx context.Context, assignmentID, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		Count(&count).Error
	return count, err
}

// CountSubmitters counts distinct students with at least one handed-in attempt.
func (r *submissionRepository) CountSubmitters(ctx context.Context, assignmentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("assignment_id = ? AND status <> ?", assignmentID, models.SubmissionStatusDraft).
		Distinct("student_id").
		Count(&count).Error
	return count, err
}
