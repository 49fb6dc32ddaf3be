package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	CourseID   *uint
	ActiveOnly bool
	Sort       string
}

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error)
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Deactivate(ctx context.Context, id uint) error
	UpdateGradeStatistics(ctx context.Context, id uint, graded int64, average float64) error
	UpdateStatistics(ctx context.Context, id uint, stats models.AssignmentStatistics) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).Model(&models.Assignment{})

	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var assignments []models.Assignment
	if err := query.Order(normalizeAssignmentSort(filter.Sort)).Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(assignment).Error
}

func (r *assignmentRepository) Deactivate(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *assignmentRepository) UpdateGradeStatistics(ctx context.Context, id uint, graded int64, average float64) error {
	return r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stats_graded_submissions": graded,
			"stats_average_grade":      average,
		}).Error
}

func (r *assignmentRepository) UpdateStatistics(ctx context.Context, id uint, stats models.AssignmentStatistics) error {
	return r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stats_total_submissions":  stats.TotalSubmissions,
			"stats_graded_submissions": stats.GradedSubmissions,
			"stats_average_grade":      stats.AverageGrade,
			"stats_highest_grade":      stats.HighestGrade,
			"stats_lowest_grade":       stats.LowestGrade,
			"stats_submission_rate":    stats.SubmissionRate,
		}).Error
}

func normalizeAssignmentSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "-due_date", "due_date:desc", "due_date.desc":
		return "due_date DESC"
	case "title", "title:asc", "title.asc":
		return "title ASC"
	case "-title", "title:desc", "title.desc":
		return "title DESC"
	case "-updated_at", "updated_at:desc", "updated_at.desc":
		return "updated_at DESC"
	default:
		return "due_date ASC"
	}
}
