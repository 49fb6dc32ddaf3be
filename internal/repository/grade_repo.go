package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

// GradeAggregate summarises the percentages of every grade on an assignment.
type GradeAggregate struct {
	Count   int64
	Average float64
	Highest float64
	Lowest  float64
}

// GradeRepository persists grades and their comments.
type GradeRepository interface {
	GetByID(ctx context.Context, id uint) (models.Grade, error)
	FindByStudentAndAssignment(ctx context.Context, studentID, assignmentID uint) (models.Grade, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id uint) error
	Aggregate(ctx context.Context, assignmentID uint) (GradeAggregate, error)
	AddComment(ctx context.Context, comment *models.GradeComment) error
	RecordView(ctx context.Context, id uint, viewedAt time.Time, byStudent bool) error
}

type gradeRepository struct {
	db *gorm.DB
}

// NewGradeRepository constructs a GORM-backed grade repository.
func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) GetByID(ctx context.Context, id uint) (models.Grade, error) {
	var grade models.Grade
	if err := r.db.WithContext(ctx).Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).First(&grade, id).Error; err != nil {
		return models.Grade{}, err
	}
	return grade, nil
}

func (r *gradeRepository) FindByStudentAndAssignment(ctx context.Context, studentID, assignmentID uint) (models.Grade, error) {
	var grade models.Grade
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND assignment_id = ?", studentID, assignmentID).
		First(&grade).Error; err != nil {
		return models.Grade{}, err
	}
	return grade, nil
}

func (r *gradeRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Grade, error) {
	var grades []models.Grade
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("student_id ASC").
		Find(&grades).Error; err != nil {
		return nil, err
	}
	return grades, nil
}

func (r *gradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(grade).Error
}

func (r *gradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(grade).Error
}

func (r *gradeRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Where("grade_id = ?", id).Delete(&models.GradeComment{}).Error; err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Delete(&models.Grade{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Aggregate performs a full rescan of the grades stored for an assignment.
func (r *gradeRepository) Aggregate(ctx context.Context, assignmentID uint) (GradeAggregate, error) {
	var aggregate GradeAggregate
	err := r.db.WithContext(ctx).Model(&models.Grade{}).
		Select("COUNT(*) AS count, COALESCE(AVG(score_percentage), 0) AS average, COALESCE(MAX(score_percentage), 0) AS highest, COALESCE(MIN(score_percentage), 0) AS lowest").
		Where("assignment_id = ?", assignmentID).
		Scan(&aggregate).Error
	return aggregate, err
}

func (r *gradeRepository) AddComment(ctx context.Context, comment *models.GradeComment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Grade{}).
			Where("id = ?", comment.GradeID).
			UpdateColumn("timeline_last_modified_at", comment.CreatedAt).
			Error
	})
}

// RecordView increments the view counter and stamps the view timestamps.
func (r *gradeRepository) RecordView(ctx context.Context, id uint, viewedAt time.Time, byStudent bool) error {
	updates := map[string]interface{}{
		"view_count":              gorm.Expr("view_count + ?", 1),
		"timeline_last_viewed_at": viewedAt,
	}
	query := r.db.WithContext(ctx).Model(&models.Grade{}).Where("id = ?", id)

	result := query.UpdateColumns(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	if byStudent {
		return r.db.WithContext(ctx).Model(&models.Grade{}).
			Where("id = ? AND timeline_viewed_by_student_at IS NULL", id).
			UpdateColumn("timeline_viewed_by_student_at", viewedAt).Error
	}
	return nil
}
