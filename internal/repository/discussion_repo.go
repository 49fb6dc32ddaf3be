package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

const (
	defaultThreadPageSize = 20
	maxThreadPageSize     = 100
)

// DiscussionRepository persists course discussion threads and replies.
type DiscussionRepository interface {
	ListThreads(ctx context.Context, courseID uint, limit, offset int) ([]models.DiscussionThread, error)
	GetThread(ctx context.Context, id uint) (models.DiscussionThread, error)
	GetThreadWithReplies(ctx context.Context, id uint) (models.DiscussionThread, error)
	CreateThread(ctx context.Context, thread *models.DiscussionThread) error
	UpdateThread(ctx context.Context, thread *models.DiscussionThread) error
	DeleteThread(ctx context.Context, id uint) error
	CreateReply(ctx context.Context, reply *models.DiscussionReply) error
}

type discussionRepository struct {
	db *gorm.DB
}

// NewDiscussionRepository constructs a GORM-backed repository.
func NewDiscussionRepository(db *gorm.DB) DiscussionRepository {
	return &discussionRepository{db: db}
}

// ListThreads orders threads by latest activity: the last reply, or creation
// when nobody has replied yet.
func (r *discussionRepository) ListThreads(ctx context.Context, courseID uint, limit, offset int) ([]models.DiscussionThread, error) {
	if limit <= 0 || limit > maxThreadPageSize {
		limit = defaultThreadPageSize
	}
	if offset < 0 {
		offset = 0
	}

	var threads []models.DiscussionThread
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("COALESCE(last_reply_at, created_at) DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&threads).Error
	return threads, err
}

func (r *discussionRepository) GetThread(ctx context.Context, id uint) (models.DiscussionThread, error) {
	var thread models.DiscussionThread
	err := r.db.WithContext(ctx).First(&thread, id).Error
	return thread, err
}

func (r *discussionRepository) GetThreadWithReplies(ctx context.Context, id uint) (models.DiscussionThread, error) {
	var thread models.DiscussionThread
	err := r.db.WithContext(ctx).
		Preload("Replies", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&thread, id).Error
	return thread, err
}

func (r *discussionRepository) CreateThread(ctx context.Context, thread *models.DiscussionThread) error {
	return r.db.WithContext(ctx).Omit("Replies").Create(thread).Error
}

func (r *discussionRepository) UpdateThread(ctx context.Context, thread *models.DiscussionThread) error {
	return r.db.WithContext(ctx).Model(thread).
		Select("title", "body", "metadata", "updated_at").
		Updates(thread).Error
}

func (r *discussionRepository) DeleteThread(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_id = ?", id).Delete(&models.DiscussionReply{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.DiscussionThread{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// CreateReply stores the reply and bumps the thread's reply counter in one transaction.
func (r *discussionRepository) CreateReply(ctx context.Context, reply *models.DiscussionReply) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reply).Error; err != nil {
			return err
		}

		result := tx.Model(&models.DiscussionThread{}).
			Where("id = ?", reply.ThreadID).
			UpdateColumns(map[string]interface{}{
				"reply_count":   gorm.Expr("reply_count + ?", 1),
				"last_reply_at": reply.CreatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
