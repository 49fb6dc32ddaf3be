package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

const (
	defaultInboxPageSize = 50
	maxInboxPageSize     = 100
)

// NotificationRepository stores each user's notification inbox.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, id, userID uint, at time.Time) (models.Notification, error)
	MarkAllRead(ctx context.Context, userID uint, at time.Time) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository constructs a repository backed by GORM.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) inbox(ctx context.Context, userID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > maxInboxPageSize {
		limit = defaultInboxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	query := r.inbox(ctx, userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.inbox(ctx, userID).Where("read = ?", false).Count(&count).Error
	return count, err
}

// MarkRead flags one notification as read. The first read time is kept on repeat calls.
func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uint, at time.Time) (models.Notification, error) {
	err := r.inbox(ctx, userID).
		Where("id = ? AND read = ?", id, false).
		UpdateColumns(map[string]interface{}{"read": true, "read_at": at}).Error
	if err != nil {
		return models.Notification{}, err
	}

	var notification models.Notification
	if err := r.inbox(ctx, userID).Where("id = ?", id).First(&notification).Error; err != nil {
		return models.Notification{}, err
	}
	return notification, nil
}

// MarkAllRead clears the user's unread notifications and reports how many changed.
func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint, at time.Time) (int64, error) {
	result := r.inbox(ctx, userID).
		Where("read = ?", false).
		UpdateColumns(map[string]interface{}{"read": true, "read_at": at})
	return result.RowsAffected, result.Error
}
