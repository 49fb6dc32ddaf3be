package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification represents a push notification targeted to a specific user.
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Type      string     `gorm:"size:64" json:"type"`
	Message   string     `gorm:"type:text" json:"message"`
	Read      bool       `gorm:"not null;default:false;index" json:"read"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DiscussionThread is a course-scoped forum topic.
type DiscussionThread struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	CourseID    uint              `gorm:"not null;index" json:"course_id"`
	Title       string            `gorm:"size:255;not null" json:"title"`
	Body        string            `gorm:"type:text" json:"body"`
	AuthorID    uint              `gorm:"not null;index" json:"author_id"`
	AuthorRole  string            `gorm:"size:32" json:"author_role"`
	Metadata    datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	ReplyCount  int               `gorm:"not null;default:0" json:"reply_count"`
	LastReplyAt *time.Time        `gorm:"index" json:"last_reply_at"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Replies     []DiscussionReply `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"replies"`
}

// DiscussionReply represents a reply within a discussion thread.
type DiscussionReply struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ThreadID   uint      `gorm:"index;not null" json:"thread_id"`
	AuthorID   uint      `gorm:"not null;index" json:"author_id"`
	AuthorRole string    `gorm:"size:32" json:"author_role"`
	Content    string    `gorm:"type:text" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
