package db

import "time"

// NotificationType 区分通知的业务来源。
type NotificationType string

const (
	NotificationComment NotificationType = "comment"
	NotificationReply   NotificationType = "reply"
	NotificationReview  NotificationType = "review"
	NotificationLike    NotificationType = "like"
	NotificationReport  NotificationType = "report"
	NotificationSystem  NotificationType = "system"
)

// Notification 是发给单个用户的站内通知。Related* 外键实现了对关联对象的
// 标签化引用，链接解析按非空的那一个分派。
type Notification struct {
	ID          uint             `gorm:"primaryKey"`
	UserID      uint             `gorm:"not null;index:idx_notifications_user_read"`
	User        User             `gorm:"foreignKey:UserID"`
	Type        NotificationType `gorm:"size:16;not null;index"`
	Title       string           `gorm:"not null"`
	Content     string           `gorm:"type:text"`
	IsRead      bool             `gorm:"default:false;index:idx_notifications_user_read"`
	RedirectURL string
	CreatedAt   time.Time `gorm:"index"`

	RelatedNovelID   *uint    `gorm:"index"`
	RelatedNovel     *Novel   `gorm:"foreignKey:RelatedNovelID"`
	RelatedCommentID *uint    `gorm:"index"`
	RelatedComment   *Comment `gorm:"foreignKey:RelatedCommentID"`
	RelatedReviewID  *uint    `gorm:"index"`
	RelatedReview    *Review  `gorm:"foreignKey:RelatedReviewID"`
}
