package db

import "time"

// ProgressStatus 表示小说的连载进度。
type ProgressStatus string

const (
	ProgressOngoing   ProgressStatus = "ongoing"
	ProgressCompleted ProgressStatus = "completed"
	ProgressSuspended ProgressStatus = "suspended"
)

// ApprovalStatus 表示投稿的审核状态。
type ApprovalStatus string

const (
	ApprovalDraft    ApprovalStatus = "draft"
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Novel 定义了小说模型。软删除通过 DeletedAt 手工维护，
// 可见性过滤由服务层显式拼进查询条件。
type Novel struct {
	ID             uint           `gorm:"primaryKey"`
	Name           string         `gorm:"not null"`
	Slug           string         `gorm:"uniqueIndex;not null"`
	Summary        string         `gorm:"type:text"`
	ProgressStatus ProgressStatus `gorm:"size:16;default:ongoing;index"`
	ApprovalStatus ApprovalStatus `gorm:"size:16;default:draft;index"`
	RejectedReason string         `gorm:"type:text"`
	WordCount      int            `gorm:"default:0"`
	ViewCount      int            `gorm:"default:0"`
	FavoriteCount  int            `gorm:"default:0"`
	CreatedByID    *uint          `gorm:"index"`
	CreatedBy      *User          `gorm:"foreignKey:CreatedByID"`
	DeletedAt      *time.Time     `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Volumes []Volume
}

// IsPubliclyVisible 报告小说是否对公众可见。
func (n *Novel) IsPubliclyVisible() bool {
	return n.ApprovalStatus == ApprovalApproved && n.DeletedAt == nil
}
