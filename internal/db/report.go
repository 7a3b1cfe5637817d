package db

import "time"

// ReportReason 是举报理由的枚举。
type ReportReason string

const (
	ReasonSpam       ReportReason = "spam"
	ReasonOffensive  ReportReason = "offensive"
	ReasonHarassment ReportReason = "harassment"
	ReasonFake       ReportReason = "fake"
	ReasonCopyright  ReportReason = "copyright"
	ReasonOther      ReportReason = "other"
)

// ReportStatus 是举报的处理状态。
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportResolved ReportStatus = "resolved"
)

// Report 是用户对评论或评价的举报。CHECK 约束保证两者至少指向其一；
// 同一举报人对同一目标最多存在一条未处理举报，由服务层把守。
type Report struct {
	ID           uint         `gorm:"primaryKey"`
	UserID       uint         `gorm:"not null;index"`
	User         User         `gorm:"foreignKey:UserID"`
	CommentID    *uint        `gorm:"index;check:chk_report_target,comment_id IS NOT NULL OR review_id IS NOT NULL"`
	Comment      *Comment     `gorm:"foreignKey:CommentID"`
	ReviewID     *uint        `gorm:"index"`
	Review       *Review      `gorm:"foreignKey:ReviewID"`
	Reason       ReportReason `gorm:"size:16;not null"`
	Description  string       `gorm:"type:text"`
	Status       ReportStatus `gorm:"size:16;default:pending;index"`
	ResolvedByID *uint        `gorm:"index"`
	ResolvedBy   *User        `gorm:"foreignKey:ResolvedByID"`
	ResolvedAt   *time.Time
	CreatedAt    time.Time `gorm:"index"`
}
