package db

import "time"

// Chapter 是分卷内的章节。Slug 全局唯一，Position 自 1 起在卷内连续且唯一。
// WordCount 与 ViewCount 为反范式字段，由服务层维护。
type Chapter struct {
	ID             uint       `gorm:"primaryKey"`
	VolumeID       uint       `gorm:"not null;uniqueIndex:idx_chapters_volume_position"`
	Volume         Volume     `gorm:"foreignKey:VolumeID"`
	Title          string     `gorm:"not null"`
	Slug           string     `gorm:"uniqueIndex;not null"`
	Position       int        `gorm:"not null;uniqueIndex:idx_chapters_volume_position"`
	WordCount      int        `gorm:"default:0"`
	ViewCount      int        `gorm:"default:0"`
	Approved       bool       `gorm:"default:false;index"`
	RejectedReason string     `gorm:"type:text"`
	IsHidden       bool       `gorm:"default:false;index"`
	DeletedAt      *time.Time `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Chunks []Chunk
}

// IsPubliclyVisible 报告章节本身是否对公众可见（不含所属小说的条件）。
func (c *Chapter) IsPubliclyVisible() bool {
	return c.Approved && !c.IsHidden && c.DeletedAt == nil
}
