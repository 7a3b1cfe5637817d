package db

import "time"

// Volume 是小说内的分卷。Position 自 1 起在小说内连续且唯一，
// 卷名在同一本小说内不允许重复。
type Volume struct {
	ID        uint   `gorm:"primaryKey"`
	NovelID   uint   `gorm:"not null;uniqueIndex:idx_volumes_novel_position;uniqueIndex:idx_volumes_novel_name"`
	Novel     Novel  `gorm:"foreignKey:NovelID"`
	Name      string `gorm:"not null;uniqueIndex:idx_volumes_novel_name"`
	Position  int    `gorm:"not null;uniqueIndex:idx_volumes_novel_position"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Chapters []Chapter
}
