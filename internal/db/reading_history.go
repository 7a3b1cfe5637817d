package db

import "time"

// ReadingHistory 记录用户在某章节的阅读进度。(用户, 章节) 唯一，
// Novel 在创建时由章节反推并反范式化，便于按小说聚合查询。
type ReadingHistory struct {
	ID              uint      `gorm:"primaryKey"`
	UserID          uint      `gorm:"not null;uniqueIndex:idx_reading_user_chapter;index:idx_reading_user_novel"`
	User            User      `gorm:"foreignKey:UserID"`
	ChapterID       uint      `gorm:"not null;uniqueIndex:idx_reading_user_chapter"`
	Chapter         Chapter   `gorm:"foreignKey:ChapterID"`
	NovelID         uint      `gorm:"not null;index:idx_reading_user_novel"`
	Novel           Novel     `gorm:"foreignKey:NovelID"`
	ReadAt          time.Time `gorm:"index"`
	ReadingProgress float64   `gorm:"default:0"`
}
