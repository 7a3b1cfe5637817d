package db

import "time"

// Comment 是针对小说或具体章节的评论，ParentID 非空时为楼中楼回复。
type Comment struct {
	ID        uint     `gorm:"primaryKey"`
	UserID    uint     `gorm:"not null;index"`
	User      User     `gorm:"foreignKey:UserID"`
	NovelID   uint     `gorm:"not null;index"`
	Novel     Novel    `gorm:"foreignKey:NovelID"`
	ChapterID *uint    `gorm:"index"`
	ParentID  *uint    `gorm:"index"`
	Parent    *Comment `gorm:"foreignKey:ParentID"`
	Content   string   `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
