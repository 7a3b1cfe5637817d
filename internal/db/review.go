package db

import "time"

// Review 是针对整本小说的带评分评价。
type Review struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	User      User   `gorm:"foreignKey:UserID"`
	NovelID   uint   `gorm:"not null;index"`
	Novel     Novel  `gorm:"foreignKey:NovelID"`
	Rating    int    `gorm:"not null"`
	Content   string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
