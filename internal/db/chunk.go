package db

// Chunk 是章节内容的一个分片：一个独立可解析的 HTML 片段。
// (章节, 位置) 唯一，位置自 1 起连续无空洞。
type Chunk struct {
	ID        uint    `gorm:"primaryKey"`
	ChapterID uint    `gorm:"not null;uniqueIndex:idx_chunks_chapter_position"`
	Chapter   Chapter `gorm:"foreignKey:ChapterID"`
	Position  int     `gorm:"not null;uniqueIndex:idx_chunks_chapter_position"`
	Content   string  `gorm:"type:text;not null"`
	WordCount int     `gorm:"default:0"`
}
