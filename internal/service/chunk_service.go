package service

import (
	"errors"

	"github.com/docwn/internal/chunker"
	"github.com/docwn/internal/db"
	"github.com/docwn/internal/textutil"
	"gorm.io/gorm"
)

// ErrChapterNotSaved 在对尚未持久化的章节做分片操作时返回。
var ErrChapterNotSaved = errors.New("chapter has no identity yet")

// ChunkService 负责章节分片的持久化：整体替换、更新与有序读取。
type ChunkService struct {
	db *gorm.DB
}

// NewChunkService 构造分片服务。
func NewChunkService(gdb *gorm.DB) *ChunkService {
	return &ChunkService{db: gdb}
}

// Rechunk 用新内容整体重建章节的分片集合。总词数在任何破坏性操作前按
// 原始文本计算——分片内的词数经过了空白归一化，两者可能存在差异，
// 章节字段始终以原始文本为准。删除与重建在同一事务内完成，外部读者
// 要么看到旧分片集，要么看到完整的新分片集。
func (s *ChunkService) Rechunk(chapter *db.Chapter, content string, ck *chunker.Chunker) error {
	if chapter == nil || chapter.ID == 0 {
		return ErrChapterNotSaved
	}
	if ck == nil {
		ck = chunker.New()
	}

	totalWords := textutil.WordCount(textutil.ExtractText(content))
	fragments := ck.Split(content)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chapter_id = ?", chapter.ID).Delete(&db.Chunk{}).Error; err != nil {
			return err
		}

		for i, fragment := range fragments {
			body := fragment.Content
			if !ck.Valid(body) {
				body = "<p>" + body + "</p>"
			}
			chunk := db.Chunk{
				ChapterID: chapter.ID,
				Position:  i + 1,
				Content:   body,
				WordCount: fragment.WordCount,
			}
			if err := tx.Create(&chunk).Error; err != nil {
				return err
			}
		}

		return tx.Model(&db.Chapter{}).
			Where("id = ?", chapter.ID).
			Update("word_count", totalWords).Error
	})
	if err != nil {
		return err
	}

	chapter.WordCount = totalWords
	return nil
}

// Update 是 Rechunk 的别名，语义上用于既有章节的内容更新。
func (s *ChunkService) Update(chapter *db.Chapter, newContent string, ck *chunker.Chunker) error {
	return s.Rechunk(chapter, newContent, ck)
}

// ChunksOf 按位置升序返回章节的全部分片。
func (s *ChunkService) ChunksOf(chapter *db.Chapter) ([]db.Chunk, error) {
	if chapter == nil || chapter.ID == 0 {
		return nil, ErrChapterNotSaved
	}
	var chunks []db.Chunk
	err := s.db.Where("chapter_id = ?", chapter.ID).Order("position asc").Find(&chunks).Error
	return chunks, err
}
