package service

import (
	"errors"
	"time"

	"github.com/docwn/internal/db"
	"gorm.io/gorm"
)

// ReadingService 维护 (用户, 章节) 维度的阅读进度。匿名调用者（userID 为 0）
// 一律返回 nil 且不产生任何副作用。
type ReadingService struct {
	db *gorm.DB
}

// NewReadingService 构造阅读进度服务。
func NewReadingService(gdb *gorm.DB) *ReadingService {
	return &ReadingService{db: gdb}
}

// Touch 幂等登记阅读记录：首次观察到 (用户, 章节) 时以进度 0 建行，
// 小说字段由章节反推；已有记录原样返回。
func (s *ReadingService) Touch(userID uint, chapter *db.Chapter) (*db.ReadingHistory, error) {
	if userID == 0 || chapter == nil {
		return nil, nil
	}

	novelID, err := s.novelIDOf(chapter)
	if err != nil {
		return nil, err
	}

	var history db.ReadingHistory
	err = s.db.
		Where(db.ReadingHistory{UserID: userID, ChapterID: chapter.ID}).
		Attrs(db.ReadingHistory{NovelID: novelID, ReadAt: time.Now(), ReadingProgress: 0}).
		FirstOrCreate(&history).Error
	if err != nil {
		return nil, err
	}
	return &history, nil
}

// SaveProgress 覆盖式保存进度，进度值收敛到 [0, 1]。记录不存在时创建。
func (s *ReadingService) SaveProgress(userID, chapterID uint, progress float64) (*db.ReadingHistory, error) {
	if userID == 0 {
		return nil, nil
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	var chapter db.Chapter
	if err := s.db.First(&chapter, chapterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChapterNotFound
		}
		return nil, err
	}

	history, err := s.Touch(userID, &chapter)
	if err != nil {
		return nil, err
	}

	history.ReadingProgress = progress
	history.ReadAt = time.Now()
	if err := s.db.Model(history).
		Select("reading_progress", "read_at").
		Updates(history).Error; err != nil {
		return nil, err
	}
	return history, nil
}

// LatestChapter 返回用户在某本小说下最近阅读的记录，没有则返回 nil。
func (s *ReadingService) LatestChapter(userID, novelID uint) (*db.ReadingHistory, error) {
	if userID == 0 {
		return nil, nil
	}

	var history db.ReadingHistory
	err := s.db.
		Where("user_id = ? AND novel_id = ?", userID, novelID).
		Order("read_at desc").
		Preload("Chapter").
		First(&history).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &history, nil
}

func (s *ReadingService) novelIDOf(chapter *db.Chapter) (uint, error) {
	if chapter.Volume.ID != 0 {
		return chapter.Volume.NovelID, nil
	}
	var volume db.Volume
	if err := s.db.First(&volume, chapter.VolumeID).Error; err != nil {
		return 0, err
	}
	return volume.NovelID, nil
}
