package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docwn/internal/db"
	"github.com/docwn/internal/textutil"
	"gorm.io/gorm"
)

var (
	ErrChapterNotFound     = errors.New("chapter not found")
	ErrVolumeNotFound      = errors.New("volume not found")
	ErrDuplicateVolumeName = errors.New("volume name already used in this novel")
	ErrSlugExhausted       = errors.New("could not allocate a unique chapter slug")
)

const (
	// slugMaxAttempts 是 slug 撞车后的重试上限，超过则把失败抛给上层。
	slugMaxAttempts = 10
	// slugTokenLength 是撞车时追加的随机后缀长度。
	slugTokenLength = 10
)

// ChapterService wraps volume and chapter related database operations.
type ChapterService struct {
	db *gorm.DB
}

// NewChapterService 构造章节服务。
func NewChapterService(gdb *gorm.DB) *ChapterService {
	return &ChapterService{db: gdb}
}

// ChapterInput represents fields accepted when creating a chapter.
type ChapterInput struct {
	VolumeID uint
	Title    string
	Position int // 0 表示由服务分配下一个连续位置
}

// CreateVolume 在小说内新建分卷并分配下一个连续位置。
// 同名分卷返回 ErrDuplicateVolumeName。
func (s *ChapterService) CreateVolume(novelID uint, name string) (*db.Volume, error) {
	name = strings.TrimSpace(name)

	volume := db.Volume{NovelID: novelID, Name: name}
	for attempt := 0; attempt < slugMaxAttempts; attempt++ {
		var count int64
		if err := s.db.Model(&db.Volume{}).Where("novel_id = ?", novelID).Count(&count).Error; err != nil {
			return nil, err
		}
		volume.Position = int(count) + 1

		err := s.db.Create(&volume).Error
		if err == nil {
			return &volume, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		if strings.Contains(err.Error(), "name") {
			return nil, ErrDuplicateVolumeName
		}
		// 位置撞车说明有并发插入，重新取数再试
	}
	return nil, ErrSlugExhausted
}

// Create 新建章节：位置缺省取卷内下一个连续值，slug 由卷名与标题派生并保证
// 全局唯一，撞车时追加随机后缀重试，至多 slugMaxAttempts 次。
func (s *ChapterService) Create(input ChapterInput) (*db.Chapter, error) {
	var volume db.Volume
	if err := s.db.First(&volume, input.VolumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVolumeNotFound
		}
		return nil, err
	}

	chapter := db.Chapter{
		VolumeID: volume.ID,
		Title:    strings.TrimSpace(input.Title),
		Position: input.Position,
	}
	if chapter.Position <= 0 {
		var count int64
		if err := s.db.Model(&db.Chapter{}).Where("volume_id = ?", volume.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		chapter.Position = int(count) + 1
	}

	volumeSlug := textutil.Slugify(volume.Name)
	if volumeSlug == "" {
		volumeSlug = fmt.Sprintf("tap-%d", volume.Position)
	}
	chapterSlug := textutil.Slugify(chapter.Title)
	if chapterSlug == "" {
		chapterSlug = fmt.Sprintf("chuong-%d", chapter.Position)
	}
	slug := volumeSlug + "-" + chapterSlug

	for attempt := 0; attempt < slugMaxAttempts; attempt++ {
		chapter.Slug = slug
		err := s.db.Create(&chapter).Error
		if err == nil {
			chapter.Volume = volume
			return &chapter, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		if strings.Contains(err.Error(), "position") {
			// 并发插入抢了位置，顺延一位重试
			chapter.Position++
			continue
		}
		slug = slug + "-" + textutil.RandomToken(slugTokenLength)
	}
	return nil, ErrSlugExhausted
}

// GetForUser 按 (小说 slug, 章节 slug) 解析章节。先按公共可见性查询；
// 查不到且调用者是小说作者时放宽为未删除即可。无权访问一律当不存在处理。
func (s *ChapterService) GetForUser(novelSlug, chapterSlug string, userID uint) (*db.Chapter, error) {
	var chapter db.Chapter
	err := s.joinNovel().
		Where("chapters.slug = ? AND novels.slug = ?", chapterSlug, novelSlug).
		Where("chapters.approved = ? AND chapters.is_hidden = ? AND chapters.deleted_at IS NULL", true, false).
		Where("novels.approval_status = ? AND novels.deleted_at IS NULL", db.ApprovalApproved).
		Preload("Volume.Novel").
		First(&chapter).Error
	if err == nil {
		return &chapter, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if userID != 0 {
		err = s.joinNovel().
			Where("chapters.slug = ? AND novels.slug = ?", chapterSlug, novelSlug).
			Where("novels.created_by_id = ?", userID).
			Where("chapters.deleted_at IS NULL AND novels.deleted_at IS NULL").
			Preload("Volume.Novel").
			First(&chapter).Error
		if err == nil {
			return &chapter, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, ErrChapterNotFound
}

// Next 返回阅读顺序中的下一章：按 (卷位置, 章位置) 字典序取最小的后继，
// 跨卷边界同样成立。公共视角跳过不可见章节；作者视角只跳过已删除的。
// 没有后继时返回 (nil, nil)。
func (s *ChapterService) Next(chapter *db.Chapter, ownerView bool) (*db.Chapter, error) {
	volume, err := s.volumeOf(chapter)
	if err != nil {
		return nil, err
	}

	q := s.navQuery(volume.NovelID, ownerView).
		Where("volumes.position > ? OR (volumes.position = ? AND chapters.position > ?)",
			volume.Position, volume.Position, chapter.Position).
		Order("volumes.position asc, chapters.position asc")
	return firstOrNil(q)
}

// Prev 与 Next 对称，取字典序最大的前驱。
func (s *ChapterService) Prev(chapter *db.Chapter, ownerView bool) (*db.Chapter, error) {
	volume, err := s.volumeOf(chapter)
	if err != nil {
		return nil, err
	}

	q := s.navQuery(volume.NovelID, ownerView).
		Where("volumes.position < ? OR (volumes.position = ? AND chapters.position < ?)",
			volume.Position, volume.Position, chapter.Position).
		Order("volumes.position desc, chapters.position desc")
	return firstOrNil(q)
}

// Content 按位置顺序拼接章节全部分片，以换行分隔。
func (s *ChapterService) Content(chapter *db.Chapter) (string, error) {
	var chunks []db.Chunk
	if err := s.db.Where("chapter_id = ?", chapter.ID).Order("position asc").Find(&chunks).Error; err != nil {
		return "", err
	}
	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = chunk.Content
	}
	return strings.Join(parts, "\n"), nil
}

// ListForNovel 返回小说的全部章节，按 (卷位置, 章位置) 排序。
// 公共视角只含可见章节，作者视角含未删除的全部章节。
func (s *ChapterService) ListForNovel(novelID uint, ownerView bool) ([]db.Chapter, error) {
	var chapters []db.Chapter
	err := s.navQuery(novelID, ownerView).
		Order("volumes.position asc, chapters.position asc").
		Preload("Volume").
		Find(&chapters).Error
	return chapters, err
}

// Approve 通过章节审核并清空驳回理由。
func (s *ChapterService) Approve(chapterID uint) error {
	return s.updateModeration(chapterID, map[string]interface{}{
		"approved":        true,
		"rejected_reason": "",
	})
}

// Reject 驳回章节并记录理由。
func (s *ChapterService) Reject(chapterID uint, reason string) error {
	return s.updateModeration(chapterID, map[string]interface{}{
		"approved":        false,
		"rejected_reason": reason,
	})
}

// SetHidden 切换章节的隐藏标记。
func (s *ChapterService) SetHidden(chapterID uint, hidden bool) error {
	return s.updateModeration(chapterID, map[string]interface{}{"is_hidden": hidden})
}

// SoftDelete 给章节打删除时间戳，分片保持原样（父子引用均为受限删除）。
func (s *ChapterService) SoftDelete(chapterID uint) error {
	now := time.Now()
	return s.updateModeration(chapterID, map[string]interface{}{"deleted_at": &now})
}

// IncrementViewCount 自增章节阅读数。
func (s *ChapterService) IncrementViewCount(chapterID uint) error {
	return s.db.Model(&db.Chapter{}).
		Where("id = ?", chapterID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (s *ChapterService) updateModeration(chapterID uint, fields map[string]interface{}) error {
	result := s.db.Model(&db.Chapter{}).Where("id = ?", chapterID).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChapterNotFound
	}
	return nil
}

func (s *ChapterService) joinNovel() *gorm.DB {
	return s.db.Model(&db.Chapter{}).
		Joins("JOIN volumes ON volumes.id = chapters.volume_id").
		Joins("JOIN novels ON novels.id = volumes.novel_id")
}

func (s *ChapterService) navQuery(novelID uint, ownerView bool) *gorm.DB {
	q := s.joinNovel().Where("volumes.novel_id = ?", novelID)
	if ownerView {
		q = q.Where("chapters.deleted_at IS NULL")
	} else {
		q = q.Where("chapters.approved = ? AND chapters.is_hidden = ? AND chapters.deleted_at IS NULL", true, false)
	}
	return q
}

func (s *ChapterService) volumeOf(chapter *db.Chapter) (*db.Volume, error) {
	if chapter.Volume.ID == chapter.VolumeID && chapter.Volume.ID != 0 {
		return &chapter.Volume, nil
	}
	var volume db.Volume
	if err := s.db.First(&volume, chapter.VolumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVolumeNotFound
		}
		return nil, err
	}
	return &volume, nil
}

func firstOrNil(q *gorm.DB) (*db.Chapter, error) {
	var chapter db.Chapter
	if err := q.Preload("Volume").First(&chapter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chapter, nil
}

// isUniqueViolation 识别唯一约束冲突。sqlite 与多数驱动的报错文本都包含
// unique constraint 字样，gorm 的翻译层则给出 ErrDuplicatedKey。
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
