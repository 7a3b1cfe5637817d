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

var ErrNovelNotFound = errors.New("novel not found")

const (
	defaultNovelName    = "Untitled Novel"
	defaultNovelSummary = "No summary available"
)

// NovelService wraps novel related database operations.
type NovelService struct {
	db *gorm.DB
}

// NewNovelService 构造小说服务。
func NewNovelService(gdb *gorm.DB) *NovelService {
	return &NovelService{db: gdb}
}

// NovelInput represents fields accepted when creating a novel.
type NovelInput struct {
	Name        string
	Summary     string
	CreatedByID *uint
}

// Create 新建小说：空名称与空简介落库前替换为默认值，slug 由名称派生，
// 重名时追加递增序号保证唯一。新稿初始为草稿状态。
func (s *NovelService) Create(input NovelInput) (*db.Novel, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = defaultNovelName
	}
	summary := strings.TrimSpace(input.Summary)
	if summary == "" {
		summary = defaultNovelSummary
	}

	base := textutil.Slugify(name)
	if base == "" {
		base = "novel"
	}

	slug := base
	for counter := 1; ; counter++ {
		var count int64
		if err := s.db.Model(&db.Novel{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}

	novel := db.Novel{
		Name:           name,
		Slug:           slug,
		Summary:        summary,
		ProgressStatus: db.ProgressOngoing,
		ApprovalStatus: db.ApprovalDraft,
		CreatedByID:    input.CreatedByID,
	}
	if err := s.db.Create(&novel).Error; err != nil {
		return nil, err
	}
	return &novel, nil
}

// Submit 将草稿或被驳回的小说置为待审核。
func (s *NovelService) Submit(novelID uint) error {
	return s.updateStatus(novelID, map[string]interface{}{
		"approval_status": db.ApprovalPending,
	})
}

// Approve 通过小说审核并清空驳回理由。
func (s *NovelService) Approve(novelID uint) error {
	return s.updateStatus(novelID, map[string]interface{}{
		"approval_status": db.ApprovalApproved,
		"rejected_reason": "",
	})
}

// Reject 驳回小说并记录理由。
func (s *NovelService) Reject(novelID uint, reason string) error {
	return s.updateStatus(novelID, map[string]interface{}{
		"approval_status": db.ApprovalRejected,
		"rejected_reason": reason,
	})
}

// SoftDelete 给小说打删除时间戳。分卷与章节保持原样，受限删除语义下
// 不做级联清理。
func (s *NovelService) SoftDelete(novelID uint) error {
	now := time.Now()
	return s.updateStatus(novelID, map[string]interface{}{"deleted_at": &now})
}

// GetBySlug 按 slug 解析小说：公共视角要求已过审且未删除，作者视角
// 放宽为未删除。无权访问一律当不存在处理。
func (s *NovelService) GetBySlug(slug string, userID uint) (*db.Novel, error) {
	var novel db.Novel
	err := s.db.
		Where("slug = ? AND approval_status = ? AND deleted_at IS NULL", slug, db.ApprovalApproved).
		First(&novel).Error
	if err == nil {
		return &novel, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if userID != 0 {
		err = s.db.
			Where("slug = ? AND created_by_id = ? AND deleted_at IS NULL", slug, userID).
			First(&novel).Error
		if err == nil {
			return &novel, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, ErrNovelNotFound
}

// Get 按主键取小说。
func (s *NovelService) Get(novelID uint) (*db.Novel, error) {
	var novel db.Novel
	if err := s.db.First(&novel, novelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNovelNotFound
		}
		return nil, err
	}
	return &novel, nil
}

// IsOwnedBy 报告小说是否由指定用户创建。
func (s *NovelService) IsOwnedBy(novel *db.Novel, userID uint) bool {
	return userID != 0 && novel.CreatedByID != nil && *novel.CreatedByID == userID
}

func (s *NovelService) updateStatus(novelID uint, fields map[string]interface{}) error {
	result := s.db.Model(&db.Novel{}).Where("id = ?", novelID).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNovelNotFound
	}
	return nil
}
