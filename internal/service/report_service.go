package service

import (
	"errors"
	"time"

	"github.com/docwn/internal/db"
	"gorm.io/gorm"
)

var (
	ErrReportNotFound      = errors.New("report not found")
	ErrReportTargetInvalid = errors.New("report must reference exactly one of comment or review")
	ErrDuplicateReport     = errors.New("an open report for this target already exists")
)

// ReportService wraps report related database operations.
type ReportService struct {
	db *gorm.DB
}

// NewReportService 构造举报服务。
func NewReportService(gdb *gorm.DB) *ReportService {
	return &ReportService{db: gdb}
}

// ReportInput represents fields accepted when filing a report.
type ReportInput struct {
	UserID      uint
	CommentID   *uint
	ReviewID    *uint
	Reason      db.ReportReason
	Description string
}

// File 提交举报。目标必须且只能指向评论或评价之一；同一举报人对同一目标
// 已有未处理举报时返回领域错误，不产生新行。
func (s *ReportService) File(input ReportInput) (*db.Report, error) {
	if (input.CommentID == nil) == (input.ReviewID == nil) {
		return nil, ErrReportTargetInvalid
	}

	dup := s.db.Model(&db.Report{}).
		Where("user_id = ? AND status = ?", input.UserID, db.ReportPending)
	if input.CommentID != nil {
		dup = dup.Where("comment_id = ?", *input.CommentID)
	} else {
		dup = dup.Where("review_id = ?", *input.ReviewID)
	}
	var count int64
	if err := dup.Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateReport
	}

	report := db.Report{
		UserID:      input.UserID,
		CommentID:   input.CommentID,
		ReviewID:    input.ReviewID,
		Reason:      input.Reason,
		Description: input.Description,
		Status:      db.ReportPending,
	}
	if err := s.db.Create(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// Resolve 处理举报：记下处理人、处理时间与备注。
func (s *ReportService) Resolve(reportID, resolvedByID uint, description string) (*db.Report, error) {
	var report db.Report
	if err := s.db.First(&report, reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	now := time.Now()
	report.Status = db.ReportResolved
	report.ResolvedByID = &resolvedByID
	report.ResolvedAt = &now
	if description != "" {
		report.Description = description
	}
	err := s.db.Model(&report).Select("status", "resolved_by_id", "resolved_at", "description").Updates(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListPending 返回待处理的举报，按创建时间倒序。
func (s *ReportService) ListPending(limit, offset int) ([]db.Report, error) {
	var reports []db.Report
	err := s.db.
		Where("status = ?", db.ReportPending).
		Order("created_at desc").
		Limit(limit).Offset(offset).
		Find(&reports).Error
	return reports, err
}
