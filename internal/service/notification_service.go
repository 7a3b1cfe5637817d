package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/docwn/internal/db"
	"github.com/docwn/internal/sse"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService 负责通知的创建、深链解析、查询与到 SSE 枢纽的扇出。
// 投递失败只会被记录，领域写入不受影响。
type NotificationService struct {
	db  *gorm.DB
	hub *sse.Hub
}

// NewNotificationService 构造通知服务。hub 允许为 nil（例如只读场景的测试）。
func NewNotificationService(gdb *gorm.DB, hub *sse.Hub) *NotificationService {
	return &NotificationService{db: gdb, hub: hub}
}

// NotifyInput represents fields accepted when creating a notification.
type NotifyInput struct {
	UserID      uint
	Title       string
	Content     string
	Type        db.NotificationType
	RedirectURL string

	RelatedNovelID   *uint
	RelatedCommentID *uint
	RelatedReviewID  *uint
}

// Notify 落库一条通知并推给用户的所有存活流。未显式给出深链时由
// attachLink 解析。
func (s *NotificationService) Notify(input NotifyInput) (*db.Notification, error) {
	notification := db.Notification{
		UserID:           input.UserID,
		Type:             input.Type,
		Title:            input.Title,
		Content:          input.Content,
		RedirectURL:      input.RedirectURL,
		RelatedNovelID:   input.RelatedNovelID,
		RelatedCommentID: input.RelatedCommentID,
		RelatedReviewID:  input.RelatedReviewID,
	}
	if notification.RedirectURL == "" {
		notification.RedirectURL = s.attachLink(&notification)
	}

	if err := s.db.Create(&notification).Error; err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.Deliver(notification.UserID, NotificationEvent(&notification))
	}
	return &notification, nil
}

// attachLink 解析通知的深链。目前只有小说有规范详情页，新的关联类型
// 只需要在这里追加分支。
func (s *NotificationService) attachLink(n *db.Notification) string {
	if n.RelatedNovelID != nil {
		var novel db.Novel
		if err := s.db.Select("slug").First(&novel, *n.RelatedNovelID).Error; err == nil {
			return fmt.Sprintf("/novels/%s/", novel.Slug)
		}
	}
	return "#"
}

// NotificationEvent 将通知行编码为 SSE 事件。
func NotificationEvent(n *db.Notification) sse.Event {
	data := map[string]interface{}{
		"id":                n.ID,
		"title":             n.Title,
		"content":           n.Content,
		"notification_type": string(n.Type),
		"is_read":           n.IsRead,
		"created_at":        n.CreatedAt.Format(time.RFC3339),
	}
	if n.RedirectURL != "" {
		data["redirect_url"] = n.RedirectURL
	}
	return sse.Event{Type: "notification", Data: data}
}

// ListFor 返回用户的通知，按创建时间倒序分页。
func (s *NotificationService) ListFor(userID uint, limit, offset int) ([]db.Notification, error) {
	var notifications []db.Notification
	err := s.db.
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).Offset(offset).
		Find(&notifications).Error
	return notifications, err
}

// CountFor 返回用户的通知总数。
func (s *NotificationService) CountFor(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&db.Notification{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// UnreadCount 返回用户未读通知数。
func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&db.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead 将通知标记为已读。非本人的通知一律按不存在处理。
func (s *NotificationService) MarkRead(notificationID, userID uint) error {
	result := s.db.Model(&db.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// 下面是领域事件到接收人集合的扇出策略。接收人由调用方的场景决定，
// 服务本身不与审核/互动流程耦合。

// NotifyAdminsNovelSubmitted 在小说送审时通知全体站点管理员。
func (s *NotificationService) NotifyAdminsNovelSubmitted(novel *db.Novel) error {
	admins, err := s.adminIDs()
	if err != nil {
		return err
	}
	for _, adminID := range admins {
		if _, err := s.Notify(NotifyInput{
			UserID:         adminID,
			Title:          "New novel pending review",
			Content:        fmt.Sprintf("%q has been submitted for review.", novel.Name),
			Type:           db.NotificationSystem,
			RelatedNovelID: &novel.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// NotifyNovelModerated 在审核通过或驳回时通知小说作者。
func (s *NotificationService) NotifyNovelModerated(novel *db.Novel, approved bool, reason string) error {
	if novel.CreatedByID == nil {
		return nil
	}
	title := fmt.Sprintf("%q has been approved", novel.Name)
	content := "Your novel is now visible to readers."
	if !approved {
		title = fmt.Sprintf("%q has been rejected", novel.Name)
		content = reason
	}
	_, err := s.Notify(NotifyInput{
		UserID:         *novel.CreatedByID,
		Title:          title,
		Content:        content,
		Type:           db.NotificationSystem,
		RelatedNovelID: &novel.ID,
	})
	return err
}

// NotifyAdminsReportFiled 在新举报产生时通知全体站点管理员。
func (s *NotificationService) NotifyAdminsReportFiled(report *db.Report) error {
	admins, err := s.adminIDs()
	if err != nil {
		return err
	}
	for _, adminID := range admins {
		if _, err := s.Notify(NotifyInput{
			UserID:           adminID,
			Title:            "New report filed",
			Content:          fmt.Sprintf("A %s report is waiting for review.", report.Reason),
			Type:             db.NotificationReport,
			RelatedCommentID: report.CommentID,
			RelatedReviewID:  report.ReviewID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// NotifyReportResolved 在举报被处理后通知举报人。
func (s *NotificationService) NotifyReportResolved(report *db.Report) error {
	_, err := s.Notify(NotifyInput{
		UserID:           report.UserID,
		Title:            "Your report has been resolved",
		Content:          report.Description,
		Type:             db.NotificationReport,
		RelatedCommentID: report.CommentID,
		RelatedReviewID:  report.ReviewID,
	})
	return err
}

// NotifyReplyPosted 在楼中楼回复产生时通知父评论作者。自己回复自己不通知。
func (s *NotificationService) NotifyReplyPosted(parent *db.Comment, reply *db.Comment) error {
	if parent.UserID == reply.UserID {
		return nil
	}
	_, err := s.Notify(NotifyInput{
		UserID:           parent.UserID,
		Title:            "New reply to your comment",
		Content:          reply.Content,
		Type:             db.NotificationReply,
		RelatedCommentID: &reply.ID,
		RelatedNovelID:   &reply.NovelID,
	})
	return err
}

func (s *NotificationService) adminIDs() ([]uint, error) {
	var ids []uint
	err := s.db.Model(&db.User{}).
		Where("role IN ?", []db.UserRole{db.RoleWebsiteAdmin, db.RoleSystemAdmin}).
		Pluck("id", &ids).Error
	return ids, err
}
