package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/docwn/internal/service"
	"github.com/docwn/internal/sse"
	"github.com/gin-gonic/gin"
)

const notificationPageSize = 10

// SSEStream 建立通知推送长连接。响应头禁用各级缓冲后把连接挂到 Hub 上,
// 之后由流循环接管,直到客户端断开或服务器关停。
func (a *API) SSEStream(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		respondError(c, http.StatusUnauthorized, "login required")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	stream := a.hub.OpenStream(userID)
	stream.Run(c.Request.Context(), c.Writer)
}

// SSEPing 向调用者的所有存活流发一个 ping 事件,并报告是否有连接在线,
// 供前端决定是否降级轮询。
func (a *API) SSEPing(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		respondError(c, http.StatusUnauthorized, "login required")
		return
	}

	hasConnection := a.hub.HasConnections(userID)
	if hasConnection {
		a.hub.Deliver(userID, sse.Event{
			Type: "ping",
			Data: map[string]interface{}{"timestamp": time.Now().Format(time.RFC3339)},
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"has_connection": hasConnection,
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// LoadMoreNotifications 分页拉取通知列表,按创建时间倒序。
func (a *API) LoadMoreNotifications(c *gin.Context) {
	userID := currentUserID(c)
	offset := parseIntQuery(c, "offset", 0)
	limit := parseIntQuery(c, "limit", notificationPageSize)
	if limit == 0 || limit > 100 {
		limit = notificationPageSize
	}

	notifications, err := a.notifications.ListFor(userID, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load notifications")
		return
	}
	total, err := a.notifications.CountFor(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load notifications")
		return
	}

	items := make([]interface{}, 0, len(notifications))
	for i := range notifications {
		items = append(items, service.NotificationEvent(&notifications[i]).Data)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"notifications": items,
		"has_more":      int64(offset+len(notifications)) < total,
	})
}

// UnreadNotificationCount 返回未读通知数,供导航栏角标轮询。
func (a *API) UnreadNotificationCount(c *gin.Context) {
	count, err := a.notifications.UnreadCount(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to count notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "unread": count})
}

// MarkNotificationRead 把单条通知标记为已读。只能操作属于自己的通知。
func (a *API) MarkNotificationRead(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.notifications.MarkRead(id, currentUserID(c)); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			respondError(c, http.StatusNotFound, "notification not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to mark notification read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}
