package router

import (
	"github.com/docwn/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由。
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("docwn_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	r.POST("/login", api.Login)
	r.POST("/logout", api.Logout)

	// 阅读路由:匿名可访问,作者对自己的稿件有穿透可见性
	r.GET("/novels/:novel_slug/", api.ShowNovel)
	r.GET("/novels/:novel_slug/:chapter_slug/", api.ShowChapter)

	// 推送与站内交互,全部要求登录
	interactions := r.Group("/interactions")
	interactions.Use(handler.AuthRequired())
	{
		interactions.GET("/sse/stream/", api.SSEStream)
		interactions.POST("/sse/ping/", api.SSEPing)

		ajax := interactions.Group("/ajax")
		{
			ajax.GET("/notifications/load_more/", api.LoadMoreNotifications)
			ajax.GET("/notifications/unread_count/", api.UnreadNotificationCount)
			ajax.POST("/notifications/:id/mark_read/", api.MarkNotificationRead)
			ajax.POST("/reading/save_progress/", api.SaveReadingProgress)
			ajax.POST("/reports/", api.FileReport)
		}
	}

	// 作者工作台
	workspace := r.Group("/workspace")
	workspace.Use(handler.AuthRequired())
	{
		workspace.POST("/novels", api.CreateNovel)
		workspace.POST("/novels/:id/submit", api.SubmitNovel)
		workspace.DELETE("/novels/:id", api.DeleteNovel)
		workspace.POST("/novels/:id/volumes", api.CreateVolume)
		workspace.POST("/chapters", api.CreateChapter)
		workspace.PUT("/chapters/:id/content", api.UpdateChapterContent)
	}

	// 后台审核路由
	admin := r.Group("/admin")
	admin.Use(handler.AuthRequired(), handler.AdminRequired())
	{
		admin.POST("/novels/:id/approve", api.ApproveNovel)
		admin.POST("/novels/:id/reject", api.RejectNovel)
		admin.POST("/chapters/:id/approve", api.ApproveChapter)
		admin.POST("/chapters/:id/reject", api.RejectChapter)
		admin.GET("/reports", api.ListPendingReports)
		admin.POST("/reports/:id/resolve", api.ResolveReport)
	}

	return r
}
