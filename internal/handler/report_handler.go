package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/docwn/internal/db"
	"github.com/docwn/internal/service"
	"github.com/gin-gonic/gin"
)

type fileReportInput struct {
	CommentID   *uint  `json:"comment_id"`
	ReviewID    *uint  `json:"review_id"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

// FileReport 对评论或评价提交举报,并通知管理员。同一目标的重复未处理
// 举报会被拒绝。
func (a *API) FileReport(c *gin.Context) {
	var input fileReportInput
	if !bindJSON(c, &input, "invalid report payload") {
		return
	}

	report, err := a.reports.File(service.ReportInput{
		UserID:      currentUserID(c),
		CommentID:   input.CommentID,
		ReviewID:    input.ReviewID,
		Reason:      db.ReportReason(input.Reason),
		Description: input.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReportTargetInvalid):
			respondError(c, http.StatusBadRequest, "report must target exactly one of comment or review")
		case errors.Is(err, service.ErrDuplicateReport):
			respondError(c, http.StatusConflict, "you already have a pending report on this target")
		default:
			respondError(c, http.StatusInternalServerError, "failed to file report")
		}
		return
	}

	if err := a.notifications.NotifyAdminsReportFiled(report); err != nil {
		log.Printf("notification: failed to notify admins of report: %v", err)
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "id": report.ID})
}

type resolveReportInput struct {
	Description string `json:"description"`
}

// ResolveReport 管理员处理举报并通知举报人。
func (a *API) ResolveReport(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var input resolveReportInput
	if !bindJSON(c, &input, "invalid payload") {
		return
	}

	report, err := a.reports.Resolve(id, currentUserID(c), input.Description)
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			respondError(c, http.StatusNotFound, "report not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to resolve report")
		return
	}

	if err := a.notifications.NotifyReportResolved(report); err != nil {
		log.Printf("notification: failed to notify reporter: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": report.ID})
}

// ListPendingReports 管理员查看待处理举报队列。
func (a *API) ListPendingReports(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)

	reports, err := a.reports.ListPending(limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load reports")
		return
	}

	items := make([]gin.H, len(reports))
	for i, report := range reports {
		items[i] = gin.H{
			"id":          report.ID,
			"reason":      string(report.Reason),
			"description": report.Description,
			"comment_id":  report.CommentID,
			"review_id":   report.ReviewID,
			"created_at":  report.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reports": items})
}
