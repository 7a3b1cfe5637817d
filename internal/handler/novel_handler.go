package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/docwn/internal/service"
	"github.com/gin-gonic/gin"
)

type createNovelInput struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// CreateNovel 新建小说草稿,归属当前用户。
func (a *API) CreateNovel(c *gin.Context) {
	userID := currentUserID(c)

	var input createNovelInput
	if !bindJSON(c, &input, "invalid novel payload") {
		return
	}

	novel, err := a.novels.Create(service.NovelInput{
		Name:        input.Name,
		Summary:     input.Summary,
		CreatedByID: &userID,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to create novel")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"id":      novel.ID,
		"name":    novel.Name,
		"slug":    novel.Slug,
	})
}

// ShowNovel 返回小说详情与章节目录。公共可见性过滤,作者可见自己的草稿。
func (a *API) ShowNovel(c *gin.Context) {
	userID := currentUserID(c)

	novel, err := a.novels.GetBySlug(c.Param("novel_slug"), userID)
	if err != nil {
		if errors.Is(err, service.ErrNovelNotFound) {
			respondError(c, http.StatusNotFound, "novel not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load novel")
		return
	}

	ownerView := a.novels.IsOwnedBy(novel, userID)
	chapters, err := a.chapters.ListForNovel(novel.ID, ownerView)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load chapters")
		return
	}

	toc := make([]gin.H, len(chapters))
	for i, chapter := range chapters {
		toc[i] = gin.H{
			"title":    chapter.Title,
			"slug":     chapter.Slug,
			"volume":   chapter.Volume.Name,
			"position": chapter.Position,
		}
	}

	payload := gin.H{
		"name":            novel.Name,
		"slug":            novel.Slug,
		"summary":         novel.Summary,
		"progress_status": string(novel.ProgressStatus),
		"word_count":      novel.WordCount,
		"view_count":      novel.ViewCount,
		"chapters":        toc,
	}
	if ownerView {
		payload["approval_status"] = string(novel.ApprovalStatus)
		payload["rejected_reason"] = novel.RejectedReason
	}
	c.JSON(http.StatusOK, payload)
}

// SubmitNovel 作者把草稿提交审核,并通知管理员。
func (a *API) SubmitNovel(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	novel, err := a.novels.Get(id)
	if err != nil {
		respondError(c, http.StatusNotFound, "novel not found")
		return
	}
	if !a.novels.IsOwnedBy(novel, currentUserID(c)) {
		respondError(c, http.StatusNotFound, "novel not found")
		return
	}

	if err := a.novels.Submit(novel.ID); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to submit novel")
		return
	}
	if err := a.notifications.NotifyAdminsNovelSubmitted(novel); err != nil {
		log.Printf("notification: failed to notify admins of submission: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": novel.ID})
}

// ApproveNovel 管理员通过小说审核并通知作者。
func (a *API) ApproveNovel(c *gin.Context) {
	a.moderateNovel(c, true)
}

// RejectNovel 管理员驳回小说,理由存档并通知作者。
func (a *API) RejectNovel(c *gin.Context) {
	a.moderateNovel(c, false)
}

func (a *API) moderateNovel(c *gin.Context, approve bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	novel, err := a.novels.Get(id)
	if err != nil {
		respondError(c, http.StatusNotFound, "novel not found")
		return
	}

	var reason string
	if approve {
		err = a.novels.Approve(novel.ID)
	} else {
		var input rejectInput
		if !bindJSON(c, &input, "invalid payload") {
			return
		}
		reason = input.Reason
		err = a.novels.Reject(novel.ID, reason)
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to update novel")
		return
	}

	if err := a.notifications.NotifyNovelModerated(novel, approve, reason); err != nil {
		log.Printf("notification: failed to notify novel moderation: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": novel.ID})
}

// DeleteNovel 作者软删除自己的小说。
func (a *API) DeleteNovel(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	novel, err := a.novels.Get(id)
	if err != nil {
		respondError(c, http.StatusNotFound, "novel not found")
		return
	}
	if !a.novels.IsOwnedBy(novel, currentUserID(c)) {
		respondError(c, http.StatusNotFound, "novel not found")
		return
	}

	if err := a.novels.SoftDelete(novel.ID); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to delete novel")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
