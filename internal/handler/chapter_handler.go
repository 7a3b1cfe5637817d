package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/docwn/internal/db"
	"github.com/docwn/internal/service"
	"github.com/gin-gonic/gin"
)

// ShowChapter 渲染章节阅读页数据:章节本体、分片内容、前后导航,
// 并记录登录用户的阅读历史。公共访问同时累加浏览量。
func (a *API) ShowChapter(c *gin.Context) {
	userID := currentUserID(c)
	novelSlug := c.Param("novel_slug")
	chapterSlug := c.Param("chapter_slug")

	chapter, err := a.chapters.GetForUser(novelSlug, chapterSlug, userID)
	if err != nil {
		if errors.Is(err, service.ErrChapterNotFound) {
			respondError(c, http.StatusNotFound, "chapter not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load chapter")
		return
	}

	novel := &chapter.Volume.Novel
	ownerView := userID != 0 && a.novels.IsOwnedBy(novel, userID)

	chunks, err := a.chunks.ChunksOf(chapter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load chapter content")
		return
	}

	next, err := a.chapters.Next(chapter, ownerView)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to resolve navigation")
		return
	}
	prev, err := a.chapters.Prev(chapter, ownerView)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to resolve navigation")
		return
	}

	if userID != 0 {
		if _, err := a.reading.Touch(userID, chapter); err != nil {
			log.Printf("reading: failed to record history for user %d: %v", userID, err)
		}
	}
	if chapter.IsPubliclyVisible() && novel.IsPubliclyVisible() {
		if err := a.chapters.IncrementViewCount(chapter.ID); err != nil {
			log.Printf("chapter: failed to bump view count for %d: %v", chapter.ID, err)
		}
	}

	chunkPayload := make([]gin.H, len(chunks))
	for i, chunk := range chunks {
		chunkPayload[i] = gin.H{
			"position":   chunk.Position,
			"content":    chunk.Content,
			"word_count": chunk.WordCount,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"novel": gin.H{
			"name": novel.Name,
			"slug": novel.Slug,
		},
		"chapter": gin.H{
			"title":      chapter.Title,
			"slug":       chapter.Slug,
			"position":   chapter.Position,
			"word_count": chapter.WordCount,
			"volume":     chapter.Volume.Name,
		},
		"chunks": chunkPayload,
		"next":   chapterRef(next),
		"prev":   chapterRef(prev),
	})
}

// chapterRef 把导航目标压缩成 {title, slug},没有目标时为 null。
func chapterRef(chapter *db.Chapter) interface{} {
	if chapter == nil {
		return nil
	}
	return gin.H{"title": chapter.Title, "slug": chapter.Slug}
}

type createVolumeInput struct {
	Name string `json:"name"`
}

// CreateVolume 在指定小说下新建分卷。只有作者本人可以操作。
func (a *API) CreateVolume(c *gin.Context) {
	novelID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	novel, err := a.novels.Get(novelID)
	if err != nil {
		respondError(c, http.StatusNotFound, "novel not found")
		return
	}
	if !a.novels.IsOwnedBy(novel, currentUserID(c)) {
		respondError(c, http.StatusNotFound, "novel not found")
		return
	}

	var input createVolumeInput
	if !bindJSON(c, &input, "invalid volume payload") {
		return
	}

	volume, err := a.chapters.CreateVolume(novelID, input.Name)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateVolumeName) {
			respondError(c, http.StatusConflict, "volume name already exists")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to create volume")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"id":       volume.ID,
		"name":     volume.Name,
		"position": volume.Position,
	})
}

type createChapterInput struct {
	VolumeID uint   `json:"volume_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Format   string `json:"format"` // "html"(默认) 或 "markdown"
}

// CreateChapter 新建章节并切分内容入库。Markdown 投稿先渲染为 HTML,
// 两种格式都会经过净化再交给切分器。
func (a *API) CreateChapter(c *gin.Context) {
	var input createChapterInput
	if !bindJSON(c, &input, "invalid chapter payload") {
		return
	}

	var volume db.Volume
	if err := a.db.Preload("Novel").First(&volume, input.VolumeID).Error; err != nil {
		respondError(c, http.StatusNotFound, "volume not found")
		return
	}
	if !a.novels.IsOwnedBy(&volume.Novel, currentUserID(c)) {
		respondError(c, http.StatusNotFound, "volume not found")
		return
	}

	format := input.Format
	if format == "" {
		format = service.FormatHTML
	}
	content, err := service.RenderChapterContent(input.Content, format)
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to render content")
		return
	}

	chapter, err := a.chapters.Create(service.ChapterInput{
		VolumeID: input.VolumeID,
		Title:    input.Title,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to create chapter")
		return
	}

	if err := a.chunks.Rechunk(chapter, content, nil); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to store chapter content")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"id":         chapter.ID,
		"slug":       chapter.Slug,
		"position":   chapter.Position,
		"word_count": chapter.WordCount,
	})
}

type updateChapterInput struct {
	Content string `json:"content"`
	Format  string `json:"format"`
}

// UpdateChapterContent 重写章节正文并重新切分。
func (a *API) UpdateChapterContent(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var chapter db.Chapter
	if err := a.db.Preload("Volume.Novel").First(&chapter, id).Error; err != nil {
		respondError(c, http.StatusNotFound, "chapter not found")
		return
	}
	if !a.novels.IsOwnedBy(&chapter.Volume.Novel, currentUserID(c)) {
		respondError(c, http.StatusNotFound, "chapter not found")
		return
	}

	var input updateChapterInput
	if !bindJSON(c, &input, "invalid chapter payload") {
		return
	}
	format := input.Format
	if format == "" {
		format = service.FormatHTML
	}
	content, err := service.RenderChapterContent(input.Content, format)
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to render content")
		return
	}

	if err := a.chunks.Update(&chapter, content, nil); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to store chapter content")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "word_count": chapter.WordCount})
}

// ApproveChapter 管理员通过章节审核,并通知小说作者。
func (a *API) ApproveChapter(c *gin.Context) {
	a.moderateChapter(c, true)
}

// RejectChapter 管理员驳回章节,驳回理由一并通知作者。
func (a *API) RejectChapter(c *gin.Context) {
	a.moderateChapter(c, false)
}

type rejectInput struct {
	Reason string `json:"reason"`
}

func (a *API) moderateChapter(c *gin.Context, approve bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var chapter db.Chapter
	if err := a.db.Preload("Volume.Novel").First(&chapter, id).Error; err != nil {
		respondError(c, http.StatusNotFound, "chapter not found")
		return
	}

	if approve {
		err = a.chapters.Approve(chapter.ID)
	} else {
		var input rejectInput
		if !bindJSON(c, &input, "invalid payload") {
			return
		}
		err = a.chapters.Reject(chapter.ID, input.Reason)
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to update chapter")
		return
	}

	a.notifyChapterModerated(&chapter, approve)
	c.JSON(http.StatusOK, gin.H{"success": true, "id": chapter.ID})
}

func (a *API) notifyChapterModerated(chapter *db.Chapter, approved bool) {
	novel := &chapter.Volume.Novel
	if novel.CreatedByID == nil {
		return
	}
	title := fmt.Sprintf("章节《%s》已通过审核", chapter.Title)
	content := fmt.Sprintf("你的章节《%s》(《%s》)现在对读者可见。", chapter.Title, novel.Name)
	if !approved {
		title = fmt.Sprintf("章节《%s》未通过审核", chapter.Title)
		content = fmt.Sprintf("你的章节《%s》(《%s》)被驳回。", chapter.Title, novel.Name)
	}
	_, err := a.notifications.Notify(service.NotifyInput{
		UserID:         *novel.CreatedByID,
		Title:          title,
		Content:        content,
		Type:           db.NotificationSystem,
		RelatedNovelID: &novel.ID,
	})
	if err != nil {
		log.Printf("notification: failed to notify chapter moderation: %v", err)
	}
}
