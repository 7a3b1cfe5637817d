package handler

import (
	"errors"
	"net/http"

	"github.com/docwn/internal/service"
	"github.com/gin-gonic/gin"
)

type saveProgressInput struct {
	ChapterID uint    `json:"chapter_id"`
	Progress  float64 `json:"progress"`
}

// SaveReadingProgress 记录当前用户在某章节内的阅读位置,越界值收敛到 [0,1]。
func (a *API) SaveReadingProgress(c *gin.Context) {
	var input saveProgressInput
	if !bindJSON(c, &input, "invalid progress payload") {
		return
	}

	userID := currentUserID(c)
	if userID == 0 {
		respondError(c, http.StatusUnauthorized, "login required")
		return
	}

	history, err := a.reading.SaveProgress(userID, input.ChapterID, input.Progress)
	if err != nil {
		if errors.Is(err, service.ErrChapterNotFound) {
			respondError(c, http.StatusNotFound, "chapter not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to save progress")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"progress": history.ReadingProgress,
	})
}
