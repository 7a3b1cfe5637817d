package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/docwn/internal/chunker"
	"github.com/docwn/internal/db"
	"github.com/docwn/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type chapterFixture struct {
	owner   *db.User
	novel   *db.Novel
	volume  *db.Volume
	chapter *db.Chapter
}

func buildChapterFixture(t *testing.T, gdb *gorm.DB, api *API, approved bool) chapterFixture {
	t.Helper()
	owner := createHandlerTestUser(t, gdb, fmt.Sprintf("tac-gia-%t", approved), "pw", db.RoleUser)

	novel, err := api.novels.Create(service.NovelInput{Name: "Truyện Thử", CreatedByID: &owner.ID})
	if err != nil {
		t.Fatalf("create novel: %v", err)
	}
	if err := api.novels.Approve(novel.ID); err != nil {
		t.Fatalf("approve novel: %v", err)
	}
	volume, err := api.chapters.CreateVolume(novel.ID, "Tập Một")
	if err != nil {
		t.Fatalf("create volume: %v", err)
	}
	chapter, err := api.chapters.Create(service.ChapterInput{VolumeID: volume.ID, Title: "Chương Một"})
	if err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	content := "<p>0123456789012345</p><p>0123456789012345</p>"
	if err := api.chunks.Rechunk(chapter, content, chunker.NewWithSize(30)); err != nil {
		t.Fatalf("rechunk: %v", err)
	}
	if approved {
		if err := api.chapters.Approve(chapter.ID); err != nil {
			t.Fatalf("approve chapter: %v", err)
		}
	}
	return chapterFixture{owner: owner, novel: novel, volume: volume, chapter: chapter}
}

func chapterPath(f chapterFixture) string {
	return fmt.Sprintf("/novels/%s/%s/", f.novel.Slug, f.chapter.Slug)
}

func TestShowChapterPublic(t *testing.T) {
	gdb, _, api := setupHandlerTest(t)
	f := buildChapterFixture(t, gdb, api, true)

	r := newTestEngine(0)
	r.GET("/novels/:novel_slug/:chapter_slug/", api.ShowChapter)

	w := doJSON(t, r, http.MethodGet, chapterPath(f), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	payload := decodeJSON(t, w)
	chunks := payload["chunks"].([]interface{})
	if len(chunks) != 2 {
		t.Fatalf("chunk count = %d, want 2", len(chunks))
	}
	if payload["next"] != nil || payload["prev"] != nil {
		t.Errorf("nav = (%v, %v), want both null for a lone chapter", payload["next"], payload["prev"])
	}

	// 公共访问累加浏览量
	var reloaded db.Chapter
	if err := gdb.First(&reloaded, f.chapter.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ViewCount != 1 {
		t.Errorf("view count = %d, want 1", reloaded.ViewCount)
	}
}

func TestShowChapterHiddenFromPublicVisibleToOwner(t *testing.T) {
	gdb, _, api := setupHandlerTest(t)
	f := buildChapterFixture(t, gdb, api, false)

	anon := newTestEngine(0)
	anon.GET("/novels/:novel_slug/:chapter_slug/", api.ShowChapter)
	if w := doJSON(t, anon, http.MethodGet, chapterPath(f), nil); w.Code != http.StatusNotFound {
		t.Fatalf("anonymous status = %d, want 404", w.Code)
	}

	asOwner := newTestEngine(f.owner.ID)
	asOwner.GET("/novels/:novel_slug/:chapter_slug/", api.ShowChapter)
	w := doJSON(t, asOwner, http.MethodGet, chapterPath(f), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("owner status = %d: %s", w.Code, w.Body.String())
	}

	// 作者访问未公开章节不计入浏览量,但会记阅读历史
	var reloaded db.Chapter
	if err := gdb.First(&reloaded, f.chapter.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ViewCount != 0 {
		t.Errorf("view count = %d, want 0 for non-public render", reloaded.ViewCount)
	}
	var histories int64
	if err := gdb.Model(&db.ReadingHistory{}).Where("user_id = ?", f.owner.ID).Count(&histories).Error; err != nil {
		t.Fatalf("count history: %v", err)
	}
	if histories != 1 {
		t.Errorf("history rows = %d, want 1", histories)
	}
}

func TestCreateChapterMarkdownFlow(t *testing.T) {
	gdb, _, api := setupHandlerTest(t)
	f := buildChapterFixture(t, gdb, api, true)

	r := newTestEngine(f.owner.ID)
	r.POST("/workspace/chapters", api.CreateChapter)

	w := doJSON(t, r, http.MethodPost, "/workspace/chapters", gin.H{
		"volume_id": f.volume.ID,
		"title":     "Chương Hai",
		"content":   "# Mở Đầu\n\nmột hai ba bốn",
		"format":    "markdown",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	payload := decodeJSON(t, w)
	if payload["word_count"].(float64) == 0 {
		t.Error("word count not derived from rendered markdown")
	}

	var chunks []db.Chunk
	chapterID := uint(payload["id"].(float64))
	if err := gdb.Where("chapter_id = ?", chapterID).Find(&chunks).Error; err != nil {
		t.Fatalf("load chunks: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("no chunks stored for markdown submission")
	}
}

func TestCreateChapterRejectsForeignVolume(t *testing.T) {
	gdb, _, api := setupHandlerTest(t)
	f := buildChapterFixture(t, gdb, api, true)
	stranger := createHandlerTestUser(t, gdb, "nguoi-ngoai", "pw", db.RoleUser)

	r := newTestEngine(stranger.ID)
	r.POST("/workspace/chapters", api.CreateChapter)

	w := doJSON(t, r, http.MethodPost, "/workspace/chapters", gin.H{
		"volume_id": f.volume.ID,
		"title":     "Chương Lậu",
		"content":   "<p>x</p>",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (ownership hidden as not-found)", w.Code)
	}
}

func TestSaveReadingProgressEndpoint(t *testing.T) {
	gdb, _, api := setupHandlerTest(t)
	f := buildChapterFixture(t, gdb, api, true)
	reader := createHandlerTestUser(t, gdb, "doc-tien-do", "pw", db.RoleUser)

	r := newTestEngine(reader.ID)
	r.POST("/interactions/ajax/reading/save_progress/", api.SaveReadingProgress)

	w := doJSON(t, r, http.MethodPost, "/interactions/ajax/reading/save_progress/", gin.H{
		"chapter_id": f.chapter.ID,
		"progress":   0.65,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	payload := decodeJSON(t, w)
	if payload["progress"].(float64) != 0.65 {
		t.Errorf("progress = %v, want 0.65", payload["progress"])
	}

	w = doJSON(t, r, http.MethodPost, "/interactions/ajax/reading/save_progress/", gin.H{
		"chapter_id": 9999,
		"progress":   0.1,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing chapter status = %d, want 404", w.Code)
	}
}

func TestFileReportEndpointDuplicate(t *testing.T) {
	gdb, _, api := setupHandlerTest(t)
	f := buildChapterFixture(t, gdb, api, true)
	reporter := createHandlerTestUser(t, gdb, "to-giac", "pw", db.RoleUser)

	comment := db.Comment{UserID: f.owner.ID, NovelID: f.novel.ID, Content: "spam spam"}
	if err := gdb.Create(&comment).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}

	r := newTestEngine(reporter.ID)
	r.POST("/interactions/ajax/reports/", api.FileReport)

	body := gin.H{"comment_id": comment.ID, "reason": "spam"}
	if w := doJSON(t, r, http.MethodPost, "/interactions/ajax/reports/", body); w.Code != http.StatusCreated {
		t.Fatalf("first report status = %d: %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, r, http.MethodPost, "/interactions/ajax/reports/", body); w.Code != http.StatusConflict {
		t.Fatalf("duplicate report status = %d, want 409", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/interactions/ajax/reports/", gin.H{"reason": "spam"}); w.Code != http.StatusBadRequest {
		t.Fatalf("targetless report status = %d, want 400", w.Code)
	}
}
