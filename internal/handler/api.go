package handler

import (
	"github.com/docwn/internal/service"
	"github.com/docwn/internal/sse"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db            *gorm.DB
	hub           *sse.Hub
	novels        *service.NovelService
	chapters      *service.ChapterService
	chunks        *service.ChunkService
	notifications *service.NotificationService
	reports       *service.ReportService
	reading       *service.ReadingService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, hub *sse.Hub) *API {
	return &API{
		db:            gdb,
		hub:           hub,
		novels:        service.NewNovelService(gdb),
		chapters:      service.NewChapterService(gdb),
		chunks:        service.NewChunkService(gdb),
		notifications: service.NewNotificationService(gdb, hub),
		reports:       service.NewReportService(gdb),
		reading:       service.NewReadingService(gdb),
	}
}
