package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docwn/internal/config"
	"github.com/docwn/internal/db"
	"github.com/docwn/internal/handler"
	"github.com/docwn/internal/router"
	"github.com/docwn/internal/sse"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env 存在时加载,缺失不算错误
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: %v", err)
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	if cfg.AdminUserName != "" && cfg.AdminPassword != "" {
		if err := db.EnsureAdmin(cfg.AdminUserName, cfg.AdminPassword); err != nil {
			log.Fatalf("failed to ensure admin user: %v", err)
		}
	}

	hub := sse.NewHub()
	api := handler.NewAPI(db.DB, hub)
	r := router.SetupRouter(api, cfg.SessionSecret)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	go func() {
		log.Printf("listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to run server: %v", err)
		}
	}()

	// SIGINT/SIGTERM 触发优雅退出:先关停推送枢纽唤醒所有长连接,
	// 再等待在途请求完成
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("server stopped")
}
