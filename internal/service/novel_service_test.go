package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/docwn/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupNovelServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:novel-service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return gdb
}

func TestCreateNovelAppliesDefaults(t *testing.T) {
	gdb := setupNovelServiceTestDB(t)
	svc := NewNovelService(gdb)

	novel, err := svc.Create(NovelInput{Name: "   ", Summary: ""})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if novel.Name != "Untitled Novel" {
		t.Errorf("name = %q, want default", novel.Name)
	}
	if novel.Summary != "No summary available" {
		t.Errorf("summary = %q, want default", novel.Summary)
	}
	if novel.ApprovalStatus != db.ApprovalDraft {
		t.Errorf("status = %q, want draft", novel.ApprovalStatus)
	}
}

func TestCreateNovelSlugUniqueness(t *testing.T) {
	gdb := setupNovelServiceTestDB(t)
	svc := NewNovelService(gdb)

	first, err := svc.Create(NovelInput{Name: "Trùng Sinh"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.Create(NovelInput{Name: "Trùng Sinh"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first.Slug != "trung-sinh" {
		t.Errorf("first slug = %q, want %q", first.Slug, "trung-sinh")
	}
	if second.Slug == first.Slug {
		t.Fatalf("slugs collided: %q", first.Slug)
	}
}

func TestNovelModerationFlow(t *testing.T) {
	gdb := setupNovelServiceTestDB(t)
	svc := NewNovelService(gdb)

	novel, err := svc.Create(NovelInput{Name: "Quy Trình"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Submit(novel.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	reload := func() db.Novel {
		var n db.Novel
		if err := gdb.First(&n, novel.ID).Error; err != nil {
			t.Fatalf("reload: %v", err)
		}
		return n
	}
	if got := reload(); got.ApprovalStatus != db.ApprovalPending {
		t.Fatalf("status after submit = %q, want pending", got.ApprovalStatus)
	}

	if err := svc.Reject(novel.ID, "cần chỉnh sửa"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got := reload(); got.ApprovalStatus != db.ApprovalRejected || got.RejectedReason != "cần chỉnh sửa" {
		t.Fatalf("after reject: status=%q reason=%q", got.ApprovalStatus, got.RejectedReason)
	}

	if err := svc.Approve(novel.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := reload(); got.ApprovalStatus != db.ApprovalApproved {
		t.Fatalf("status after approve = %q, want approved", got.ApprovalStatus)
	}

	if err := svc.Approve(9999); !errors.Is(err, ErrNovelNotFound) {
		t.Fatalf("missing novel err = %v, want ErrNovelNotFound", err)
	}
}

func TestGetBySlugVisibility(t *testing.T) {
	gdb := setupNovelServiceTestDB(t)
	svc := NewNovelService(gdb)
	owner := createTestUser(t, gdb, "chu-truyen", db.RoleUser)
	stranger := createTestUser(t, gdb, "khach", db.RoleUser)

	novel, err := svc.Create(NovelInput{Name: "Bản Nháp", CreatedByID: &owner.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 草稿:陌生人和匿名都看不到,作者看得到
	if _, err := svc.GetBySlug(novel.Slug, 0); !errors.Is(err, ErrNovelNotFound) {
		t.Fatalf("anonymous err = %v, want ErrNovelNotFound", err)
	}
	if _, err := svc.GetBySlug(novel.Slug, stranger.ID); !errors.Is(err, ErrNovelNotFound) {
		t.Fatalf("stranger err = %v, want ErrNovelNotFound", err)
	}
	if _, err := svc.GetBySlug(novel.Slug, owner.ID); err != nil {
		t.Fatalf("owner view: %v", err)
	}

	// 审核通过后公开
	if err := svc.Approve(novel.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.GetBySlug(novel.Slug, 0); err != nil {
		t.Fatalf("anonymous after approve: %v", err)
	}

	// 软删除后对所有人消失
	if err := svc.SoftDelete(novel.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := svc.GetBySlug(novel.Slug, owner.ID); !errors.Is(err, ErrNovelNotFound) {
		t.Fatalf("owner after delete err = %v, want ErrNovelNotFound", err)
	}
}
