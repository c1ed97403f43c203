package repository

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"citypages_202510/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	// :memory: 库每个连接独立，固定单连接
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取连接池失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(&model.CityPage{}, &model.CityReview{}, &model.AICallLog{})
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	return db
}

func TestAICallLogRepo_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAICallLogRepository(db)
	ctx := context.Background()

	log := &model.AICallLog{
		PageID:       1,
		CallType:     model.AICallTypeContent,
		Provider:     "gemini",
		ModelName:    "gemini-2.5-flash",
		InputTokens:  500,
		OutputTokens: 200,
		DurationMs:   1500,
		Status:       model.AICallStatusSuccess,
	}

	err := repo.Create(ctx, log)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if log.ID == 0 {
		t.Error("ID 应该被自动分配")
	}
}

func TestAICallLogRepo_GetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAICallLogRepository(db)
	ctx := context.Background()

	// 创建
	log := &model.AICallLog{
		PageID:    1,
		CallType:  model.AICallTypeReviews,
		ModelName: "gpt-4o-mini",
		Status:    model.AICallStatusFailed,
		ErrorMsg:  "timeout",
	}
	if err := repo.Create(ctx, log); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// 查询
	found, err := repo.GetByID(ctx, log.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if found.CallType != model.AICallTypeReviews {
		t.Errorf("CallType = %s, want reviews", found.CallType)
	}
	if found.ErrorMsg != "timeout" {
		t.Errorf("ErrorMsg = %s, want timeout", found.ErrorMsg)
	}
}

func TestAICallLogRepo_GetUsage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAICallLogRepository(db)
	ctx := context.Background()

	logs := []*model.AICallLog{
		{PageID: 1, CallType: model.AICallTypeContent, InputTokens: 100, OutputTokens: 50, Status: model.AICallStatusSuccess},
		{PageID: 1, CallType: model.AICallTypeContent, InputTokens: 200, OutputTokens: 100, Status: model.AICallStatusSuccess},
		{PageID: 1, CallType: model.AICallTypeReviews, InputTokens: 80, Status: model.AICallStatusSuccess},
		{PageID: 2, CallType: model.AICallTypeContent, Status: model.AICallStatusFailed},
		{PageID: 0, CallType: model.AICallTypeSection, InputTokens: 20, Status: model.AICallStatusSuccess},
	}
	for _, log := range logs {
		if err := repo.Create(ctx, log); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	stats, err := repo.GetUsage(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("GetUsage() error = %v", err)
	}

	if stats.TotalCalls != 5 {
		t.Errorf("TotalCalls = %d, want 5", stats.TotalCalls)
	}
	if stats.ContentCalls != 3 {
		t.Errorf("ContentCalls = %d, want 3", stats.ContentCalls)
	}
	if stats.ReviewCalls != 1 {
		t.Errorf("ReviewCalls = %d, want 1", stats.ReviewCalls)
	}
	if stats.SectionCalls != 1 {
		t.Errorf("SectionCalls = %d, want 1", stats.SectionCalls)
	}
	if stats.TotalInputTokens != 400 {
		t.Errorf("TotalInputTokens = %d, want 400", stats.TotalInputTokens)
	}
	if stats.SuccessCount != 4 {
		t.Errorf("SuccessCount = %d, want 4", stats.SuccessCount)
	}
	if stats.FailedCount != 1 {
		t.Errorf("FailedCount = %d, want 1", stats.FailedCount)
	}
}

func TestAICallLogRepo_GetUsageByPage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAICallLogRepository(db)
	ctx := context.Background()

	logs := []*model.AICallLog{
		{PageID: 100, CallType: model.AICallTypeContent, InputTokens: 500, OutputTokens: 200, DurationMs: 1000, Status: model.AICallStatusSuccess},
		{PageID: 100, CallType: model.AICallTypeReviews, InputTokens: 300, DurationMs: 3000, Status: model.AICallStatusSuccess},
		{PageID: 200, CallType: model.AICallTypeContent, InputTokens: 100, Status: model.AICallStatusSuccess},
	}
	for _, log := range logs {
		if err := repo.Create(ctx, log); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	stats, err := repo.GetUsageByPage(ctx, 100)
	if err != nil {
		t.Fatalf("GetUsageByPage() error = %v", err)
	}

	if stats.TotalCalls != 2 {
		t.Errorf("TotalCalls = %d, want 2", stats.TotalCalls)
	}
	if stats.TotalInputTokens != 800 {
		t.Errorf("TotalInputTokens = %d, want 800", stats.TotalInputTokens)
	}
	if stats.AvgDurationMs != 2000 {
		t.Errorf("AvgDurationMs = %f, want 2000", stats.AvgDurationMs)
	}
}

func TestAICallLogRepo_GetUsage_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAICallLogRepository(db)

	stats, err := repo.GetUsage(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("GetUsage() error = %v", err)
	}
	if stats.TotalCalls != 0 || stats.FailedCount != 0 {
		t.Errorf("空表统计应为 0, got %+v", stats)
	}
}
