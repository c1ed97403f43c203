package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"citypages_202510/internal/model"
)

// ==================== 仓储接口 ====================

// AICallLogRepository AI调用日志仓储接口
type AICallLogRepository interface {
	Create(ctx context.Context, log *model.AICallLog) error
	GetByID(ctx context.Context, id int64) (*model.AICallLog, error)

	// 统计查询
	GetUsage(ctx context.Context, startTime, endTime time.Time) (*AIUsageStats, error)
	GetUsageByPage(ctx context.Context, pageID int64) (*AIUsageStats, error)
	GetDailyUsage(ctx context.Context, startDate, endDate time.Time) ([]DailyUsageStats, error)
}

// ==================== 统计结构 ====================

// AIUsageStats AI用量统计
type AIUsageStats struct {
	TotalCalls        int64   `json:"total_calls"`
	ContentCalls      int64   `json:"content_calls"`
	ReviewCalls       int64   `json:"review_calls"`
	SectionCalls      int64   `json:"section_calls"`
	TotalInputTokens  int64   `json:"total_input_tokens"`
	TotalOutputTokens int64   `json:"total_output_tokens"`
	AvgDurationMs     float64 `json:"avg_duration_ms"`
	SuccessCount      int64   `json:"success_count"`
	FailedCount       int64   `json:"failed_count"`
}

// DailyUsageStats 每日用量统计
type DailyUsageStats struct {
	Date              string `json:"date"`
	TotalCalls        int64  `json:"total_calls"`
	FailedCalls       int64  `json:"failed_calls"`
	TotalInputTokens  int64  `json:"total_input_tokens"`
	TotalOutputTokens int64  `json:"total_output_tokens"`
}

const usageSelect = `
	COUNT(*) as total_calls,
	COALESCE(SUM(CASE WHEN call_type = 'content' THEN 1 ELSE 0 END), 0) as content_calls,
	COALESCE(SUM(CASE WHEN call_type = 'reviews' THEN 1 ELSE 0 END), 0) as review_calls,
	COALESCE(SUM(CASE WHEN call_type = 'section' THEN 1 ELSE 0 END), 0) as section_calls,
	COALESCE(SUM(input_tokens), 0) as total_input_tokens,
	COALESCE(SUM(output_tokens), 0) as total_output_tokens,
	COALESCE(AVG(duration_ms), 0) as avg_duration_ms,
	COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0) as success_count,
	COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) as failed_count
`

// ==================== 仓储实现 ====================

type aiCallLogRepo struct {
	db *gorm.DB
}

// NewAICallLogRepository 创建AI调用日志仓储
func NewAICallLogRepository(db *gorm.DB) AICallLogRepository {
	return &aiCallLogRepo{db: db}
}

func (r *aiCallLogRepo) Create(ctx context.Context, log *model.AICallLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *aiCallLogRepo) GetByID(ctx context.Context, id int64) (*model.AICallLog, error) {
	var log model.AICallLog
	if err := r.db.WithContext(ctx).First(&log, id).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *aiCallLogRepo) GetUsage(ctx context.Context, startTime, endTime time.Time) (*AIUsageStats, error) {
	var stats AIUsageStats

	query := r.db.WithContext(ctx).Model(&model.AICallLog{})
	if !startTime.IsZero() {
		query = query.Where("created_at >= ?", startTime)
	}
	if !endTime.IsZero() {
		query = query.Where("created_at <= ?", endTime)
	}

	err := query.Select(usageSelect).Scan(&stats).Error
	return &stats, err
}

func (r *aiCallLogRepo) GetUsageByPage(ctx context.Context, pageID int64) (*AIUsageStats, error) {
	var stats AIUsageStats

	err := r.db.WithContext(ctx).Model(&model.AICallLog{}).
		Where("page_id = ?", pageID).
		Select(usageSelect).
		Scan(&stats).Error

	return &stats, err
}

func (r *aiCallLogRepo) GetDailyUsage(ctx context.Context, startDate, endDate time.Time) ([]DailyUsageStats, error) {
	var stats []DailyUsageStats

	err := r.db.WithContext(ctx).Model(&model.AICallLog{}).
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Select(`
			DATE(created_at) as date,
			COUNT(*) as total_calls,
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) as failed_calls,
			COALESCE(SUM(input_tokens), 0) as total_input_tokens,
			COALESCE(SUM(output_tokens), 0) as total_output_tokens
		`).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&stats).Error

	return stats, err
}
