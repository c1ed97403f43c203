package service

import (
	"context"
	"fmt"
	"time"

	"citypages_202510/internal/api/dto"
	"citypages_202510/internal/repository"
)

// AIUsageReport AI 用量报表
type AIUsageReport struct {
	Since  *time.Time                   `json:"since,omitempty"`
	PageID int64                        `json:"page_id,omitempty"`
	Totals *repository.AIUsageStats     `json:"totals"`
	Daily  []repository.DailyUsageStats `json:"daily,omitempty"`
}

// AIUsageService 读取 AI 调用日志统计
type AIUsageService struct {
	repo repository.AICallLogRepository
	now  func() time.Time
}

func NewAIUsageService(repo repository.AICallLogRepository) *AIUsageService {
	return &AIUsageService{repo: repo, now: time.Now}
}

// Report days 为 0 时统计全部记录且不返回按日明细
func (s *AIUsageService) Report(ctx context.Context, req *dto.AIUsageRequest) (*AIUsageReport, error) {
	if req.PageID > 0 {
		totals, err := s.repo.GetUsageByPage(ctx, req.PageID)
		if err != nil {
			return nil, fmt.Errorf("查询页面用量失败: %w", err)
		}
		return &AIUsageReport{PageID: req.PageID, Totals: totals}, nil
	}

	if req.Days <= 0 {
		totals, err := s.repo.GetUsage(ctx, time.Time{}, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("查询用量失败: %w", err)
		}
		return &AIUsageReport{Totals: totals}, nil
	}

	end := s.now()
	start := end.AddDate(0, 0, -req.Days)

	totals, err := s.repo.GetUsage(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("查询用量失败: %w", err)
	}
	daily, err := s.repo.GetDailyUsage(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("查询每日用量失败: %w", err)
	}
	return &AIUsageReport{Since: &start, Totals: totals, Daily: daily}, nil
}
