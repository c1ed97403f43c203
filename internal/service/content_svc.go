package service

import (
	"context"
	"time"

	"citypages_202510/internal/model"
	"citypages_202510/pkg/logger"
	"citypages_202510/pkg/spinner"
)

// ==================== 类型 ====================

// 正文来源
const (
	SourceAI      = model.ContentSourceAI
	SourceSpinner = model.ContentSourceSpinner
)

// DefaultBatchDelay 批量生成时相邻两次 AI 调用之间的固定间隔
const DefaultBatchDelay = 500 * time.Millisecond

// CityContext 可选的城市上下文，仅 AI 路径使用
type CityContext struct {
	Population    int64    `json:"population,omitempty"`
	Neighborhoods []string `json:"neighborhoods,omitempty"`
	Landmarks     []string `json:"landmarks,omitempty"`
}

// ContentRequest 单次生成请求
type ContentRequest struct {
	City    string       `json:"city"`
	State   string       `json:"state"`
	Context *CityContext `json:"context,omitempty"`

	// PageID 仅用于关联 AI 调用日志
	PageID int64 `json:"-"`
}

// ContentResult 生成结果及来源
type ContentResult struct {
	Content spinner.GeneratedContent `json:"content"`
	Source  string                   `json:"source"`
}

// BatchResult 批量生成中单个城市的结果
type BatchResult struct {
	City  string `json:"city"`
	State string `json:"state"`
	ContentResult
}

// AIGenerator AI 生成能力
type AIGenerator interface {
	IsAvailable() bool
	Generate(ctx context.Context, req ContentRequest) (spinner.GeneratedContent, error)
	GenerateReviews(ctx context.Context, city, state string, count int) ([]Review, error)
	GenerateSection(ctx context.Context, city, state string, section SectionType) (string, error)
}

// ==================== 服务 ====================

// ContentService 正文生成编排：优先 AI，失败回退到 Spinner
type ContentService struct {
	spinner    *spinner.Spinner
	ai         AIGenerator
	log        *logger.Logger
	batchDelay time.Duration
}

// NewContentService 创建编排服务，ai 可为 nil
// batchDelay < 0 时使用 DefaultBatchDelay
func NewContentService(spin *spinner.Spinner, ai AIGenerator, log *logger.Logger, batchDelay time.Duration) *ContentService {
	if spin == nil {
		spin = spinner.New(nil, log)
	}
	if batchDelay < 0 {
		batchDelay = DefaultBatchDelay
	}
	return &ContentService{
		spinner:    spin,
		ai:         ai,
		log:        logger.OrNop(log),
		batchDelay: batchDelay,
	}
}

// AIAvailable AI 路径是否可用
func (s *ContentService) AIAvailable() bool {
	return s.ai != nil && s.ai.IsAvailable()
}

// AI 返回 AI 生成器，未配置时为 nil
func (s *ContentService) AI() AIGenerator {
	if !s.AIAvailable() {
		return nil
	}
	return s.ai
}

// Spinner 返回兜底生成器
func (s *ContentService) Spinner() *spinner.Spinner {
	return s.spinner
}

// Generate 生成正文，不返回错误
func (s *ContentService) Generate(ctx context.Context, req ContentRequest, preferAI bool) ContentResult {
	result, _ := s.generate(ctx, req, preferAI)
	return result
}

// generate 第二个返回值表示是否尝试了 AI
func (s *ContentService) generate(ctx context.Context, req ContentRequest, preferAI bool) (ContentResult, bool) {
	if !preferAI || !s.AIAvailable() || ctx.Err() != nil {
		return s.spin(req), false
	}

	content, err := s.ai.Generate(ctx, req)
	if err != nil {
		s.log.Warn("ai generation failed, falling back to spinner",
			"city", req.City, "state", req.State, "error", err)
		return s.spin(req), true
	}
	return ContentResult{Content: content, Source: SourceAI}, true
}

func (s *ContentService) spin(req ContentRequest) ContentResult {
	return ContentResult{
		Content: s.spinner.Spin(req.City, req.State),
		Source:  SourceSpinner,
	}
}

// ==================== 批量生成 ====================

// GenerateBatch 顺序生成，结果与输入一一对应
// 上一次调用走了 AI 时先暂停 batchDelay；ctx 取消后跳过暂停，剩余城市直接使用 Spinner
func (s *ContentService) GenerateBatch(ctx context.Context, reqs []ContentRequest, preferAI bool) []BatchResult {
	results := make([]BatchResult, 0, len(reqs))
	attemptedAI := false

	for i, req := range reqs {
		if i > 0 && attemptedAI {
			s.pause(ctx)
		}

		var result ContentResult
		result, attemptedAI = s.generate(ctx, req, preferAI)
		results = append(results, BatchResult{City: req.City, State: req.State, ContentResult: result})

		s.log.Debug("batch item generated",
			"index", i, "city", req.City, "state", req.State, "source", result.Source)
	}

	return results
}

func (s *ContentService) pause(ctx context.Context) {
	if s.batchDelay <= 0 {
		return
	}
	timer := time.NewTimer(s.batchDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
