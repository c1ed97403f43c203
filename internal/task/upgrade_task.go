package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"citypages_202510/internal/api/dto"
	"citypages_202510/internal/service"
	"citypages_202510/pkg/logger"
)

// ==================== 接口定义 ====================

// PageUpgrader 将 Spinner 草稿页升级为 AI 正文
type PageUpgrader interface {
	UpgradeSpinnerPages(ctx context.Context, limit int) (*dto.UpgradeSummary, error)
}

// ==================== UpgradeTask 正文升级任务 ====================

// UpgradeTaskConfig 任务配置
type UpgradeTaskConfig struct {
	Spec    string        // 秒级 cron 表达式
	Limit   int           // 单次最多处理页面数
	Timeout time.Duration // 单次执行超时
}

// DefaultUpgradeTaskConfig 默认每 30 分钟执行一次
func DefaultUpgradeTaskConfig() UpgradeTaskConfig {
	return UpgradeTaskConfig{
		Spec:    "0 */30 * * * *",
		Limit:   20,
		Timeout: 10 * time.Minute,
	}
}

// UpgradeTask 定时扫描 Spinner 生成的草稿页并尝试用 AI 重新生成
type UpgradeTask struct {
	upgrader PageUpgrader
	cfg      UpgradeTaskConfig
	cron     *cron.Cron
	log      *logger.Logger

	// 上一轮未结束时跳过本轮
	running sync.Mutex
}

// NewUpgradeTask 创建升级任务，cfg 零值字段使用默认值
func NewUpgradeTask(upgrader PageUpgrader, cfg UpgradeTaskConfig, log *logger.Logger) *UpgradeTask {
	def := DefaultUpgradeTaskConfig()
	if cfg.Spec == "" {
		cfg.Spec = def.Spec
	}
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &UpgradeTask{
		upgrader: upgrader,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
		log:      logger.OrNop(log).With("task", "upgrade"),
	}
}

// Start 启动定时任务
func (t *UpgradeTask) Start() error {
	_, err := t.cron.AddFunc(t.cfg.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.cfg.Timeout)
		defer cancel()
		_, _ = t.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("无效的 cron 表达式 %q: %w", t.cfg.Spec, err)
	}

	t.cron.Start()
	t.log.Info("upgrade task started", "spec", t.cfg.Spec, "limit", t.cfg.Limit)
	return nil
}

// Stop 停止任务，等待正在执行的一轮结束
func (t *UpgradeTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.log.Info("upgrade task stopped")
}

// RunOnce 执行一次；上一轮仍在执行时直接返回 nil
func (t *UpgradeTask) RunOnce(ctx context.Context) (*dto.UpgradeSummary, error) {
	if !t.running.TryLock() {
		t.log.Debug("previous run still in progress, skipped")
		return nil, nil
	}
	defer t.running.Unlock()

	start := time.Now()
	summary, err := t.upgrader.UpgradeSpinnerPages(ctx, t.cfg.Limit)
	if err != nil {
		if errors.Is(err, service.ErrAIUnavailable) {
			t.log.Debug("ai unavailable, upgrade skipped")
			return nil, err
		}
		t.log.Error("upgrade failed", "error", err)
		return nil, err
	}

	if summary.Scanned > 0 {
		t.log.Info("upgrade finished",
			"scanned", summary.Scanned,
			"upgraded", summary.Upgraded,
			"duration_ms", time.Since(start).Milliseconds())
	}
	return summary, nil
}
