package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"citypages_202510/internal/api/dto"
	"citypages_202510/internal/config"
	"citypages_202510/internal/controller"
	"citypages_202510/internal/middleware"
	"citypages_202510/internal/model"
	"citypages_202510/internal/repository"
	"citypages_202510/internal/router"
	"citypages_202510/internal/service"
	"citypages_202510/internal/task"
	"citypages_202510/pkg/cache"
	"citypages_202510/pkg/database"
	"citypages_202510/pkg/llm"
	"citypages_202510/pkg/logger"
	"citypages_202510/pkg/spinner"
)

func main() {
	app := &cli.App{
		Name:  "citypages",
		Usage: "城市落地页正文生成服务",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "启动 HTTP 服务 (默认)",
				Action: serve,
			},
			{
				Name:  "spin",
				Usage: "用 Spinner 生成一个城市的正文并输出 JSON，不访问数据库和 AI",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "city", Required: true},
					&cli.StringFlag{Name: "state", Required: true},
				},
				Action: spin,
			},
			{
				Name:  "batch",
				Usage: "从 JSON 文件批量创建城市页面",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "城市列表 JSON 数组"},
					&cli.BoolFlag{Name: "ai", Usage: "优先使用 AI 生成"},
				},
				Action: batch,
			},
			{
				Name:  "upgrade",
				Usage: "执行一次 Spinner 草稿页升级",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20},
				},
				Action: upgrade,
			},
		},
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	Config   *config.Config
	Log      *logger.Logger
	DB       *gorm.DB
	Provider llm.Provider
	Repos    *Repositories
	Services *Services
}

// Repositories 仓库集合
type Repositories struct {
	CityPage   repository.CityPageRepository
	CityReview repository.CityReviewRepository
	AiCallLog  repository.AICallLogRepository
}

// Services 服务集合
type Services struct {
	AI       *service.AIContentGenerator
	Content  *service.ContentService
	CityPage *service.CityPageService
	Usage    *service.AIUsageService
}

// Close 释放外部资源
func (d *Dependencies) Close() {
	if d.Provider != nil {
		_ = d.Provider.Close()
	}
	if d.DB != nil {
		_ = database.Close(d.DB)
	}
	d.Log.Sync()
}

// ==================== 初始化函数 ====================

// initDependencies 初始化所有依赖
func initDependencies(ctx context.Context) (*Dependencies, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	db, err := database.InitDB(database.Options{
		Driver:  cfg.DBDriver,
		DSN:     cfg.DatabaseDSN,
		LogMode: cfg.LogMode,
	}, lg, &model.CityPage{}, &model.CityReview{}, &model.AICallLog{})
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Config:   cfg,
		Log:      lg,
		DB:       db,
		Provider: initProvider(ctx, cfg, lg),
	}

	// -------- Repo 层 --------
	deps.Repos = &Repositories{
		CityPage:   repository.NewCityPageRepository(db),
		CityReview: repository.NewCityReviewRepository(db),
		AiCallLog:  repository.NewAICallLogRepository(db),
	}

	// -------- Service 层 --------
	ai := service.NewAIContentGenerator(deps.Provider, deps.Repos.AiCallLog, lg)
	content := service.NewContentService(spinner.New(nil, lg), ai, lg, cfg.BatchDelay)
	deps.Services = &Services{
		AI:       ai,
		Content:  content,
		CityPage: service.NewCityPageService(deps.Repos.CityPage, deps.Repos.CityReview, content, lg),
		Usage:    service.NewAIUsageService(deps.Repos.AiCallLog),
	}

	return deps, nil
}

// initProvider 未配置凭据时关闭 AI 路径，只警告一次
func initProvider(ctx context.Context, cfg *config.Config, lg *logger.Logger) llm.Provider {
	provider, err := llm.New(ctx, llm.Config{
		Provider: cfg.AIProvider,
		APIKey:   cfg.APIKey(),
		BaseURL:  cfg.OpenAIBaseURL,
		ProxyURL: cfg.AIProxyURL,
		Model:    cfg.AIModel,
		Timeout:  cfg.AITimeout,
	})
	switch {
	case errors.Is(err, llm.ErrNoCredential):
		lg.Warn("ai api key not configured, using spinner content only", "provider", cfg.AIProvider)
		return nil
	case err != nil:
		lg.Warn("ai provider init failed, using spinner content only", "provider", cfg.AIProvider, "error", err)
		return nil
	}

	lg.Info("ai provider ready", "provider", provider.Name(), "model", provider.Model())
	return provider
}

// initCooldown REDIS_ADDR 为空或不可用时使用进程内存
func initCooldown(ctx context.Context, cfg *config.Config, lg *logger.Logger) (cache.Cooldown, *redis.Client) {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryCooldown(), nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rdb, err := cache.NewRedisClient(pingCtx, cfg.RedisAddr)
	if err != nil {
		lg.Warn("redis unavailable, falling back to in-memory cooldown", "addr", cfg.RedisAddr, "error", err)
		return cache.NewMemoryCooldown(), nil
	}
	lg.Info("redis cooldown ready", "addr", cfg.RedisAddr)
	return cache.NewRedisCooldown(rdb, ""), rdb
}

// initRouter 初始化路由
func initRouter(deps *Dependencies, cooldown cache.Cooldown) *gin.Engine {
	if deps.Config.LogMode != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(deps.Log))

	router.InitRoutes(r,
		controller.NewCityPageController(deps.Services.CityPage),
		controller.NewContentController(deps.Services.CityPage, deps.Services.Usage, deps.Services.Content),
		middleware.RegenerateCooldown(cooldown, deps.Config.RegenerateCooldown, deps.Log),
	)
	return r
}

// initTasks 启动定时任务
func initTasks(deps *Dependencies) *task.UpgradeTask {
	if !deps.Config.UpgradeEnabled {
		return nil
	}
	if !deps.Services.Content.AIAvailable() {
		deps.Log.Warn("upgrade task enabled but ai is unavailable, not started")
		return nil
	}

	upgradeTask := task.NewUpgradeTask(deps.Services.CityPage, task.UpgradeTaskConfig{
		Spec:  deps.Config.UpgradeCron,
		Limit: deps.Config.UpgradeLimit,
	}, deps.Log)
	if err := upgradeTask.Start(); err != nil {
		deps.Log.Error("upgrade task start failed", "error", err)
		return nil
	}
	return upgradeTask
}

// ==================== 命令 ====================

// serve 启动服务
func serve(c *cli.Context) error {
	deps, err := initDependencies(c.Context)
	if err != nil {
		return err
	}
	defer deps.Close()

	cooldown, rdb := initCooldown(c.Context, deps.Config, deps.Log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	if upgradeTask := initTasks(deps); upgradeTask != nil {
		defer upgradeTask.Stop()
	}

	return startServer(initRouter(deps, cooldown), deps.Config.ServerPort, deps.Log)
}

func spin(c *cli.Context) error {
	content := spinner.New(nil, nil).Spin(c.String("city"), c.String("state"))

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(content)
}

func batch(c *cli.Context) error {
	raw, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("读取文件失败: %w", err)
	}
	var reqs []dto.CreateCityPageRequest
	if err := json.Unmarshal(raw, &reqs); err != nil {
		return fmt.Errorf("解析城市列表失败: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initDependencies(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	items := deps.Services.CityPage.CreateBatch(ctx, reqs, c.Bool("ai"))

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CITY\tSTATE\tID\tSOURCE\tSCORE\tERROR")
	counts := map[string]int{}
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\n",
			item.City, item.State, item.ID, item.ContentSource, item.UniquenessScore, item.Error)
		if item.Error != "" {
			counts["failed"]++
		} else {
			counts[item.ContentSource]++
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "\ntotal=%d ai=%d spinner=%d failed=%d\n",
		len(items), counts[service.SourceAI], counts[service.SourceSpinner], counts["failed"])
	return nil
}

func upgrade(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initDependencies(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	summary, err := task.NewUpgradeTask(deps.Services.CityPage, task.UpgradeTaskConfig{
		Limit: c.Int("limit"),
	}, deps.Log).RunOnce(ctx)
	if err != nil {
		return err
	}
	if summary == nil {
		return nil
	}

	fmt.Fprintf(c.App.Writer, "scanned=%d upgraded=%d\n", summary.Scanned, summary.Upgraded)
	return nil
}

// ==================== 服务启动 ====================

// startServer 启动服务，收到退出信号后优雅关闭
func startServer(r *gin.Engine, port string, lg *logger.Logger) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 异步启动服务
	errCh := make(chan error, 1)
	go func() {
		lg.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("服务启动失败: %w", err)
	case <-quit:
	}

	lg.Info("shutting down server")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("服务强制关闭: %w", err)
	}

	lg.Info("server exited")
	return nil
}
