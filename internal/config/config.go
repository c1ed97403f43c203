package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	ServerPort string
	LogMode    string

	// 数据库
	DBDriver    string // postgres | sqlite
	DatabaseDSN string

	// AI
	AIProvider    string // gemini | openai
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	AIProxyURL    string
	AIModel       string
	AITimeout     time.Duration
	BatchDelay    time.Duration

	// 重新生成冷却，REDIS_ADDR 为空时使用进程内存
	RedisAddr          string
	RegenerateCooldown time.Duration

	// 升级任务
	UpgradeEnabled bool
	UpgradeCron    string
	UpgradeLimit   int
}

// APIKey 当前提供方对应的凭据
func (c *Config) APIKey() string {
	if strings.EqualFold(c.AIProvider, "openai") {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// Load 加载配置（.env 文件 + 环境变量）
// envFiles 为空时尝试当前目录的 .env，文件不存在不报错
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		ServerPort: v.GetString("SERVER_PORT"),
		LogMode:    v.GetString("LOG_MODE"),

		DBDriver:    strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN: v.GetString("DATABASE_DSN"),

		AIProvider:    strings.ToLower(v.GetString("AI_PROVIDER")),
		GeminiAPIKey:  v.GetString("GEMINI_API_KEY"),
		OpenAIAPIKey:  v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL: v.GetString("OPENAI_BASE_URL"),
		AIProxyURL:    v.GetString("AI_PROXY_URL"),
		AIModel:       v.GetString("AI_MODEL"),
		AITimeout:     v.GetDuration("AI_TIMEOUT"),
		BatchDelay:    v.GetDuration("BATCH_DELAY"),

		RedisAddr:          v.GetString("REDIS_ADDR"),
		RegenerateCooldown: v.GetDuration("REGENERATE_COOLDOWN"),

		UpgradeEnabled: v.GetBool("UPGRADE_ENABLED"),
		UpgradeCron:    v.GetString("UPGRADE_CRON"),
		UpgradeLimit:   v.GetInt("UPGRADE_LIMIT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_MODE", "dev")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=citypages port=5432 sslmode=disable TimeZone=UTC")

	v.SetDefault("AI_PROVIDER", "gemini")
	v.SetDefault("AI_TIMEOUT", 60*time.Second)
	v.SetDefault("BATCH_DELAY", 500*time.Millisecond)

	v.SetDefault("REGENERATE_COOLDOWN", 30*time.Second)

	v.SetDefault("UPGRADE_ENABLED", false)
	v.SetDefault("UPGRADE_CRON", "0 */30 * * * *")
	v.SetDefault("UPGRADE_LIMIT", 20)
}
