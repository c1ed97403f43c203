package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==================== 配置 ====================

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ErrNoCredential 未配置 API Key，调用方据此关闭 AI 路径
var ErrNoCredential = errors.New("llm: api key not configured")

// Config 大模型提供方配置
type Config struct {
	Provider string // gemini | openai
	APIKey   string
	BaseURL  string // 仅 openai 兼容接口使用
	ProxyURL string // 仅 openai 兼容接口使用
	Model    string
	Timeout  time.Duration
}

// ==================== 接口 ====================

// Request 单次生成请求
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
	JSON        bool // 要求以 JSON 对象返回
}

// Response 生成结果及用量
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Provider 文本生成提供方
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req Request) (*Response, error)
	Close() error
}

// New 按配置创建提供方
// APIKey 为空时返回 ErrNoCredential
func New(ctx context.Context, cfg Config) (Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoCredential
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		return NewGeminiProvider(ctx, cfg)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// StripCodeFence 去掉模型可能包裹的 markdown 代码块
func StripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	} else {
		return cleaned
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
