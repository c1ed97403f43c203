package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"citypages_202510/internal/model"
	"citypages_202510/internal/repository"
	"citypages_202510/pkg/llm"
	"citypages_202510/pkg/logger"
	"citypages_202510/pkg/spinner"
)

// ==================== 错误 ====================

// ErrProviderUnavailable 未配置 AI 凭据
var ErrProviderUnavailable = errors.New("ai provider not configured")

// ProviderError AI 调用失败，由编排层兜底
type ProviderError struct {
	Op       string
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("ai %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ai %s [%s]: %v", e.Op, e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ==================== 常量 ====================

const (
	aiUniquenessScore = 95

	contentTemperature = 0.8
	contentMaxTokens   = 1500
	reviewTemperature  = 0.9
	sectionMaxTokens   = 500

	defaultReviewCount = 5
	defaultAuthor      = "Anonymous"
	defaultProjectType = "General Service"
	reviewDateLayout   = "2006-01-02"

	keywordPhrase = "architectural drafting services"
)

// SectionType 单段生成类型
type SectionType string

const (
	SectionHero     SectionType = "hero"
	SectionCityInfo SectionType = "city_info"
	SectionServices SectionType = "services"
)

// Review AI 生成的客户评价
type Review struct {
	ID          string `json:"id"`
	Author      string `json:"author"`
	Rating      int    `json:"rating"`
	Text        string `json:"text"`
	Date        string `json:"date"`
	ProjectType string `json:"projectType"`
}

// ==================== 服务 ====================

// AIContentGenerator 基于大模型的正文生成
// provider 为 nil 时 IsAvailable 恒为 false
type AIContentGenerator struct {
	provider    llm.Provider
	callLogRepo repository.AICallLogRepository
	log         *logger.Logger
	now         func() time.Time
}

// NewAIContentGenerator 创建 AI 正文生成器，provider 与 callLogRepo 均可为 nil
func NewAIContentGenerator(provider llm.Provider, callLogRepo repository.AICallLogRepository, log *logger.Logger) *AIContentGenerator {
	return &AIContentGenerator{
		provider:    provider,
		callLogRepo: callLogRepo,
		log:         logger.OrNop(log),
		now:         time.Now,
	}
}

// IsAvailable 构造时确定，运行期不变
func (g *AIContentGenerator) IsAvailable() bool {
	return g != nil && g.provider != nil
}

func (g *AIContentGenerator) providerName() string {
	if !g.IsAvailable() {
		return ""
	}
	return g.provider.Name()
}

// ==================== 正文生成 ====================

// Generate 生成四段正文，缺失字段使用各自的默认文案
func (g *AIContentGenerator) Generate(ctx context.Context, req ContentRequest) (spinner.GeneratedContent, error) {
	if !g.IsAvailable() {
		return spinner.GeneratedContent{}, &ProviderError{Op: "generate", Err: ErrProviderUnavailable}
	}
	if req.PageID > 0 {
		ctx = withPageID(ctx, req.PageID)
	}

	text, err := g.call(ctx, model.AICallTypeContent, llm.Request{
		System:      contentSystemPrompt,
		Prompt:      buildContentPrompt(req),
		Temperature: contentTemperature,
		MaxTokens:   contentMaxTokens,
		JSON:        true,
	})
	if err != nil {
		return spinner.GeneratedContent{}, &ProviderError{Op: "generate", Provider: g.providerName(), Err: err}
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(llm.StripCodeFence(text)), &parsed); err != nil || parsed == nil {
		return spinner.GeneratedContent{}, &ProviderError{
			Op:       "generate",
			Provider: g.providerName(),
			Err:      fmt.Errorf("reply is not a JSON object: %w", errOrInvalid(err)),
		}
	}

	city, state := req.City, req.State
	return spinner.GeneratedContent{
		HeroTitle: stringOr(parsed, "heroTitle",
			fmt.Sprintf("Professional Architectural Drafting Services in %s, %s", city, state)),
		HeroDescription: stringOr(parsed, "heroDescription",
			fmt.Sprintf("Expert CAD and drafting support for architects, builders, and homeowners in %s.", city)),
		CityInfo: stringOr(parsed, "cityInfo",
			fmt.Sprintf("%s, %s is a thriving community with diverse architectural needs.", city, state)),
		ServicesContent: stringOr(parsed, "servicesContent",
			fmt.Sprintf("Our architectural drafting services in %s include residential floor plans, commercial building designs, and construction documentation.", city)),
		UniquenessScore: aiUniquenessScore,
	}, nil
}

// ==================== 评价生成 ====================

// GenerateReviews 生成客户评价，count<=0 时取 5
// 每条评价缺失的字段填默认值，不丢弃
func (g *AIContentGenerator) GenerateReviews(ctx context.Context, city, state string, count int) ([]Review, error) {
	if !g.IsAvailable() {
		return nil, &ProviderError{Op: "reviews", Err: ErrProviderUnavailable}
	}
	if count <= 0 {
		count = defaultReviewCount
	}

	text, err := g.call(ctx, model.AICallTypeReviews, llm.Request{
		System:      reviewSystemPrompt,
		Prompt:      buildReviewPrompt(city, state, count),
		Temperature: reviewTemperature,
		MaxTokens:   contentMaxTokens,
		JSON:        true,
	})
	if err != nil {
		return nil, &ProviderError{Op: "reviews", Provider: g.providerName(), Err: err}
	}

	entries, err := parseReviewEntries(text)
	if err != nil {
		return nil, &ProviderError{Op: "reviews", Provider: g.providerName(), Err: err}
	}

	today := g.now().Format(reviewDateLayout)
	reviews := make([]Review, 0, len(entries))
	for _, raw := range entries {
		entry, _ := raw.(map[string]interface{})
		reviews = append(reviews, Review{
			ID:          "review_" + uuid.NewString(),
			Author:      stringOr(entry, "author", defaultAuthor),
			Rating:      ClampRating(numberOf(entry, "rating")),
			Text:        stringOr(entry, "text", ""),
			Date:        stringOr(entry, "date", today),
			ProjectType: stringOr(entry, "projectType", defaultProjectType),
		})
	}
	return reviews, nil
}

// ClampRating 0 或缺失视为 5，四舍五入后限制在 [1,5]
func ClampRating(rating float64) int {
	if rating == 0 || math.IsNaN(rating) {
		return 5
	}
	r := math.Round(rating)
	if r < 1 {
		return 1
	}
	if r > 5 {
		return 5
	}
	return int(r)
}

// 兼容两种返回：顶层数组，或 {"reviews": [...]}
func parseReviewEntries(text string) ([]interface{}, error) {
	var parsed interface{}
	if err := json.Unmarshal([]byte(llm.StripCodeFence(text)), &parsed); err != nil {
		return nil, fmt.Errorf("reply is not valid JSON: %w", err)
	}

	switch v := parsed.(type) {
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		if list, ok := v["reviews"].([]interface{}); ok {
			return list, nil
		}
		return nil, nil
	default:
		return nil, errors.New("reply is neither a JSON array nor an object")
	}
}

// ==================== 单段生成 ====================

// GenerateSection 生成单段自由文本
func (g *AIContentGenerator) GenerateSection(ctx context.Context, city, state string, section SectionType) (string, error) {
	if !g.IsAvailable() {
		return "", &ProviderError{Op: "section", Err: ErrProviderUnavailable}
	}

	prompt, err := buildSectionPrompt(city, state, section)
	if err != nil {
		return "", err
	}

	text, err := g.call(ctx, model.AICallTypeSection, llm.Request{
		System:      sectionSystemPrompt,
		Prompt:      prompt,
		Temperature: contentTemperature,
		MaxTokens:   sectionMaxTokens,
	})
	if err != nil {
		return "", &ProviderError{Op: "section", Provider: g.providerName(), Err: err}
	}
	return strings.TrimSpace(text), nil
}

// ==================== 调用与日志 ====================

func (g *AIContentGenerator) call(ctx context.Context, callType string, req llm.Request) (string, error) {
	start := time.Now()
	resp, err := g.provider.Generate(ctx, req)
	if err == nil && (resp == nil || strings.TrimSpace(resp.Text) == "") {
		err = errors.New("empty reply")
	}
	g.recordCall(ctx, callType, start, resp, err)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (g *AIContentGenerator) recordCall(ctx context.Context, callType string, start time.Time, resp *llm.Response, callErr error) {
	if g.callLogRepo == nil {
		return
	}

	entry := &model.AICallLog{
		PageID:     pageIDFrom(ctx),
		CallType:   callType,
		Provider:   g.provider.Name(),
		ModelName:  g.provider.Model(),
		DurationMs: time.Since(start).Milliseconds(),
		Status:     model.AICallStatusSuccess,
	}
	if resp != nil {
		entry.InputTokens = resp.InputTokens
		entry.OutputTokens = resp.OutputTokens
	}
	if callErr != nil {
		entry.Status = model.AICallStatusFailed
		entry.ErrorMsg = truncateRunes(callErr.Error(), 1024)
	}

	// 日志写入与调用方的取消无关
	if err := g.callLogRepo.Create(context.WithoutCancel(ctx), entry); err != nil {
		g.log.Warn("ai call log write failed", "call_type", callType, "error", err)
	}
}

type pageIDKey struct{}

// withPageID 为 AI 调用日志关联页面
func withPageID(ctx context.Context, pageID int64) context.Context {
	return context.WithValue(ctx, pageIDKey{}, pageID)
}

func pageIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(pageIDKey{}).(int64)
	return id
}

// ==================== Prompt ====================

const contentSystemPrompt = `You write local SEO copy for an architectural drafting business. ` +
	`The primary keyword is the full phrase "` + keywordPhrase + `". ` +
	`Write natural, location-specific copy and reply with a single JSON object.`

const reviewSystemPrompt = `You write realistic customer reviews for an architectural drafting business. Reply with JSON only.`

const sectionSystemPrompt = `You write local SEO copy for an architectural drafting business. ` +
	`The primary keyword is "` + keywordPhrase + `".`

func buildContentPrompt(req ContentRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write copy for a landing page about %s in %s, %s.\n", keywordPhrase, req.City, req.State)
	fmt.Fprintf(&sb, "Use the exact phrase %q verbatim throughout.\n", keywordPhrase)
	sb.WriteString(buildContextInfo(req.Context))
	sb.WriteString("\nReturn a JSON object with exactly these fields:\n")
	fmt.Fprintf(&sb, "- heroTitle: 50-70 characters, mentions %s and the keyword phrase\n", req.City)
	sb.WriteString("- heroDescription: 120-160 characters\n")
	fmt.Fprintf(&sb, "- cityInfo: 150-200 words on building trends and architecture in %s, keyword at least twice\n", req.City)
	sb.WriteString("- servicesContent: 150-200 words covering residential plans, commercial drafting, permit-ready plans and 3D modeling, keyword at least three times\n")
	return sb.String()
}

// buildContextInfo 可选的城市上下文，人口按千分位格式化
func buildContextInfo(c *CityContext) string {
	if c == nil {
		return ""
	}

	var parts []string
	if c.Population > 0 {
		p := message.NewPrinter(language.English)
		parts = append(parts, p.Sprintf("Population: %d", c.Population))
	}
	if len(c.Neighborhoods) > 0 {
		parts = append(parts, "Notable neighborhoods: "+strings.Join(c.Neighborhoods, ", "))
	}
	if len(c.Landmarks) > 0 {
		parts = append(parts, "Local landmarks: "+strings.Join(c.Landmarks, ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return "\nAdditional context:\n" + strings.Join(parts, "\n") + "\n"
}

func buildReviewPrompt(city, state string, count int) string {
	return fmt.Sprintf(`Generate %d varied customer reviews for an architectural drafting company in %s, %s.
Mostly 4-5 stars, realistic first names with last initial, dates within the last 6 months, 50-100 words each.
Return {"reviews": [{"author": "...", "rating": 5, "text": "...", "date": "YYYY-MM-DD", "projectType": "..."}]}`,
		count, city, state)
}

func buildSectionPrompt(city, state string, section SectionType) (string, error) {
	switch section {
	case SectionHero:
		return fmt.Sprintf("Write a 2-3 sentence hero description for a page about %s in %s, %s. Focus on local expertise.",
			keywordPhrase, city, state), nil
	case SectionCityInfo:
		return fmt.Sprintf("Write a 150-200 word paragraph about building trends in %s, %s and why %s help there. Use the phrase at least twice.",
			city, state, keywordPhrase), nil
	case SectionServices:
		return fmt.Sprintf("Write a 150-200 word paragraph describing %s available in %s, %s: residential plans, commercial drafting, permit-ready plans, 3D modeling. Use the phrase at least three times.",
			keywordPhrase, city, state), nil
	default:
		return "", fmt.Errorf("unknown section %q", section)
	}
}

// ==================== 工具函数 ====================

func stringOr(m map[string]interface{}, key, fallback string) string {
	if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

func numberOf(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f
		}
	}
	return 0
}

func errOrInvalid(err error) error {
	if err != nil {
		return err
	}
	return errors.New("null")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
