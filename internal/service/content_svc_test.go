package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"citypages_202510/pkg/llm"
	"citypages_202510/pkg/logger"
	"citypages_202510/pkg/spinner"
)

var batchCities = []ContentRequest{
	{City: "Austin", State: "Texas"},
	{City: "Denver", State: "Colorado"},
	{City: "Boise", State: "Idaho"},
}

// failOnCity 对 prompt 中包含指定城市的调用返回错误
func failOnCity(city string) func(context.Context, llm.Request) (*llm.Response, error) {
	return func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		if strings.Contains(req.Prompt, " in "+city+",") {
			return nil, errors.New("provider 503")
		}
		return &llm.Response{Text: `{"heroTitle":"AI","heroDescription":"AI","cityInfo":"AI","servicesContent":"AI"}`}, nil
	}
}

func sources(results []BatchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Source)
	}
	return out
}

func TestContentService_Generate_SpinnerWhenNotPreferred(t *testing.T) {
	provider := &mockProvider{}
	svc := NewContentService(nil, NewAIContentGenerator(provider, nil, nil), nil, 0)

	got := svc.Generate(context.Background(), ContentRequest{City: "Austin", State: "Texas"}, false)
	assert.Equal(t, SourceSpinner, got.Source)
	assert.Equal(t, spinner.New(nil, nil).Spin("Austin", "Texas"), got.Content)
	assert.Empty(t, provider.requests)
}

func TestContentService_Generate_AI(t *testing.T) {
	svc := NewContentService(nil, NewAIContentGenerator(&mockProvider{}, nil, nil), nil, 0)

	got := svc.Generate(context.Background(), ContentRequest{City: "Austin", State: "Texas"}, true)
	assert.Equal(t, SourceAI, got.Source)
	assert.Equal(t, "AI Title", got.Content.HeroTitle)
	assert.Equal(t, 95, got.Content.UniquenessScore)
}

func TestContentService_Generate_UnavailableIgnoresPreference(t *testing.T) {
	for _, ai := range []AIGenerator{nil, NewAIContentGenerator(nil, nil, nil), (*AIContentGenerator)(nil)} {
		svc := NewContentService(nil, ai, nil, 0)
		assert.False(t, svc.AIAvailable())
		assert.Nil(t, svc.AI())

		got := svc.Generate(context.Background(), ContentRequest{City: "Austin", State: "Texas"}, true)
		assert.Equal(t, SourceSpinner, got.Source)
		assert.Equal(t, "Expert Architectural Drafting Services for Austin Builders and Architects", got.Content.HeroTitle)
	}
}

func TestContentService_Generate_FallbackLogsWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	provider := &mockProvider{generateFn: func(context.Context, llm.Request) (*llm.Response, error) {
		return nil, errors.New("401 unauthorized")
	}}
	svc := NewContentService(nil, NewAIContentGenerator(provider, nil, nil), logger.FromZap(zap.New(core)), 0)

	got := svc.Generate(context.Background(), ContentRequest{City: "Austin", State: "Texas"}, true)
	assert.Equal(t, SourceSpinner, got.Source)
	assert.Equal(t, 92, got.Content.UniquenessScore)

	warnings := logs.FilterMessage("ai generation failed, falling back to spinner").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "Austin", warnings[0].ContextMap()["city"])
}

// ==================== 批量生成 ====================

func TestContentService_GenerateBatch_SecondFails(t *testing.T) {
	provider := &mockProvider{generateFn: failOnCity("Denver")}
	svc := NewContentService(nil, NewAIContentGenerator(provider, nil, nil), nil, 0)

	results := svc.GenerateBatch(context.Background(), batchCities, true)

	require.Len(t, results, 3)
	assert.Equal(t, []string{"ai", "spinner", "ai"}, sources(results))
	assert.Equal(t, "Denver", results[1].City)
	assert.Equal(t, spinner.New(nil, nil).Spin("Denver", "Colorado"), results[1].Content)
	assert.Len(t, provider.requests, 3)
}

func TestContentService_GenerateBatch_Unavailable(t *testing.T) {
	svc := NewContentService(nil, nil, nil, 0)

	results := svc.GenerateBatch(context.Background(), batchCities, true)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"spinner", "spinner", "spinner"}, sources(results))
}

func TestContentService_GenerateBatch_AlwaysFails(t *testing.T) {
	provider := &mockProvider{generateFn: func(context.Context, llm.Request) (*llm.Response, error) {
		return nil, errors.New("boom")
	}}
	svc := NewContentService(nil, NewAIContentGenerator(provider, nil, nil), nil, 0)

	results := svc.GenerateBatch(context.Background(), batchCities, true)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"spinner", "spinner", "spinner"}, sources(results))
}

func TestContentService_GenerateBatch_Empty(t *testing.T) {
	svc := NewContentService(nil, nil, nil, 0)
	assert.Empty(t, svc.GenerateBatch(context.Background(), nil, true))
}

func TestContentService_GenerateBatch_Delay(t *testing.T) {
	delay := 40 * time.Millisecond
	svc := NewContentService(nil, NewAIContentGenerator(&mockProvider{}, nil, nil), nil, delay)

	start := time.Now()
	results := svc.GenerateBatch(context.Background(), batchCities, true)
	elapsed := time.Since(start)

	require.Len(t, results, 3)
	assert.GreaterOrEqual(t, elapsed, 2*delay, "三次 AI 调用之间应有两次暂停")
}

func TestContentService_GenerateBatch_NoDelayForSpinner(t *testing.T) {
	svc := NewContentService(nil, NewAIContentGenerator(&mockProvider{}, nil, nil), nil, time.Hour)

	done := make(chan []BatchResult, 1)
	go func() { done <- svc.GenerateBatch(context.Background(), batchCities, false) }()

	select {
	case results := <-done:
		assert.Equal(t, []string{"spinner", "spinner", "spinner"}, sources(results))
	case <-time.After(5 * time.Second):
		t.Fatal("未尝试 AI 时不应暂停")
	}
}

func TestContentService_GenerateBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := &mockProvider{}
	provider.generateFn = func(context.Context, llm.Request) (*llm.Response, error) {
		cancel()
		return &llm.Response{Text: `{"heroTitle":"AI"}`}, nil
	}
	svc := NewContentService(nil, NewAIContentGenerator(provider, nil, nil), nil, time.Hour)

	done := make(chan []BatchResult, 1)
	go func() { done <- svc.GenerateBatch(ctx, batchCities, true) }()

	select {
	case results := <-done:
		require.Len(t, results, 3, "取消后仍返回全部结果")
		assert.Equal(t, []string{"ai", "spinner", "spinner"}, sources(results))
		assert.Len(t, provider.requests, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("取消后应跳过暂停")
	}
}

func TestNewContentService_DefaultDelay(t *testing.T) {
	svc := NewContentService(nil, nil, nil, -1)
	assert.Equal(t, DefaultBatchDelay, svc.batchDelay)
	assert.NotNil(t, svc.Spinner())
}
