package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"citypages_202510/internal/api/dto"
	"citypages_202510/internal/model"
	"citypages_202510/internal/repository"
	"citypages_202510/pkg/logger"
	"citypages_202510/pkg/spinner"
)

// ==================== 错误 ====================

var (
	ErrMissingFields = errors.New("missing required fields: city, state, state_abbr")
	ErrPageExists    = errors.New("city already exists with this name in this state")
	ErrPageNotFound  = errors.New("city page not found")
	ErrAIUnavailable = errors.New("ai content generation is not configured")
)

const (
	metaDescriptionLimit = 160
	titleSuffix          = " | Architectural Drafting"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug 小写后将非 [a-z0-9] 的连续字符替换为 "-"，去掉首尾 "-"
func GenerateSlug(city string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(city), "-")
	return strings.Trim(slug, "-")
}

// ==================== 服务 ====================

// CityPageService 城市页面管理
type CityPageService struct {
	pageRepo   repository.CityPageRepository
	reviewRepo repository.CityReviewRepository
	content    *ContentService
	log        *logger.Logger
}

// NewCityPageService 创建城市页面服务
func NewCityPageService(
	pageRepo repository.CityPageRepository,
	reviewRepo repository.CityReviewRepository,
	content *ContentService,
	log *logger.Logger,
) *CityPageService {
	return &CityPageService{
		pageRepo:   pageRepo,
		reviewRepo: reviewRepo,
		content:    content,
		log:        logger.OrNop(log),
	}
}

// ==================== 创建 ====================

// Create 校验、查重、生成正文并保存为草稿
func (s *CityPageService) Create(ctx context.Context, req *dto.CreateCityPageRequest) (*dto.CityPageResult, error) {
	page, err := s.newPage(ctx, req)
	if err != nil {
		return nil, err
	}

	result := s.content.Generate(ctx, contentRequestFor(page), dto.BoolOr(req.UseAI, true))
	return s.save(ctx, page, result)
}

// CreateBatch 批量创建，顺序生成并在 AI 调用之间暂停
// 单条失败不影响其他城市，结果与输入一一对应
func (s *CityPageService) CreateBatch(ctx context.Context, reqs []dto.CreateCityPageRequest, preferAI bool) []dto.BatchCreateItem {
	items := make([]dto.BatchCreateItem, len(reqs))
	pages := make([]*model.CityPage, 0, len(reqs))
	index := make([]int, 0, len(reqs))
	seen := make(map[string]bool, len(reqs))

	for i := range reqs {
		items[i] = dto.BatchCreateItem{City: reqs[i].City, State: reqs[i].State}

		page, err := s.newPage(ctx, &reqs[i])
		if err == nil && seen[page.URLSlug+"|"+page.StateAbbr] {
			err = ErrPageExists
		}
		if err != nil {
			items[i].Error = err.Error()
			continue
		}
		seen[page.URLSlug+"|"+page.StateAbbr] = true
		pages = append(pages, page)
		index = append(index, i)
	}

	creqs := make([]ContentRequest, 0, len(pages))
	for _, page := range pages {
		creqs = append(creqs, contentRequestFor(page))
	}

	for j, result := range s.content.GenerateBatch(ctx, creqs, preferAI) {
		item := &items[index[j]]
		saved, err := s.save(ctx, pages[j], result.ContentResult)
		if err != nil {
			item.Error = err.Error()
			continue
		}
		item.ID = saved.Page.ID
		item.ContentSource = saved.ContentSource
		item.UniquenessScore = saved.UniquenessScore
	}
	return items
}

// newPage 校验并查重，返回尚未生成正文的页面
func (s *CityPageService) newPage(ctx context.Context, req *dto.CreateCityPageRequest) (*model.CityPage, error) {
	city := strings.TrimSpace(req.City)
	state := strings.TrimSpace(req.State)
	stateAbbr := strings.ToUpper(strings.TrimSpace(req.StateAbbr))
	if city == "" || state == "" || stateAbbr == "" {
		return nil, ErrMissingFields
	}

	slug := GenerateSlug(city)
	if slug == "" {
		return nil, fmt.Errorf("%w: city %q yields an empty url slug", ErrMissingFields, city)
	}

	exists, err := s.pageRepo.ExistsBySlug(ctx, slug, stateAbbr, 0)
	if err != nil {
		return nil, fmt.Errorf("查重失败: %w", err)
	}
	if exists {
		return nil, ErrPageExists
	}

	return &model.CityPage{
		City:          city,
		State:         state,
		StateAbbr:     stateAbbr,
		URLSlug:       slug,
		Status:        model.PageStatusDraft,
		Population:    req.Population,
		Neighborhoods: toJSONSlice(req.Neighborhoods),
		Landmarks:     toJSONSlice(req.Landmarks),
	}, nil
}

func (s *CityPageService) save(ctx context.Context, page *model.CityPage, result ContentResult) (*dto.CityPageResult, error) {
	applyContent(page, result)

	if err := s.pageRepo.Create(ctx, page); err != nil {
		return nil, fmt.Errorf("保存城市页面失败: %w", err)
	}

	s.log.Info("city page created",
		"id", page.ID, "city", page.City, "state_abbr", page.StateAbbr, "source", result.Source)

	return &dto.CityPageResult{
		Page:            page,
		UniquenessScore: result.Content.UniquenessScore,
		ContentSource:   result.Source,
	}, nil
}

// ==================== 查询 ====================

func (s *CityPageService) Get(ctx context.Context, id int64) (*model.CityPage, error) {
	page, err := s.pageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return page, nil
}

func (s *CityPageService) List(ctx context.Context, req *dto.ListCityPagesRequest) (*dto.CityPageListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 20
	}

	pages, total, err := s.pageRepo.List(ctx, repository.PageFilter{
		Status:    req.Status,
		StateAbbr: req.StateAbbr,
		Source:    req.Source,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	return &dto.CityPageListResponse{
		List:     pages,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

// ==================== 更新 ====================

// Update 局部更新；城市或州变化、或显式要求时重新生成正文
func (s *CityPageService) Update(ctx context.Context, id int64, req *dto.UpdateCityPageRequest) (*model.CityPage, error) {
	page, err := s.pageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	regenerate := req.RegenerateContent

	if req.City != nil {
		city := strings.TrimSpace(*req.City)
		if city == "" {
			return nil, ErrMissingFields
		}
		if city != page.City {
			page.City = city
			regenerate = true
		}
	}
	if req.State != nil {
		state := strings.TrimSpace(*req.State)
		if state == "" {
			return nil, ErrMissingFields
		}
		if state != page.State {
			page.State = state
			regenerate = true
		}
	}
	if req.StateAbbr != nil {
		abbr := strings.ToUpper(strings.TrimSpace(*req.StateAbbr))
		if abbr == "" {
			return nil, ErrMissingFields
		}
		page.StateAbbr = abbr
	}

	// slug 跟随城市名
	slug := GenerateSlug(page.City)
	if slug == "" {
		return nil, fmt.Errorf("%w: city %q yields an empty url slug", ErrMissingFields, page.City)
	}
	if slug != page.URLSlug || req.StateAbbr != nil {
		exists, err := s.pageRepo.ExistsBySlug(ctx, slug, page.StateAbbr, page.ID)
		if err != nil {
			return nil, fmt.Errorf("查重失败: %w", err)
		}
		if exists {
			return nil, ErrPageExists
		}
		page.URLSlug = slug
	}

	if req.Status != nil {
		page.Status = *req.Status
	}
	if req.Population != nil {
		page.Population = *req.Population
	}
	if req.Neighborhoods != nil {
		page.Neighborhoods = toJSONSlice(req.Neighborhoods)
	}
	if req.Landmarks != nil {
		page.Landmarks = toJSONSlice(req.Landmarks)
	}

	assignIfSet(&page.Title, req.Title)
	assignIfSet(&page.MetaDescription, req.MetaDescription)
	assignIfSet(&page.HeroTitle, req.HeroTitle)
	assignIfSet(&page.HeroDescription, req.HeroDescription)
	assignIfSet(&page.CityInfo, req.CityInfo)
	assignIfSet(&page.ServicesContent, req.ServicesContent)

	if regenerate {
		result := s.content.Generate(ctx, contentRequestFor(page), dto.BoolOr(req.UseAI, true))
		applyContent(page, result)
	}

	if err := s.pageRepo.Update(ctx, page); err != nil {
		return nil, fmt.Errorf("更新城市页面失败: %w", err)
	}
	return page, nil
}

// Regenerate 按存储的城市上下文重新生成正文
func (s *CityPageService) Regenerate(ctx context.Context, id int64, preferAI bool) (*dto.CityPageResult, error) {
	page, err := s.pageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	result := s.content.Generate(ctx, contentRequestFor(page), preferAI)
	applyContent(page, result)

	if err := s.pageRepo.Update(ctx, page); err != nil {
		return nil, fmt.Errorf("更新城市页面失败: %w", err)
	}

	return &dto.CityPageResult{
		Page:            page,
		UniquenessScore: result.Content.UniquenessScore,
		ContentSource:   result.Source,
	}, nil
}

// ==================== 删除 ====================

func (s *CityPageService) Delete(ctx context.Context, id int64) error {
	if err := s.pageRepo.Delete(ctx, id); err != nil {
		return mapNotFound(err)
	}
	if err := s.reviewRepo.DeleteByPage(ctx, id); err != nil {
		s.log.Warn("delete city reviews failed", "page_id", id, "error", err)
	}
	return nil
}

// ==================== 评价 ====================

// GenerateReviews 调用 AI 生成评价并替换页面已有评价
func (s *CityPageService) GenerateReviews(ctx context.Context, id int64, count int) ([]model.CityReview, error) {
	ai := s.content.AI()
	if ai == nil {
		return nil, ErrAIUnavailable
	}

	page, err := s.pageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	reviews, err := ai.GenerateReviews(withPageID(ctx, page.ID), page.City, page.State, count)
	if err != nil {
		return nil, err
	}

	records := make([]model.CityReview, 0, len(reviews))
	for _, r := range reviews {
		records = append(records, model.CityReview{
			PageID:      page.ID,
			ReviewKey:   r.ID,
			Author:      r.Author,
			Rating:      r.Rating,
			Text:        r.Text,
			ReviewDate:  r.Date,
			ProjectType: r.ProjectType,
		})
	}

	if err := s.reviewRepo.ReplaceForPage(ctx, page.ID, records); err != nil {
		return nil, fmt.Errorf("保存评价失败: %w", err)
	}
	return records, nil
}

func (s *CityPageService) ListReviews(ctx context.Context, id int64) ([]model.CityReview, error) {
	if _, err := s.pageRepo.GetByID(ctx, id); err != nil {
		return nil, mapNotFound(err)
	}
	return s.reviewRepo.ListByPage(ctx, id)
}

// ==================== 升级 ====================

// UpgradeSpinnerPages 将 Spinner 生成的草稿页升级为 AI 正文，走批量路径
// AI 仍然失败的页面保持原样
func (s *CityPageService) UpgradeSpinnerPages(ctx context.Context, limit int) (*dto.UpgradeSummary, error) {
	if !s.content.AIAvailable() {
		return nil, ErrAIUnavailable
	}

	pages, err := s.pageRepo.FindBySource(ctx, model.ContentSourceSpinner, model.PageStatusDraft, limit)
	if err != nil {
		return nil, fmt.Errorf("查询待升级页面失败: %w", err)
	}

	summary := &dto.UpgradeSummary{Scanned: len(pages)}
	if len(pages) == 0 {
		return summary, nil
	}

	reqs := make([]ContentRequest, 0, len(pages))
	for i := range pages {
		reqs = append(reqs, contentRequestFor(&pages[i]))
	}

	results := s.content.GenerateBatch(ctx, reqs, true)
	for i, result := range results {
		if result.Source != SourceAI {
			continue
		}
		page := &pages[i]
		applyContent(page, result.ContentResult)
		if err := s.pageRepo.Update(ctx, page); err != nil {
			s.log.Error("save upgraded page failed", "page_id", page.ID, "error", err)
			continue
		}
		summary.Upgraded++
	}

	return summary, nil
}

// ==================== 预览 ====================

// Preview 生成正文但不落库
func (s *CityPageService) Preview(ctx context.Context, req *dto.PreviewContentRequest) ContentResult {
	return s.content.Generate(ctx, ContentRequest{
		City:  strings.TrimSpace(req.City),
		State: strings.TrimSpace(req.State),
		Context: &CityContext{
			Population:    req.Population,
			Neighborhoods: req.Neighborhoods,
			Landmarks:     req.Landmarks,
		},
	}, dto.BoolOr(req.UseAI, false))
}

// ==================== 辅助函数 ====================

func contentRequestFor(page *model.CityPage) ContentRequest {
	return ContentRequest{
		City:  page.City,
		State: page.State,
		Context: &CityContext{
			Population:    page.Population,
			Neighborhoods: []string(page.Neighborhoods),
			Landmarks:     []string(page.Landmarks),
		},
		PageID: page.ID,
	}
}

// applyContent 写入正文及派生的 title / meta 描述
func applyContent(page *model.CityPage, result ContentResult) {
	c := result.Content
	page.HeroTitle = c.HeroTitle
	page.HeroDescription = c.HeroDescription
	page.CityInfo = c.CityInfo
	page.ServicesContent = c.ServicesContent
	page.UniquenessScore = c.UniquenessScore
	page.ContentSource = result.Source
	page.Title = PageTitle(c)
	page.MetaDescription = truncateRunes(c.HeroDescription, metaDescriptionLimit)
}

// PageTitle 页面 <title>
func PageTitle(c spinner.GeneratedContent) string {
	return c.HeroTitle + titleSuffix
}

func toJSONSlice(values []string) datatypes.JSONSlice[string] {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return datatypes.JSONSlice[string](out)
}

func assignIfSet(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPageNotFound
	}
	return err
}
