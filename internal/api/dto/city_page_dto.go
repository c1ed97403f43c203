package dto

import "citypages_202510/internal/model"

// ==================== 请求 DTO ====================

// CreateCityPageRequest 创建城市页面
// city/state/state_abbr 由服务层校验，CLI 批量导入复用该结构
type CreateCityPageRequest struct {
	City          string   `json:"city"`
	State         string   `json:"state"`
	StateAbbr     string   `json:"state_abbr"`
	Population    int64    `json:"population" binding:"omitempty,min=0"`
	Neighborhoods []string `json:"neighborhoods,omitempty"`
	Landmarks     []string `json:"landmarks,omitempty"`
	UseAI         *bool    `json:"use_ai,omitempty"` // 默认 true
}

// UpdateCityPageRequest 局部更新，nil 字段不修改
type UpdateCityPageRequest struct {
	City          *string  `json:"city,omitempty"`
	State         *string  `json:"state,omitempty"`
	StateAbbr     *string  `json:"state_abbr,omitempty"`
	Status        *string  `json:"status,omitempty" binding:"omitempty,oneof=draft published"`
	Population    *int64   `json:"population,omitempty" binding:"omitempty,min=0"`
	Neighborhoods []string `json:"neighborhoods,omitempty"`
	Landmarks     []string `json:"landmarks,omitempty"`

	// 手工修改正文，与 regenerate_content 同时出现时以重新生成为准
	Title           *string `json:"title,omitempty"`
	MetaDescription *string `json:"meta_description,omitempty"`
	HeroTitle       *string `json:"hero_title,omitempty"`
	HeroDescription *string `json:"hero_description,omitempty"`
	CityInfo        *string `json:"city_info,omitempty"`
	ServicesContent *string `json:"services_content,omitempty"`

	RegenerateContent bool  `json:"regenerate_content"`
	UseAI             *bool `json:"use_ai,omitempty"`
}

// ListCityPagesRequest 页面列表请求
type ListCityPagesRequest struct {
	Status    string `form:"status"`
	StateAbbr string `form:"state_abbr"`
	Source    string `form:"source"`
	Page      int    `form:"page,default=1"`
	PageSize  int    `form:"page_size,default=20"`
}

// RegenerateRequest 重新生成正文
type RegenerateRequest struct {
	UseAI *bool `json:"use_ai,omitempty"`
}

// GenerateReviewsRequest 生成评价
type GenerateReviewsRequest struct {
	Count int `json:"count" binding:"omitempty,min=1,max=20"` // 默认 5
}

// PreviewContentRequest 预览正文，不落库
type PreviewContentRequest struct {
	City          string   `json:"city" binding:"required"`
	State         string   `json:"state" binding:"required"`
	Population    int64    `json:"population" binding:"omitempty,min=0"`
	Neighborhoods []string `json:"neighborhoods,omitempty"`
	Landmarks     []string `json:"landmarks,omitempty"`
	UseAI         *bool    `json:"use_ai,omitempty"`
}

// ==================== 响应 DTO ====================

// CityPageResult 创建/重新生成结果
type CityPageResult struct {
	Page            *model.CityPage `json:"city"`
	UniquenessScore int             `json:"uniqueness_score"`
	ContentSource   string          `json:"content_source"`
}

// CityPageListResponse 页面列表
type CityPageListResponse struct {
	List     []model.CityPage `json:"list"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// BatchCreateItem 批量创建中单个城市的结果，Error 非空表示未创建
type BatchCreateItem struct {
	City            string `json:"city"`
	State           string `json:"state"`
	ID              int64  `json:"id,omitempty"`
	ContentSource   string `json:"content_source,omitempty"`
	UniquenessScore int    `json:"uniqueness_score,omitempty"`
	Error           string `json:"error,omitempty"`
}

// UpgradeSummary 升级任务结果
type UpgradeSummary struct {
	Scanned  int `json:"scanned"`
	Upgraded int `json:"upgraded"`
}

// BoolOr 可选布尔值，nil 时取默认值
func BoolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

// ==================== AI 用量 ====================

// AIUsageRequest 用量查询，page_id 优先于 days
type AIUsageRequest struct {
	PageID int64 `form:"page_id" binding:"omitempty,min=1"`
	Days   int   `form:"days,default=7" binding:"omitempty,min=0,max=90"`
}
