package model

import (
	"gorm.io/datatypes"
)

// ==================== 状态常量 ====================

const (
	PageStatusDraft     = "draft"
	PageStatusPublished = "published"

	// 正文来源
	ContentSourceAI      = "ai"
	ContentSourceSpinner = "spinner"
)

// CityPage 城市落地页
type CityPage struct {
	BaseModel

	// 定位
	City      string `gorm:"size:128;not null;comment:城市" json:"city"`
	State     string `gorm:"size:64;not null;comment:州" json:"state"`
	StateAbbr string `gorm:"size:8;not null;index:idx_city_pages_slug_state;comment:州缩写(大写)" json:"state_abbr"`
	URLSlug   string `gorm:"size:160;not null;index:idx_city_pages_slug_state;comment:URL 路径" json:"url_slug"`
	Status    string `gorm:"size:16;index;default:draft;comment:状态(draft/published)" json:"status"`

	// SEO
	Title           string `gorm:"size:255;comment:页面标题" json:"title"`
	MetaDescription string `gorm:"size:255;comment:meta 描述" json:"meta_description"`

	// 正文
	HeroTitle       string `gorm:"size:255" json:"hero_title"`
	HeroDescription string `gorm:"type:text" json:"hero_description"`
	CityInfo        string `gorm:"type:text" json:"city_info"`
	ServicesContent string `gorm:"type:text" json:"services_content"`
	UniquenessScore int    `gorm:"default:0;comment:唯一性评分" json:"uniqueness_score"`
	ContentSource   string `gorm:"size:16;index;comment:正文来源(ai/spinner)" json:"content_source"`

	// 城市上下文，供 AI 生成使用
	Population    int64                       `gorm:"default:0;comment:人口" json:"population,omitempty"`
	Neighborhoods datatypes.JSONSlice[string] `gorm:"comment:街区" json:"neighborhoods,omitempty"`
	Landmarks     datatypes.JSONSlice[string] `gorm:"comment:地标" json:"landmarks,omitempty"`
}

func (CityPage) TableName() string {
	return "city_pages"
}
