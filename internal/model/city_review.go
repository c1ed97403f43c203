package model

// CityReview 城市页面展示的客户评价
type CityReview struct {
	BaseModel

	PageID      int64  `gorm:"index;not null;comment:城市页面ID" json:"page_id"`
	ReviewKey   string `gorm:"size:64;comment:生成时分配的评价ID" json:"review_key"`
	Author      string `gorm:"size:64" json:"author"`
	Rating      int    `gorm:"default:5;comment:评分(1-5)" json:"rating"`
	Text        string `gorm:"type:text" json:"text"`
	ReviewDate  string `gorm:"size:10;comment:YYYY-MM-DD" json:"review_date"`
	ProjectType string `gorm:"size:64;comment:项目类型" json:"project_type"`
}

func (CityReview) TableName() string {
	return "city_reviews"
}
