package spinner

// GeneratedContent 页面正文生成结果
// UniquenessScore 为 [0,100] 的启发式置信值，并非真实的文本差异度量
type GeneratedContent struct {
	HeroTitle       string `json:"heroTitle"`
	HeroDescription string `json:"heroDescription"`
	CityInfo        string `json:"cityInfo"`
	ServicesContent string `json:"servicesContent"`
	UniquenessScore int    `json:"uniquenessScore"`
}

// Field 按字段取值
func (c GeneratedContent) Field(f Field) string {
	switch f {
	case FieldHeroTitle:
		return c.HeroTitle
	case FieldHeroDescription:
		return c.HeroDescription
	case FieldServicesContent:
		return c.ServicesContent
	case FieldCityInfo:
		return c.CityInfo
	}
	return ""
}

func (c *GeneratedContent) set(f Field, text string) {
	switch f {
	case FieldHeroTitle:
		c.HeroTitle = text
	case FieldHeroDescription:
		c.HeroDescription = text
	case FieldServicesContent:
		c.ServicesContent = text
	case FieldCityInfo:
		c.CityInfo = text
	}
}
