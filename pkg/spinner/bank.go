package spinner

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// ==================== 字段定义 ====================

// Field 内容字段
type Field string

const (
	FieldHeroTitle       Field = "hero_title"
	FieldHeroDescription Field = "hero_description"
	FieldServicesContent Field = "services_content"
	FieldCityInfo        Field = "city_info"

	// FieldCityOverview 独立的城市简介，仅由 Spinner.Overview 使用
	FieldCityOverview Field = "city_overview"
)

// ContentFields 页面四个字段的生成顺序，顺序决定随机序列的消耗
var ContentFields = []Field{
	FieldHeroTitle,
	FieldHeroDescription,
	FieldServicesContent,
	FieldCityInfo,
}

// 城市/州直接插值标记，在同义词替换之前处理
const (
	CityMarker  = "{{city}}"
	StateMarker = "{{state}}"
)

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// ==================== 模板库 ====================

// SynonymSet 同义词表中的一项
type SynonymSet struct {
	Key   string
	Words []string
}

// Bank 模板与同义词表，构建后只读，可并发读取
type Bank struct {
	templates map[Field][]string
	synonyms  []SynonymSet
	index     map[string]int
	emptyKeys []string
}

// NewBank 复制入参构建模板库
// 同义词 key 重复时后者覆盖词表但保留首次出现的位置；词表为空的 key 被丢弃并记入 EmptyKeys。
func NewBank(templates map[Field][]string, synonyms []SynonymSet) *Bank {
	b := &Bank{
		templates: make(map[Field][]string, len(templates)),
		index:     make(map[string]int, len(synonyms)),
	}
	for field, list := range templates {
		b.templates[field] = append([]string(nil), list...)
	}

	for _, set := range synonyms {
		words := append([]string(nil), set.Words...)
		if pos, ok := b.index[set.Key]; ok {
			b.synonyms[pos].Words = words
			continue
		}
		b.index[set.Key] = len(b.synonyms)
		b.synonyms = append(b.synonyms, SynonymSet{Key: set.Key, Words: words})
	}

	kept := b.synonyms[:0]
	b.index = make(map[string]int, len(b.synonyms))
	for _, set := range b.synonyms {
		if len(set.Words) == 0 {
			b.emptyKeys = append(b.emptyKeys, set.Key)
			continue
		}
		b.index[set.Key] = len(kept)
		kept = append(kept, set)
	}
	b.synonyms = kept
	return b
}

// TemplatesFor 返回字段的模板列表 (副本)
func (b *Bank) TemplatesFor(field Field) []string {
	return append([]string(nil), b.templates[field]...)
}

// SynonymsFor 返回 key 对应的候选词
func (b *Bank) SynonymsFor(key string) ([]string, bool) {
	pos, ok := b.index[key]
	if !ok {
		return nil, false
	}
	return append([]string(nil), b.synonyms[pos].Words...), true
}

// Keys 按表内顺序返回全部 key
func (b *Bank) Keys() []string {
	keys := make([]string, len(b.synonyms))
	for i, set := range b.synonyms {
		keys[i] = set.Key
	}
	return keys
}

// EmptyKeys 构建时因词表为空被丢弃的 key
func (b *Bank) EmptyKeys() []string {
	return append([]string(nil), b.emptyKeys...)
}

// MissingKeys 模板中引用但同义词表中不存在的 key (排序去重)
// 这些占位符会按字面量输出，属于内容编写缺陷而非生成失败
func (b *Bank) MissingKeys() []string {
	seen := make(map[string]bool)
	for _, list := range b.templates {
		for _, tpl := range list {
			tpl = strings.NewReplacer(CityMarker, "", StateMarker, "").Replace(tpl)
			for _, m := range placeholderPattern.FindAllStringSubmatch(tpl, -1) {
				if _, ok := b.index[m[1]]; !ok {
					seen[m[1]] = true
				}
			}
		}
	}
	missing := make([]string, 0, len(seen))
	for k := range seen {
		missing = append(missing, k)
	}
	sort.Strings(missing)
	return missing
}

// ==================== 默认模板库 ====================

var (
	defaultBankOnce sync.Once
	defaultBank     *Bank
)

// DefaultBank 进程级默认模板库 (建筑制图服务)
// 模板与同义词顺序决定既有城市的历史输出，只能在末尾追加新 key，不可重排。
func DefaultBank() *Bank {
	defaultBankOnce.Do(func() {
		defaultBank = NewBank(defaultTemplates, defaultSynonyms)
	})
	return defaultBank
}

var defaultSynonyms = []SynonymSet{
	// 核心行业词
	{Key: "drafting", Words: []string{"drafting", "design", "drawing", "planning", "detailing", "CAD services"}},
	{Key: "services", Words: []string{"services", "solutions", "assistance", "support", "expertise", "offerings"}},
	{Key: "architectural", Words: []string{"architectural", "building", "construction", "structural", "design"}},
	{Key: "professional", Words: []string{"professional", "expert", "experienced", "skilled", "qualified", "certified"}},
	{Key: "plans", Words: []string{"plans", "drawings", "blueprints", "designs", "schematics", "layouts"}},

	// 动作
	{Key: "create", Words: []string{"create", "develop", "produce", "generate", "design", "craft"}},
	{Key: "provide", Words: []string{"provide", "offer", "deliver", "supply", "furnish"}},
	{Key: "help", Words: []string{"help", "assist", "support", "aid", "serve", "guide"}},

	// 品质
	{Key: "precise", Words: []string{"precise", "accurate", "exact", "detailed", "meticulous"}},
	{Key: "quality", Words: []string{"quality", "high-standard", "premium", "top-tier", "excellent"}},
	{Key: "comprehensive", Words: []string{"comprehensive", "complete", "thorough", "full-service", "extensive"}},
	{Key: "fast", Words: []string{"fast", "quick", "rapid", "speedy", "prompt", "efficient"}},

	// 项目类型
	{Key: "residential", Words: []string{"residential", "home", "house", "dwelling", "living space"}},
	{Key: "commercial", Words: []string{"commercial", "business", "corporate", "industrial", "professional"}},

	// 客户类型
	{Key: "builders", Words: []string{"builders", "contractors", "developers", "construction professionals", "project managers"}},
	{Key: "homeowners", Words: []string{"homeowners", "property owners", "residents", "home buyers", "clients"}},
	{Key: "architects", Words: []string{"architects", "designers", "planners", "design professionals"}},
}

var defaultTemplates = map[Field][]string{
	FieldHeroTitle: {
		"{Professional} Architectural Drafting Services in {{city}}, {{state}}",
		"Expert Architectural Drafting Services for {{city}} {Builders} and {Architects}",
		"{Quality} Architectural Drafting Services in {{city}}, {{state}}",
		"{{city}}'s Leading Architectural Drafting Services Company",
	},
	FieldHeroDescription: {
		"{Precise} architectural drafting services and CAD {support} for {architects}, {builders}, and {homeowners} in {{city}}. {Fast} turnaround, {professional} results.",
		"Transform your vision into reality with our {comprehensive} architectural drafting services. Serving {{city}} and surrounding areas.",
		"{Quality} {residential} and {commercial} architectural drafting services tailored for {{city}} projects. Get started today.",
		"{Help} bring your building project to life with {precise} architectural drafting services designed for {{city}}, {{state}}.",
	},
	FieldServicesContent: {
		"Our architectural drafting services in {{city}} include {residential} floor plans, {commercial} building designs, site plans, and construction documentation. We {provide} {professional} CAD architectural drafting services with {fast} delivery times.",
		"We specialize in {precise} architectural drafting services for {{city}} {builders}, {contractors}, and {homeowners}. From concept to construction, our {experienced} team delivers {quality} architectural drafting services.",
		"{Comprehensive} architectural drafting services for {{city}}: {residential} renovations, new {commercial} construction, permit {plans}, and as-built drawings. {Professional} results, competitive pricing.",
		"Serving {{city}} with {expert} architectural drafting services for over a decade. We {provide} 3D modeling, construction documents, and {precise} technical drawings for any project size.",
	},
	FieldCityInfo: {
		"{{city}}, {{state}} is a thriving community with diverse {architectural} needs. Our local architectural drafting services team understands {{city}}'s building codes, zoning requirements, and {architectural} styles.",
		"Located in {{state}}, {{city}} features a mix of {residential} and {commercial} development. We {provide} architectural drafting services that meet local {{city}} building standards and regulations.",
		"{{city}} residents and {builders} trust our architectural drafting services expertise. We're familiar with {{city}}'s unique building requirements and deliver {precise} {plans} on time.",
		"As {{city}}'s preferred architectural drafting services provider, we understand the local {architectural} landscape. From historic renovations to modern new builds, we've got {{city}} covered.",
	},
	FieldCityOverview: {
		"{{city}}, {{state}} is known for its {quality} {architectural} projects. Our {drafting} team {provides} {professional} {services} to local {builders} and {homeowners}.",
		"We {help} {{city}} {architects} and {contractors} {create} {precise} {plans} for {residential} and {commercial} projects throughout {{state}}.",
		"{{city}}'s growing construction industry needs {reliable} {drafting} {services}. We deliver {comprehensive} {architectural} {plans} with {fast} turnaround.",
	},
}
