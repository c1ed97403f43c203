package spinner

import (
	"strings"

	"citypages_202510/pkg/logger"
)

// 评分区间 85 + floor(Next()*10)
const (
	baseUniquenessScore  = 85
	uniquenessScoreRange = 10
)

// Spinner 确定性的模板 + 同义词改写器，AI 不可用时的兜底路径
// 每次调用独立创建序列，可并发使用
type Spinner struct {
	bank *Bank
	log  *logger.Logger
}

// New 创建 Spinner，bank 为 nil 时使用默认模板库
func New(bank *Bank, log *logger.Logger) *Spinner {
	if bank == nil {
		bank = DefaultBank()
	}
	return &Spinner{bank: bank, log: logger.OrNop(log)}
}

// Bank 返回使用中的模板库
func (s *Spinner) Bank() *Bank {
	return s.bank
}

// Spin 为城市生成四个字段的正文
// 先按字段顺序各抽一次模板，再按同样顺序逐个改写，最后抽取评分。调用顺序即输出契约。
func (s *Spinner) Spin(city, state string) GeneratedContent {
	seq := NewSequence(DeriveSeed(city, state))

	picked := make([]string, len(ContentFields))
	for i, field := range ContentFields {
		templates := s.bank.templates[field]
		if idx := seq.Pick(len(templates)); idx >= 0 {
			picked[i] = templates[idx]
		}
	}

	var out GeneratedContent
	for i, field := range ContentFields {
		out.set(field, s.spinText(&seq, field, interpolate(picked[i], city, state)))
	}

	out.UniquenessScore = baseUniquenessScore + int(seq.Next()*uniquenessScoreRange)
	return out
}

// Overview 生成独立的城市简介段落
func (s *Spinner) Overview(city, state string) string {
	seq := NewSequence(DeriveSeed(city, state))
	templates := s.bank.templates[FieldCityOverview]
	idx := seq.Pick(len(templates))
	if idx < 0 {
		return ""
	}
	return s.spinText(&seq, FieldCityOverview, interpolate(templates[idx], city, state))
}

// SpinTemplate 以城市种子改写任意一段模板
func (s *Spinner) SpinTemplate(city, state, template string) string {
	seq := NewSequence(DeriveSeed(city, state))
	return s.spinText(&seq, "", interpolate(template, city, state))
}

// spinText 按同义词表顺序替换占位符，每个出现的 key 消耗一次序列，同一 key 的所有出现取同一个词
// 剩余未识别的占位符输出 key 字面量并记录告警
func (s *Spinner) spinText(seq *Sequence, field Field, text string) string {
	spun := text
	for _, set := range s.bank.synonyms {
		placeholder := "{" + set.Key + "}"
		if !strings.Contains(spun, placeholder) {
			continue
		}
		word := set.Words[seq.Pick(len(set.Words))]
		spun = strings.ReplaceAll(spun, placeholder, word)
	}

	return placeholderPattern.ReplaceAllStringFunc(spun, func(match string) string {
		key := match[1 : len(match)-1]
		s.log.Warn("spinner: unreplaced placeholder", "placeholder", match, "field", string(field))
		return key
	})
}

func interpolate(template, city, state string) string {
	return strings.NewReplacer(CityMarker, city, StateMarker, state).Replace(template)
}
