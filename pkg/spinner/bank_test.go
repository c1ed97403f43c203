package spinner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultBank_Keys(t *testing.T) {
	b := DefaultBank()
	assert.Same(t, b, DefaultBank())
	assert.Equal(t, []string{
		"drafting", "services", "architectural", "professional", "plans",
		"create", "provide", "help",
		"precise", "quality", "comprehensive", "fast",
		"residential", "commercial",
		"builders", "homeowners", "architects",
	}, b.Keys())

	for _, f := range ContentFields {
		assert.Len(t, b.TemplatesFor(f), 4, string(f))
	}
	assert.Len(t, b.TemplatesFor(FieldCityOverview), 3)
}

func TestDefaultBank_MissingKeys(t *testing.T) {
	// 旧模板中大小写不一致或未登记的 key，按字面量输出
	assert.Equal(t, []string{
		"Architects", "Builders", "Comprehensive", "Fast", "Help", "Precise",
		"Professional", "Quality", "contractors", "experienced", "expert",
		"provides", "reliable", "support",
	}, DefaultBank().MissingKeys())
}

func TestNewBank_EmptyAndDuplicateKeys(t *testing.T) {
	b := NewBank(nil, []SynonymSet{
		{Key: "a", Words: []string{"x"}},
		{Key: "empty"},
		{Key: "b", Words: []string{"y"}},
		{Key: "a", Words: []string{"z", "w"}},
	})

	assert.Equal(t, []string{"a", "b"}, b.Keys())
	assert.Equal(t, []string{"empty"}, b.EmptyKeys())

	words, ok := b.SynonymsFor("a")
	assert.True(t, ok)
	assert.Equal(t, []string{"z", "w"}, words)

	_, ok = b.SynonymsFor("empty")
	assert.False(t, ok)
}

func TestBank_ReturnsCopies(t *testing.T) {
	b := DefaultBank()
	words, _ := b.SynonymsFor("fast")
	words[0] = "mutated"
	again, _ := b.SynonymsFor("fast")
	assert.Equal(t, "fast", again[0])

	tpls := b.TemplatesFor(FieldHeroTitle)
	tpls[0] = "mutated"
	assert.NotEqual(t, "mutated", b.TemplatesFor(FieldHeroTitle)[0])
}
