package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liao/sommelier/internal/catalog"
	"github.com/liao/sommelier/internal/wine"
)

func fixture() *catalog.Catalog {
	return catalog.New([]wine.Record{
		{NameKo: "레드 하나", NameEn: "Red One", WineType: "레드", FoodMatching: "스테이크", Price: wine.IntPtr(45000), Sweetness: 1, Acidity: 3, Body: 4, Tannin: 4},
		{NameKo: "레드 둘", NameEn: "Red Two", WineType: "레드", Price: wine.IntPtr(65000), Sweetness: 1, Acidity: 3, Body: 5, Tannin: 5},
		{NameKo: "레드 셋", NameEn: "Red Three", WineType: "레드 와인", Price: wine.IntPtr(20000), Sweetness: 2, Acidity: 3, Body: 3, Tannin: 3},
		{NameKo: "레드 넷", NameEn: "Red Four", WineType: "레드", Aroma: "오크", Price: wine.IntPtr(30000), Sweetness: 2, Acidity: 3, Body: 3, Tannin: 3},
		{NameKo: "화이트 하나", NameEn: "White One", WineType: "화이트", Price: wine.IntPtr(30000), Sweetness: 3, Acidity: 4, Body: 2, Tannin: 1},
	})
}

func scoredNames(s []Scored) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.Wine.NameKo
	}
	return out
}

func TestScalarCosine(t *testing.T) {
	assert.Equal(t, 1.0, ScalarCosine(3, 0.2))
	assert.Equal(t, -1.0, ScalarCosine(-1, 4))
	assert.Equal(t, 0.0, ScalarCosine(0, 4))
	assert.Equal(t, 0.0, ScalarCosine(4, 0))
}

// 打分使用精确类型匹配与不放宽的价格区间
func TestScoreRedWithinBudget(t *testing.T) {
	profile := wine.TasteProfile{
		PreferredTypes: []string{"레드"},
		PriceRange:     &wine.PriceRange{10000, 50000},
	}

	got := NewScorer(fixture()).Score(profile, 10)
	assert.Equal(t, []string{"레드 하나", "레드 넷"}, scoredNames(got))
}

func TestScoreFoodBonusAndDislikes(t *testing.T) {
	profile := wine.TasteProfile{
		PreferredTypes:          []string{"레드"},
		PriceRange:              &wine.PriceRange{0, 100000},
		PreferredFoods:          []string{"스테이크"},
		DislikedCharacteristics: []string{"오크"},
	}

	got := NewScorer(fixture()).Score(profile, 5)
	require.Equal(t, []string{"레드 하나", "레드 둘"}, scoredNames(got))
	assert.InDelta(t, 1.1, got[0].Score, 1e-9)
	assert.InDelta(t, 1.0, got[1].Score, 1e-9)
}

func TestScoreDefaultsAndCount(t *testing.T) {
	got := NewScorer(fixture()).Score(wine.TasteProfile{PreferredTypes: []string{"레드"}}, 0)
	require.Len(t, got, DefaultCount)
	// 同分保持目录顺序
	assert.Equal(t, []string{"레드 하나", "레드 둘"}, scoredNames(got))
}

func TestScoreEmptyTypesMatchesNothing(t *testing.T) {
	s := NewScorer(fixture())

	assert.Empty(t, s.Score(wine.TasteProfile{}, 5))
	assert.Empty(t, s.Score(wine.TasteProfile{PreferredTypes: []string{}}, 5))
}

func TestScoreZeroPriceDimension(t *testing.T) {
	profile := wine.TasteProfile{PreferredTypes: []string{"레드"}, PriceRange: &wine.PriceRange{0, 0}}
	cat := catalog.New([]wine.Record{
		{NameKo: "무료", NameEn: "Free", WineType: "레드", Price: wine.IntPtr(0), Sweetness: 1, Acidity: 1, Body: 1, Tannin: 1},
	})

	got := NewScorer(cat).Score(profile, 1)
	require.Len(t, got, 1)
	assert.InDelta(t, 4.0/4.5, got[0].Score, 1e-9)
}

func TestScoreIsDeterministic(t *testing.T) {
	profile := wine.TasteProfile{
		PreferredSweetness: wine.IntPtr(2),
		PreferredTypes:     []string{"레드", "화이트"},
		PriceRange:         &wine.PriceRange{10000, 70000},
		PreferredFoods:     []string{"스테이크"},
	}
	s := NewScorer(fixture())

	first := s.Score(profile, 5)
	require.NotEmpty(t, first)
	for range 10 {
		assert.Equal(t, first, s.Score(profile, 5))
	}
}
