package wine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleLabelBoundaries(t *testing.T) {
	assert.Equal(t, "중간", SweetnessScale.Label(3.0))
	assert.Equal(t, "높음", SweetnessScale.Label(3.1))
	assert.Equal(t, "낮음", SweetnessScale.Label(2.0))
	assert.Equal(t, "중간", SweetnessScale.Label(2.5))
	assert.Equal(t, "무거움", BodyScale.Label(4))
	assert.Equal(t, "약함", TanninScale.Label(1))
}

func TestTasteProfileUnmarshal(t *testing.T) {
	body := `{"preferred_sweetness":2,"preferred_types":["레드"],"price_range":[10000,50000]}`

	var p TasteProfile
	require.NoError(t, json.Unmarshal([]byte(body), &p))

	require.NotNil(t, p.PreferredSweetness)
	assert.Equal(t, 2, *p.PreferredSweetness)
	assert.Nil(t, p.PreferredAcidity)
	require.NotNil(t, p.PriceRange)
	assert.Equal(t, 10000, p.PriceRange.Low())
	assert.Equal(t, 50000, p.PriceRange.High())
	assert.Equal(t, []string{"레드"}, p.PreferredTypes)
}

func TestTasteProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile TasteProfile
		wantErr bool
	}{
		{"empty", TasteProfile{}, false},
		{"in range", TasteProfile{PreferredBody: IntPtr(5)}, false},
		{"too high", TasteProfile{PreferredTannin: IntPtr(6)}, true},
		{"too low", TasteProfile{PreferredAcidity: IntPtr(0)}, true},
		{"inverted range", TasteProfile{PriceRange: &PriceRange{50000, 10000}}, true},
		{"negative range", TasteProfile{PriceRange: &PriceRange{-1, 10000}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTasteProfileWithDefaults(t *testing.T) {
	p := TasteProfile{PreferredBody: IntPtr(5)}
	d := p.WithDefaults()

	assert.Equal(t, 3, *d.PreferredSweetness)
	assert.Equal(t, 5, *d.PreferredBody)
	require.NotNil(t, d.PriceRange)
	assert.Equal(t, DefaultPriceRange(), *d.PriceRange)
	assert.NotNil(t, d.PreferredTypes)

	assert.Nil(t, p.PriceRange, "input profile must not change")
}

func TestQueryBlock(t *testing.T) {
	p := TasteProfile{
		PreferredSweetness: IntPtr(2),
		PreferredTypes:     []string{"레드", "화이트"},
		PriceRange:         &PriceRange{10000, 50000},
	}
	block := p.QueryBlock()

	assert.Contains(t, block, "당도: 2\n")
	assert.Contains(t, block, "종류: 레드, 화이트\n")
	assert.Contains(t, block, "가격: 10000-50000\n")
	assert.NotContains(t, block, "산도")
}

func TestDislikesAndFoods(t *testing.T) {
	r := Record{
		NameKo:       "테스트",
		WineType:     "레드",
		Aroma:        "오크, 바닐라",
		FoodMatching: "스테이크, 치즈",
		Sweetness:    1, Acidity: 4, Body: 5, Tannin: 5,
	}

	assert.True(t, TasteProfile{DislikedCharacteristics: []string{"오크"}}.Dislikes(r))
	assert.True(t, TasteProfile{DislikedCharacteristics: []string{"타닌 강함"}}.Dislikes(r))
	assert.False(t, TasteProfile{DislikedCharacteristics: []string{"", "  "}}.Dislikes(r))
	assert.False(t, TasteProfile{DislikedCharacteristics: []string{"스파클링"}}.Dislikes(r))

	assert.True(t, TasteProfile{PreferredFoods: []string{"치즈"}}.LikesFood(r))
	assert.False(t, TasteProfile{PreferredFoods: []string{"회"}}.LikesFood(r))
}

func TestRecordValidate(t *testing.T) {
	ok := Record{NameKo: "가", NameEn: "A", Sweetness: 1, Acidity: 2, Body: 3, Tannin: 5, Price: IntPtr(1000)}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.Body = 6
	assert.Error(t, bad.Validate())

	bad = ok
	bad.NameKo = " "
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Price = IntPtr(-5)
	assert.Error(t, bad.Validate())
}
