package wine

import (
	"fmt"
	"strings"
)

// PriceRange 价格区间 [low, high]，JSON 中为二元数组
type PriceRange [2]int

func (p PriceRange) Low() int  { return p[0] }
func (p PriceRange) High() int { return p[1] }

// Mean 区间中点
func (p PriceRange) Mean() float64 {
	return float64(p[0]+p[1]) / 2
}

// Contains 闭区间判断
func (p PriceRange) Contains(price int) bool {
	return price >= p[0] && price <= p[1]
}

// Widen 按比例放宽区间，返回 [low*(1-ratio), high*(1+ratio)]
func (p PriceRange) Widen(ratio float64) (float64, float64) {
	return float64(p[0]) * (1 - ratio), float64(p[1]) * (1 + ratio)
}

// DefaultPriceRange 打分模型在用户未提供区间时使用
func DefaultPriceRange() PriceRange {
	return PriceRange{DefaultMinPrice, DefaultMaxPrice}
}

// TasteProfile 用户口味档案，仅在单次请求内有效
type TasteProfile struct {
	PreferredSweetness      *int        `json:"preferred_sweetness,omitempty"`
	PreferredAcidity        *int        `json:"preferred_acidity,omitempty"`
	PreferredBody           *int        `json:"preferred_body,omitempty"`
	PreferredTannin         *int        `json:"preferred_tannin,omitempty"`
	PreferredTypes          []string    `json:"preferred_types"`
	PriceRange              *PriceRange `json:"price_range,omitempty"`
	PreferredFoods          []string    `json:"preferred_foods"`
	DislikedCharacteristics []string    `json:"disliked_characteristics"`
}

// Validate 在边界处校验档案字段
func (p *TasteProfile) Validate() error {
	for _, f := range []struct {
		name  string
		value *int
	}{
		{"preferred_sweetness", p.PreferredSweetness},
		{"preferred_acidity", p.PreferredAcidity},
		{"preferred_body", p.PreferredBody},
		{"preferred_tannin", p.PreferredTannin},
	} {
		if f.value == nil {
			continue
		}
		if *f.value < MinAttribute || *f.value > MaxAttribute {
			return fmt.Errorf("%s must be between %d and %d", f.name, MinAttribute, MaxAttribute)
		}
	}
	if p.PriceRange != nil {
		if p.PriceRange.Low() < 0 {
			return fmt.Errorf("price_range low must not be negative")
		}
		if p.PriceRange.Low() > p.PriceRange.High() {
			return fmt.Errorf("price_range low must not exceed high")
		}
	}
	return nil
}

// WithDefaults 返回补齐默认值后的副本，原档案不变
func (p TasteProfile) WithDefaults() TasteProfile {
	out := p
	out.PreferredSweetness = orDefault(p.PreferredSweetness)
	out.PreferredAcidity = orDefault(p.PreferredAcidity)
	out.PreferredBody = orDefault(p.PreferredBody)
	out.PreferredTannin = orDefault(p.PreferredTannin)
	if p.PriceRange == nil {
		r := DefaultPriceRange()
		out.PriceRange = &r
	}
	if out.PreferredTypes == nil {
		out.PreferredTypes = []string{}
	}
	if out.PreferredFoods == nil {
		out.PreferredFoods = []string{}
	}
	if out.DislikedCharacteristics == nil {
		out.DislikedCharacteristics = []string{}
	}
	return out
}

// QueryBlock 将档案渲染为追加到检索语句后的结构化文本
func (p TasteProfile) QueryBlock() string {
	var b strings.Builder
	writePref := func(label string, v *int) {
		if v != nil {
			fmt.Fprintf(&b, "%s: %d\n", label, *v)
		}
	}
	writePref("당도", p.PreferredSweetness)
	writePref("산도", p.PreferredAcidity)
	writePref("바디", p.PreferredBody)
	writePref("타닌", p.PreferredTannin)
	if len(p.PreferredTypes) > 0 {
		fmt.Fprintf(&b, "종류: %s\n", strings.Join(p.PreferredTypes, ", "))
	}
	if p.PriceRange != nil {
		fmt.Fprintf(&b, "가격: %d-%d\n", p.PriceRange.Low(), p.PriceRange.High())
	}
	return b.String()
}

// Dislikes 判断记录是否命中任一不喜欢的特征，空串忽略
func (p TasteProfile) Dislikes(r Record) bool {
	if len(p.DislikedCharacteristics) == 0 {
		return false
	}
	agg := r.Characteristics()
	for _, d := range p.DislikedCharacteristics {
		d = strings.TrimSpace(d)
		if d != "" && strings.Contains(agg, d) {
			return true
		}
	}
	return false
}

// LikesFood 任一偏好食物是 food_matching 的子串
func (p TasteProfile) LikesFood(r Record) bool {
	for _, f := range p.PreferredFoods {
		f = strings.TrimSpace(f)
		if f != "" && strings.Contains(r.FoodMatching, f) {
			return true
		}
	}
	return false
}

func orDefault(v *int) *int {
	if v != nil {
		return v
	}
	d := DefaultPreference
	return &d
}
