package wine

import (
	"fmt"
	"strings"
)

const (
	MinAttribute = 1
	MaxAttribute = 5

	// DefaultPreference 是口味档案缺省时用于打分的偏好值
	DefaultPreference = 3

	DefaultMinPrice = 0
	DefaultMaxPrice = 1_000_000
)

// Record 一条规范化后的葡萄酒目录记录，加载后不可变
type Record struct {
	NameKo       string `json:"name_ko"`
	NameEn       string `json:"name_en"`
	Winery       string `json:"winery"`
	Country      string `json:"country"`
	Region       string `json:"region"`
	WineType     string `json:"wine_type"`
	Price        *int   `json:"price"`
	Sweetness    int    `json:"sweetness"`
	Acidity      int    `json:"acidity"`
	Body         int    `json:"body"`
	Tannin       int    `json:"tannin"`
	Aroma        string `json:"aroma"`
	FoodMatching string `json:"food_matching"`
	ImageURL     string `json:"image_url"`
	DetailURL    string `json:"detail_url"`
}

// Validate 检查记录是否满足目录不变量
func (r Record) Validate() error {
	if strings.TrimSpace(r.NameKo) == "" {
		return fmt.Errorf("name_ko is empty")
	}
	if strings.TrimSpace(r.NameEn) == "" {
		return fmt.Errorf("name_en is empty")
	}
	for _, a := range []struct {
		name  string
		value int
	}{
		{"sweetness", r.Sweetness},
		{"acidity", r.Acidity},
		{"body", r.Body},
		{"tannin", r.Tannin},
	} {
		if a.value < MinAttribute || a.value > MaxAttribute {
			return fmt.Errorf("%s %d out of range %d-%d", a.name, a.value, MinAttribute, MaxAttribute)
		}
	}
	if r.Price != nil && *r.Price < 0 {
		return fmt.Errorf("price %d is negative", *r.Price)
	}
	return nil
}

// HasPrice 价格缺失的记录不参与任何价格区间匹配
func (r Record) HasPrice() bool {
	return r.Price != nil
}

// PriceValue 返回价格，缺失时为 0
func (r Record) PriceValue() int {
	if r.Price == nil {
		return 0
	}
	return *r.Price
}

// Characteristics 汇总用于"不喜欢的特征"子串匹配的文本
func (r Record) Characteristics() string {
	parts := []string{
		r.WineType,
		r.Country,
		r.Region,
		r.Aroma,
		r.FoodMatching,
		"당도 " + SweetnessScale.Label(float64(r.Sweetness)),
		"산도 " + AcidityScale.Label(float64(r.Acidity)),
		"바디 " + BodyScale.Label(float64(r.Body)),
		"타닌 " + TanninScale.Label(float64(r.Tannin)),
	}
	return strings.Join(parts, " ")
}

// IntPtr 便于构造可空价格
func IntPtr(v int) *int {
	return &v
}
