package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/liao/sommelier/internal/wine"
)

// Normalize 把原始行转换成目录记录
// 属性缺失或无法解析时取 1，价格缺失或无法解析时为 nil
func Normalize(row RawRow) (wine.Record, error) {
	r := wine.Record{
		NameKo:       text(row, "name_ko"),
		NameEn:       text(row, "name_en"),
		Winery:       text(row, "winery"),
		Country:      text(row, "country"),
		Region:       text(row, "region"),
		WineType:     text(row, "wine_type"),
		Aroma:        StripHTML(text(row, "aroma")),
		FoodMatching: StripHTML(text(row, "food_matching")),
		ImageURL:     text(row, "image_url"),
		DetailURL:    text(row, "detail_url"),
	}

	var err error
	for _, a := range []struct {
		key  string
		dest *int
	}{
		{"sweetness", &r.Sweetness},
		{"acidity", &r.Acidity},
		{"body", &r.Body},
		{"tannin", &r.Tannin},
	} {
		if *a.dest, err = attribute(row, a.key); err != nil {
			return wine.Record{}, fmt.Errorf("normalize %q: %w", r.NameKo, err)
		}
	}
	if r.Price, err = price(row); err != nil {
		return wine.Record{}, fmt.Errorf("normalize %q: %w", r.NameKo, err)
	}

	if r.NameEn == "" {
		r.NameEn = r.NameKo
	}
	if err := r.Validate(); err != nil {
		return wine.Record{}, fmt.Errorf("normalize %q: %w", r.NameKo, err)
	}
	return r, nil
}

// StripHTML 去掉自由文本里的标签，纯文本原样返回
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func text(row RawRow, key string) string {
	v := strings.TrimSpace(row[key])
	if isMissing(v) {
		return ""
	}
	return v
}

// maxPrice 超过此值视为脏数据，整行跳过
const maxPrice = 1_000_000_000

func attribute(row RawRow, key string) (int, error) {
	f, ok := number(row[key])
	if !ok {
		return wine.MinAttribute, nil
	}
	if f < wine.MinAttribute || f > wine.MaxAttribute {
		return 0, fmt.Errorf("%s %v out of range %d-%d", key, f, wine.MinAttribute, wine.MaxAttribute)
	}
	return int(f), nil
}

func price(row RawRow) (*int, error) {
	f, ok := number(row["price"])
	if !ok {
		return nil, nil
	}
	if f < 0 || f > maxPrice {
		return nil, fmt.Errorf("price %v out of range 0-%d", f, maxPrice)
	}
	return wine.IntPtr(int(f)), nil
}

// number 接受 "3" 和 "3.0" 两种写法
func number(raw string) (float64, bool) {
	v := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if isMissing(v) {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// 表格导出时空值常被写成 nan/null
func isMissing(v string) bool {
	switch strings.ToLower(v) {
	case "", "nan", "null", "none":
		return true
	}
	return false
}
