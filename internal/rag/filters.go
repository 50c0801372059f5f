package rag

import (
	"strings"

	"github.com/liao/sommelier/internal/wine"
)

// PriceTolerance 检索管道在价格区间两端各放宽 20%
const PriceTolerance = 0.2

// TypeMatcher 判断酒款类型是否满足偏好
type TypeMatcher func(wineType string, preferred []string) bool

// ContainsAny 类型包含任一偏好子串即可，兼容"레드 와인"这类复合标签
// 偏好为空时不过滤
func ContainsAny(wineType string, preferred []string) bool {
	if len(preferred) == 0 {
		return true
	}
	for _, p := range preferred {
		if p != "" && strings.Contains(wineType, p) {
			return true
		}
	}
	return false
}

// ExactMembership 类型必须与某个偏好完全相等，偏好为空时没有酒款入选
func ExactMembership(wineType string, preferred []string) bool {
	for _, p := range preferred {
		if wineType == p {
			return true
		}
	}
	return false
}

// WithinTolerance 无价格的记录永远不匹配
func WithinTolerance(r wine.Record, pr wine.PriceRange, tolerance float64) bool {
	if !r.HasPrice() {
		return false
	}
	low, high := pr.Widen(tolerance)
	price := float64(*r.Price)
	return price >= low && price <= high
}

// WithinExact 不放宽的闭区间
func WithinExact(r wine.Record, pr wine.PriceRange) bool {
	return r.HasPrice() && pr.Contains(*r.Price)
}
