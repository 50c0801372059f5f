package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/liao/sommelier/internal/wine"
)

// Catalog 加载后只读的葡萄酒目录
type Catalog struct {
	records  []wine.Record
	maxPrice int
}

// Load 读取并规范化目录，单行失败只记录日志并跳过
func Load(ctx context.Context, src Source) (*Catalog, error) {
	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	records := make([]wine.Record, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		r, err := Normalize(row)
		if err != nil {
			skipped++
			slog.Warn("skip catalog row", "row", i, "err", err)
			continue
		}
		records = append(records, r)
	}

	slog.Info("catalog loaded", "records", len(records), "skipped", skipped)
	return New(records), nil
}

func New(records []wine.Record) *Catalog {
	c := &Catalog{records: records}
	for _, r := range records {
		if r.HasPrice() && *r.Price > c.maxPrice {
			c.maxPrice = *r.Price
		}
	}
	return c
}

// All 返回全部记录的副本
func (c *Catalog) All() []wine.Record {
	out := make([]wine.Record, len(c.records))
	copy(out, c.records)
	return out
}

func (c *Catalog) Len() int {
	return len(c.records)
}

// MaxPrice 目录中的最高价格，没有任何价格时为 0
func (c *Catalog) MaxPrice() int {
	return c.maxPrice
}

// Search 按韩文名、英文名、酒庄做不区分大小写的子串匹配
func (c *Catalog) Search(query string) []wine.Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var out []wine.Record
	for _, r := range c.records {
		if strings.Contains(strings.ToLower(r.NameKo), q) ||
			strings.Contains(strings.ToLower(r.NameEn), q) ||
			strings.Contains(strings.ToLower(r.Winery), q) {
			out = append(out, r)
		}
	}
	return out
}
