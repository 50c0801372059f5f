package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/sourcegraph/conc/pool"

	"github.com/liao/sommelier/internal/wine"
)

const (
	metaNameKo   = "name_ko"
	metaWineType = "wine_type"
	// metaRecord 保存完整记录的 JSON，数值字段保持数值类型
	metaRecord = "record"
)

// RenderContent 用于 embedding 的固定模板，字段顺序不可变
func RenderContent(r wine.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "와인 이름: %s\n", r.NameKo)
	fmt.Fprintf(&b, "영문 이름: %s\n", r.NameEn)
	fmt.Fprintf(&b, "와이너리: %s\n", r.Winery)
	fmt.Fprintf(&b, "국가: %s\n", r.Country)
	fmt.Fprintf(&b, "지역: %s\n", r.Region)
	fmt.Fprintf(&b, "종류: %s\n", r.WineType)
	fmt.Fprintf(&b, "당도: %d\n", r.Sweetness)
	fmt.Fprintf(&b, "산도: %d\n", r.Acidity)
	fmt.Fprintf(&b, "바디: %d\n", r.Body)
	fmt.Fprintf(&b, "타닌: %d\n", r.Tannin)
	fmt.Fprintf(&b, "아로마: %s\n", r.Aroma)
	fmt.Fprintf(&b, "음식 페어링: %s\n", r.FoodMatching)
	return b.String()
}

// BuildDocument 生成单条文档，元数据必须能还原为合法记录
func BuildDocument(id string, r wine.Record) (chromem.Document, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return chromem.Document{}, fmt.Errorf("marshal record: %w", err)
	}
	md := map[string]string{
		metaNameKo:   r.NameKo,
		metaWineType: r.WineType,
		metaRecord:   string(raw),
	}
	if _, err := RecordFromMetadata(md); err != nil {
		return chromem.Document{}, err
	}
	return chromem.Document{
		ID:       id,
		Metadata: md,
		Content:  RenderContent(r),
	}, nil
}

// RecordFromMetadata 从文档元数据还原记录
func RecordFromMetadata(md map[string]string) (wine.Record, error) {
	raw, ok := md[metaRecord]
	if !ok {
		return wine.Record{}, fmt.Errorf("metadata has no %q", metaRecord)
	}
	var r wine.Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return wine.Record{}, fmt.Errorf("decode record metadata: %w", err)
	}
	if err := r.Validate(); err != nil {
		return wine.Record{}, fmt.Errorf("invalid record metadata: %w", err)
	}
	return r, nil
}

// DocumentID 按输入位置编号
func DocumentID(i int) string {
	return fmt.Sprintf("wine-%05d", i)
}

// BuildDocuments 并发渲染，输出顺序与输入一致；失败的记录跳过
func BuildDocuments(ctx context.Context, records []wine.Record, workers int) []chromem.Document {
	if workers < 1 {
		workers = 1
	}

	built := make([]*chromem.Document, len(records))
	p := pool.New().WithMaxGoroutines(workers)
	for i, r := range records {
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			doc, err := BuildDocument(DocumentID(i), r)
			if err != nil {
				slog.Warn("skip wine document", "index", i, "name", r.NameKo, "err", err)
				return
			}
			built[i] = &doc
		})
	}
	p.Wait()

	docs := make([]chromem.Document, 0, len(records))
	for _, d := range built {
		if d != nil {
			docs = append(docs, *d)
		}
	}
	slog.Debug("wine documents built", "records", len(records), "documents", len(docs))
	return docs
}
