package rag

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/liao/sommelier/internal/wine"
)

// Searcher 相似度检索，返回按相似度排序的目录记录
type Searcher interface {
	Search(ctx context.Context, text string, k int) ([]wine.Record, error)
}

// RecordsFunc 建索引时才调用，索引已持久化时不会读取目录
type RecordsFunc func(ctx context.Context) ([]wine.Record, error)

// Index 管理"已有则加载、没有则构建"的向量索引
type Index struct {
	store   *Store
	records RecordsFunc
	workers int

	group singleflight.Group
	ready atomic.Bool
}

func NewIndex(store *Store, records RecordsFunc, workers int) *Index {
	return &Index{store: store, records: records, workers: workers}
}

// Ensure 保证索引可用，并发调用共享同一次构建
func (i *Index) Ensure(ctx context.Context) error {
	if i.ready.Load() {
		return nil
	}
	_, err, shared := i.group.Do("build", func() (any, error) {
		if i.ready.Load() {
			return nil, nil
		}
		if err := i.build(ctx); err != nil {
			return nil, err
		}
		i.ready.Store(true)
		return nil, nil
	})
	if shared {
		slog.Debug("joined in-flight index build")
	}
	return err
}

func (i *Index) build(ctx context.Context) error {
	if n := i.store.Count(); n > 0 {
		slog.Info("using persisted wine index", "documents", n)
		return nil
	}

	records, err := i.records(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		slog.Warn("catalog is empty, index left empty")
		return nil
	}

	docs := BuildDocuments(ctx, records, i.workers)
	if len(docs) == 0 {
		return fmt.Errorf("%w: no documents from %d records", wine.ErrIndexBuild, len(records))
	}

	slog.Info("building wine index", "documents", len(docs))
	if err := i.store.AddDocuments(ctx, docs); err != nil {
		if rerr := i.store.Reset(); rerr != nil {
			slog.Error("reset partial index failed", "err", rerr)
		}
		return fmt.Errorf("%w: add documents: %w", wine.ErrIndexBuild, err)
	}
	slog.Info("wine index built", "documents", i.store.Count())
	return nil
}

// Search 检索候选并还原记录，元数据损坏的结果跳过
func (i *Index) Search(ctx context.Context, text string, k int) ([]wine.Record, error) {
	if err := i.Ensure(ctx); err != nil {
		return nil, err
	}
	results, err := i.store.Query(ctx, text, k)
	if err != nil {
		return nil, err
	}

	records := make([]wine.Record, 0, len(results))
	for _, r := range results {
		rec, err := RecordFromMetadata(r.Metadata)
		if err != nil {
			slog.Warn("skip undecodable search result", "id", r.ID, "err", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (i *Index) Count() int {
	return i.store.Count()
}

// UnavailableIndex 缺少 embedding 凭据时使用，所有操作都返回 ErrIndexUnavailable
type UnavailableIndex struct {
	Reason string
}

func (u UnavailableIndex) Ensure(context.Context) error {
	return u.err()
}

func (u UnavailableIndex) Search(context.Context, string, int) ([]wine.Record, error) {
	return nil, u.err()
}

func (u UnavailableIndex) Count() int { return 0 }

func (u UnavailableIndex) err() error {
	if u.Reason == "" {
		return wine.ErrIndexUnavailable
	}
	return fmt.Errorf("%w (%s)", wine.ErrIndexUnavailable, u.Reason)
}
