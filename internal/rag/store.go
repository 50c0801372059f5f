package rag

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/philippgille/chromem-go"
)

type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	embedFunc  chromem.EmbeddingFunc
}

// NewStore 创建或加载向量存储，目录已存在时直接复用
func NewStore(vectorsDir, collection string, embedFunc chromem.EmbeddingFunc) (*Store, error) {
	db, err := chromem.NewPersistentDB(vectorsDir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}

	col, err := db.GetOrCreateCollection(collection, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("get/create collection: %w", err)
	}

	slog.Info("vector store loaded", "dir", vectorsDir, "collection", collection, "count", col.Count())
	return &Store{db: db, collection: col, name: collection, embedFunc: embedFunc}, nil
}

// Query 返回最相似的 k 个文档，最相似的在前
func (s *Store) Query(ctx context.Context, text string, k int) ([]Result, error) {
	count := s.collection.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	docs, err := s.collection.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	results := make([]Result, 0, len(docs))
	for _, d := range docs {
		results = append(results, Result{
			ID:         d.ID,
			Content:    d.Content,
			Similarity: d.Similarity,
			Metadata:   d.Metadata,
		})
	}
	return results, nil
}

// AddDocuments 批量写入文档
func (s *Store) AddDocuments(ctx context.Context, docs []chromem.Document) error {
	return s.collection.AddDocuments(ctx, docs, runtime.NumCPU())
}

// Reset 丢弃集合并重建为空集合，用于清理写了一半的索引
func (s *Store) Reset() error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	col, err := s.db.GetOrCreateCollection(s.name, nil, s.embedFunc)
	if err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	s.collection = col
	return nil
}

// Count 返回文档数量
func (s *Store) Count() int {
	return s.collection.Count()
}

type Result struct {
	ID         string
	Content    string
	Similarity float32
	Metadata   map[string]string
}
