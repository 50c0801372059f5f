package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/liao/sommelier/internal/wine"
)

// DefaultCandidates 过采样数量，给过滤留余量
const DefaultCandidates = 10

type Pipeline struct {
	searcher   Searcher
	candidates int
	matchType  TypeMatcher
}

func NewPipeline(searcher Searcher, candidates int) *Pipeline {
	if candidates <= 0 {
		candidates = DefaultCandidates
	}
	return &Pipeline{
		searcher:   searcher,
		candidates: candidates,
		matchType:  ContainsAny,
	}
}

// Recommend 检索、去重、过滤，按相似度顺序返回至多 maxResults 条
// 没有结果时返回空切片；检索错误与超时原样返回
func (p *Pipeline) Recommend(ctx context.Context, query string, profile *wine.TasteProfile, maxResults int) ([]wine.Record, error) {
	text := query
	if profile != nil {
		block := profile.QueryBlock()
		switch {
		case block == "":
		case strings.TrimSpace(query) == "":
			text = block
		default:
			text = strings.TrimRight(query, "\n") + "\n\n" + block
		}
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: neither a message nor taste preferences were given", wine.ErrEmptyQuery)
	}

	candidates, err := p.searcher.Search(ctx, text, p.candidates)
	if err != nil {
		return nil, err
	}

	if maxResults < 0 {
		maxResults = 0
	}
	accepted := make([]wine.Record, 0, maxResults)
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if len(accepted) >= maxResults {
			break
		}
		if c.NameKo == "" {
			continue
		}
		if _, dup := seen[c.NameKo]; dup {
			continue
		}
		// 被过滤掉的同名酒款不占位，后面同名且符合条件的仍可入选
		if profile != nil && !p.accepts(c, profile) {
			continue
		}
		seen[c.NameKo] = struct{}{}
		accepted = append(accepted, c)
	}

	slog.DebugContext(ctx, "wine candidates filtered", "query", query, "candidates", len(candidates), "accepted", len(accepted))
	return accepted, nil
}

func (p *Pipeline) accepts(c wine.Record, profile *wine.TasteProfile) bool {
	if !p.matchType(c.WineType, profile.PreferredTypes) {
		return false
	}
	if profile.PriceRange != nil && !WithinTolerance(c, *profile.PriceRange, PriceTolerance) {
		return false
	}
	return !profile.Dislikes(c)
}
