package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/philippgille/chromem-go"

	"github.com/liao/sommelier/internal/ai"
	"github.com/liao/sommelier/internal/cache"
	"github.com/liao/sommelier/internal/catalog"
	"github.com/liao/sommelier/internal/chat"
	"github.com/liao/sommelier/internal/config"
	"github.com/liao/sommelier/internal/persona"
	"github.com/liao/sommelier/internal/rag"
	"github.com/liao/sommelier/internal/recommend"
	"github.com/liao/sommelier/internal/server"
	"github.com/liao/sommelier/internal/wine"
)

// Index 可检索且能报告状态的向量索引
type Index interface {
	rag.Searcher
	Ensure(ctx context.Context) error
	Count() int
}

var (
	_ Index = (*rag.Index)(nil)
	_ Index = rag.UnavailableIndex{}
)

// Container 启动时组装一次，之后以引用传给各处理器
type Container struct {
	Config   *config.Config
	Catalog  *catalog.Catalog
	Index    Index
	Pipeline *rag.Pipeline
	Scorer   *recommend.Scorer
	Chat     *chat.Service
	Cache    *cache.ReplyCache

	closers []func()
}

// Build 组装全部依赖，出错时按逆序释放已创建的资源
func Build(ctx context.Context, cfg *config.Config) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	c := &Container{Config: cfg}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	// 目录
	cat, closeSource, err := OpenCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, closeSource)
	c.Catalog = cat

	// 向量索引，缺少凭据时降级为不可用索引
	idx, err := OpenIndex(ctx, cfg, func(context.Context) ([]wine.Record, error) {
		return cat.All(), nil
	})
	if err != nil {
		return nil, err
	}
	if err := idx.Ensure(ctx); err != nil {
		if _, unavailable := idx.(rag.UnavailableIndex); !unavailable {
			return nil, fmt.Errorf("prepare wine index: %w", err)
		}
		slog.Warn("wine index unavailable, index endpoints will return 503", "error", err)
	}
	c.Index = idx

	// 回复生成
	gen, err := NewGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// 缓存可选
	var replyCache chat.Cache
	if cfg.Redis.Addr != "" {
		rc, err := cache.New(ctx, cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			slog.Warn("redis unavailable, reply cache disabled", "error", err)
		} else {
			c.Cache = rc
			replyCache = rc
			c.closers = append(c.closers, func() { _ = rc.Close() })
		}
	}

	p := persona.Default()
	if cfg.Persona.File != "" {
		loaded, err := persona.LoadFromFile(cfg.Persona.File)
		if err != nil {
			slog.Warn("load persona failed, using default", "error", err)
		} else {
			p = loaded
		}
	}

	c.Pipeline = rag.NewPipeline(idx, cfg.RAG.Candidates)
	c.Scorer = recommend.NewScorer(cat)
	c.Chat = chat.NewService(c.Pipeline, gen, p, replyCache, chat.Options{
		MaxResults:      cfg.Chat.MaxResults,
		GenerateReplies: cfg.Chat.GenerateReplies,
	})

	slog.Info("container ready",
		"wines", cat.Len(),
		"indexed", idx.Count(),
		"generator", gen != nil,
		"cache", c.Cache != nil,
	)
	return c, nil
}

// Handler 构建 HTTP 处理链
func (c *Container) Handler() http.Handler {
	var replyCache chat.Cache
	if c.Cache != nil {
		replyCache = c.Cache
	}
	h := server.NewHandler(server.Deps{
		Catalog:     c.Catalog,
		Chat:        c.Chat,
		Recommender: c.Pipeline,
		Scorer:      c.Scorer,
		Index:       c.Index,
		Cache:       replyCache,
	}, server.Config{
		RequestTimeout: c.Config.Server.RequestTimeout,
		TestResults:    c.Config.RAG.TestResults,
		DefaultCount:   c.Config.Recommend.DefaultCount,
	})
	limiter := server.NewIPRateLimiter(c.Config.Server.RateLimitRPS, c.Config.Server.RateLimitBurst)
	return server.NewServeMux(h, limiter, c.Config.Server.AllowedOrigins)
}

// Close 逆序释放资源
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// OpenCatalog 按配置选择 CSV 或 PostgreSQL 并加载目录
func OpenCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, func(), error) {
	var (
		src     catalog.Source
		closeFn = func() {}
	)
	switch cfg.Catalog.Source {
	case "postgres":
		pg, err := catalog.OpenPostgres(ctx, cfg.Catalog.DatabaseURL, cfg.Catalog.Table)
		if err != nil {
			return nil, nil, err
		}
		src = pg
		closeFn = func() { _ = pg.Close() }
	default:
		src = catalog.CSVSource{Path: cfg.Catalog.CSVPath}
	}

	cat, err := catalog.Load(ctx, src)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return cat, closeFn, nil
}

// OpenIndex 打开持久化索引，embedding 凭据缺失时返回 UnavailableIndex
func OpenIndex(ctx context.Context, cfg *config.Config, records rag.RecordsFunc) (Index, error) {
	if cfg.EmbeddingAPIKey() == "" {
		reason := fmt.Sprintf("%s API key is empty", cfg.Embedding.Provider)
		return rag.UnavailableIndex{Reason: reason}, nil
	}

	embed, err := NewEmbedFunc(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := rag.NewStore(cfg.RAG.VectorsDir, cfg.RAG.Collection, embed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", wine.ErrIndexBuild, err)
	}
	return rag.NewIndex(store, records, cfg.RAG.Workers), nil
}

// NewEmbedFunc 按 embedding.provider 选择提供方
func NewEmbedFunc(ctx context.Context, cfg *config.Config) (chromem.EmbeddingFunc, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		client := ai.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel, cfg.OpenAI.EmbeddingModel)
		return client.EmbedFunc(), nil
	default:
		client, err := ai.NewGeminiClient(ctx, geminiOptions(cfg))
		if err != nil {
			return nil, err
		}
		return client.EmbedFunc(), nil
	}
}

// NewGenerator Gemini 为主、OpenAI 为备；都没有凭据时返回 nil
func NewGenerator(ctx context.Context, cfg *config.Config) (ai.Generator, error) {
	var gens []ai.Generator
	if cfg.Gemini.APIKey != "" {
		g, err := ai.NewGeminiClient(ctx, geminiOptions(cfg))
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	if cfg.OpenAI.APIKey != "" {
		gens = append(gens, ai.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel, cfg.OpenAI.EmbeddingModel))
	}

	switch len(gens) {
	case 0:
		slog.Info("no generation credentials, template replies only")
		return nil, nil
	case 1:
		return ai.NewFallbackGenerator(gens[0], nil), nil
	default:
		return ai.NewFallbackGenerator(gens[0], gens[1]), nil
	}
}

func geminiOptions(cfg *config.Config) ai.GeminiOptions {
	return ai.GeminiOptions{
		APIKey:          cfg.Gemini.APIKey,
		ChatModels:      cfg.Gemini.ChatModels,
		EmbeddingModel:  cfg.Gemini.EmbeddingModel,
		Temperature:     cfg.Gemini.Temperature,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
		RPMLimit:        cfg.Gemini.RPMLimit,
	}
}
