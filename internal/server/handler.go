package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/liao/sommelier/internal/cache"
	"github.com/liao/sommelier/internal/chat"
	"github.com/liao/sommelier/internal/recommend"
	"github.com/liao/sommelier/internal/wine"
)

// Catalog 只读目录
type Catalog interface {
	All() []wine.Record
	Search(query string) []wine.Record
	Len() int
}

// Asker 对话服务
type Asker interface {
	Ask(ctx context.Context, req chat.Request) (chat.Reply, error)
}

// Recommender 检索管道
type Recommender interface {
	Recommend(ctx context.Context, query string, profile *wine.TasteProfile, maxResults int) ([]wine.Record, error)
}

// Scorer 本地打分
type Scorer interface {
	Score(profile wine.TasteProfile, n int) []recommend.Scored
}

// IndexStatus 健康检查用
type IndexStatus interface {
	Count() int
}

type Config struct {
	RequestTimeout time.Duration
	TestResults    int
	DefaultCount   int
}

type Handler struct {
	catalog     Catalog
	chat        Asker
	recommender Recommender
	scorer      Scorer
	index       IndexStatus
	cache       chat.Cache
	cfg         Config
}

type Deps struct {
	Catalog     Catalog
	Chat        Asker
	Recommender Recommender
	Scorer      Scorer
	Index       IndexStatus
	Cache       chat.Cache
}

func NewHandler(d Deps, cfg Config) *Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.TestResults <= 0 {
		cfg.TestResults = 4
	}
	if cfg.DefaultCount <= 0 {
		cfg.DefaultCount = recommend.DefaultCount
	}
	return &Handler{
		catalog:     d.Catalog,
		chat:        d.Chat,
		recommender: d.Recommender,
		scorer:      d.Scorer,
		index:       d.Index,
		cache:       d.Cache,
		cfg:         cfg,
	}
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Wine Recommendation API"})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok", "wines": h.catalog.Len()}
	if h.index != nil {
		resp["indexed"] = h.index.Count()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListWines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.All())
}

func (h *Handler) SearchWines(w http.ResponseWriter, r *http.Request) {
	query := r.PathValue("query")
	found := h.catalog.Search(query)
	if len(found) == 0 {
		respondError(w, r, NewNotFoundError("no wines match "+strconv.Quote(query)))
		return
	}
	writeJSON(w, http.StatusOK, found)
}

type ChatResponse struct {
	Response string `json:"response"`
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	reply, err := h.chat.Ask(ctx, req.toChat())
	if err != nil {
		respondError(w, r, err)
		return
	}
	encoded, err := reply.Encode()
	if err != nil {
		respondError(w, r, err)
		return
	}

	slog.InfoContext(ctx, "chat answered",
		"type", reply.Type,
		"wines", len(reply.Wines),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, ChatResponse{Response: encoded})
}

type TestResponse struct {
	Status          string            `json:"status"`
	Preferences     wine.TasteProfile `json:"preferences"`
	Recommendations []wine.Record     `json:"recommendations"`
}

// TestRecommendations 只用口味档案驱动检索管道
func (h *Handler) TestRecommendations(w http.ResponseWriter, r *http.Request) {
	profile, err := decodeProfile(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := requirePreferences(profile); err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	key := cache.Key("test", profile)
	var cached TestResponse
	if hit, err := h.cacheGet(ctx, key, &cached); err == nil && hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	wines, err := h.recommender.Recommend(ctx, "", &profile, h.cfg.TestResults)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := TestResponse{Status: "success", Preferences: profile, Recommendations: wines}
	h.cacheSet(ctx, key, resp)
	writeJSON(w, http.StatusOK, resp)
}

type ScoreResponse struct {
	Status          string             `json:"status"`
	Preferences     wine.TasteProfile  `json:"preferences"`
	Recommendations []recommend.Scored `json:"recommendations"`
}

// ScoreRecommendations 本地口味向量打分，不依赖向量索引
func (h *Handler) ScoreRecommendations(w http.ResponseWriter, r *http.Request) {
	n := h.cfg.DefaultCount
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			respondError(w, r, NewValidationError("n must be a positive integer"))
			return
		}
		n = v
	}

	profile, err := decodeProfile(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	scored := h.scorer.Score(profile, n)
	if scored == nil {
		scored = []recommend.Scored{}
	}
	writeJSON(w, http.StatusOK, ScoreResponse{Status: "success", Preferences: profile, Recommendations: scored})
}

func (h *Handler) cacheGet(ctx context.Context, key string, dest any) (bool, error) {
	if h.cache == nil {
		return false, nil
	}
	hit, err := h.cache.Get(ctx, key, dest)
	if err != nil {
		slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}
	return hit, err
}

func (h *Handler) cacheSet(ctx context.Context, key string, v any) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(ctx, key, v); err != nil {
		slog.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}
