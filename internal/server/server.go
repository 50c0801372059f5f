package server

import (
	"net/http"
)

// NewServeMux 注册路由并套上中间件
func NewServeMux(h *Handler, rateLimiter *IPRateLimiter, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /wines", h.ListWines)
	mux.HandleFunc("GET /wines/search/{query}", h.SearchWines)
	mux.HandleFunc("POST /chat/ask", h.Ask)
	mux.HandleFunc("POST /recommendations/test", h.TestRecommendations)
	mux.HandleFunc("POST /recommendations/score", h.ScoreRecommendations)

	// 由外到内：Recovery → RequestID → CORS → Logging → 限流
	var handler http.Handler = mux
	handler = rateLimiter.Middleware(handler)
	handler = Logging(handler)
	handler = CORS(allowedOrigins)(handler)
	handler = RequestID(handler)
	handler = Recovery(handler)

	return handler
}
