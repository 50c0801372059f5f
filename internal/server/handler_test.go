package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liao/sommelier/internal/catalog"
	"github.com/liao/sommelier/internal/chat"
	"github.com/liao/sommelier/internal/rag"
	"github.com/liao/sommelier/internal/recommend"
	"github.com/liao/sommelier/internal/wine"
)

// --- Mocks ---

type mockRecommender struct {
	wines []wine.Record
	err   error
	block bool

	profile *wine.TasteProfile
	n       int
}

func (m *mockRecommender) Recommend(ctx context.Context, _ string, p *wine.TasteProfile, n int) ([]wine.Record, error) {
	m.profile = p
	m.n = n
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.wines, m.err
}

func testCatalog() *catalog.Catalog {
	return catalog.New([]wine.Record{
		{NameKo: "몬테스 알파", NameEn: "Montes Alpha", Winery: "Montes", WineType: "레드", Price: wine.IntPtr(39000), Sweetness: 1, Acidity: 3, Body: 4, Tannin: 4},
		{NameKo: "클라우디 베이", NameEn: "Cloudy Bay", Winery: "Cloudy Bay", WineType: "화이트", Price: wine.IntPtr(52000), Sweetness: 1, Acidity: 5, Body: 2, Tannin: 1},
	})
}

func newTestServer(rec Recommender, timeout time.Duration) http.Handler {
	cat := testCatalog()
	h := NewHandler(Deps{
		Catalog:     cat,
		Chat:        chat.NewService(rec, nil, nil, nil, chat.Options{MaxResults: 2}),
		Recommender: rec,
		Scorer:      recommend.NewScorer(cat),
	}, Config{RequestTimeout: timeout, TestResults: 4})
	return NewServeMux(h, NewIPRateLimiter(0, 0), []string{"http://localhost:3000"})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeReply(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	var reply map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Response), &reply))
	return reply
}

// --- Tests ---

func TestAsk_MissingCredential_Returns503(t *testing.T) {
	pipeline := rag.NewPipeline(rag.UnavailableIndex{Reason: "GEMINI_API_KEY is empty"}, 10)
	h := newTestServer(pipeline, time.Second)

	rec := do(t, h, http.MethodPost, "/chat/ask", `{"message":"레드 와인 추천해줘"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "index_unavailable", resp.Code)
	assert.Contains(t, resp.Error, "API key")
}

func TestAsk_NoMatches_Returns200NotFoundReply(t *testing.T) {
	h := newTestServer(&mockRecommender{wines: []wine.Record{}}, time.Second)

	rec := do(t, h, http.MethodPost, "/chat/ask", `{"message":"존재하지 않는 와인"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	reply := decodeReply(t, rec)
	assert.Equal(t, "recommendation", reply["type"])
	assert.Equal(t, chat.NotFoundText, reply["text"])
	assert.Equal(t, []any{}, reply["wines"])
}

func TestAsk_ReturnsRecommendation(t *testing.T) {
	mock := &mockRecommender{wines: testCatalog().All()[:1]}
	h := newTestServer(mock, time.Second)

	body := `{"message":"스테이크","taste_profile":{"preferred_types":["레드"],"price_range":[10000,50000]}}`
	rec := do(t, h, http.MethodPost, "/chat/ask", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	reply := decodeReply(t, rec)
	assert.Equal(t, "recommendation", reply["type"])
	assert.Len(t, reply["wines"], 1)
	chars := reply["characteristics"].(map[string]any)
	assert.Equal(t, "무거움 (평균 4.0/5)", chars["바디"].(map[string]any)["summary"])
	require.NotNil(t, mock.profile)
	assert.Equal(t, []string{"레드"}, mock.profile.PreferredTypes)
	assert.Equal(t, 2, mock.n)
}

func TestAsk_Validation_Returns400(t *testing.T) {
	h := newTestServer(&mockRecommender{}, time.Second)

	cases := []string{
		``,
		`{"message":"   "}`,
		`{"message":"레드","taste_profile":{"preferred_body":9}}`,
		`{"message":"레드","taste_profile":{"price_range":[50000,10000]}}`,
		`not json`,
	}
	for _, body := range cases {
		rec := do(t, h, http.MethodPost, "/chat/ask", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestAsk_Timeout_Returns504(t *testing.T) {
	h := newTestServer(&mockRecommender{block: true}, 20*time.Millisecond)

	rec := do(t, h, http.MethodPost, "/chat/ask", `{"message":"레드"}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"timeout"`)
}

func TestSearchWines(t *testing.T) {
	h := newTestServer(&mockRecommender{}, time.Second)

	rec := do(t, h, http.MethodGet, "/wines/search/montes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var found []wine.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.Len(t, found, 1)
	assert.Equal(t, "몬테스 알파", found[0].NameKo)

	rec = do(t, h, http.MethodGet, "/wines/search/riesling", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"not_found"`)
}

func TestListWinesAndHealth(t *testing.T) {
	h := newTestServer(&mockRecommender{}, time.Second)

	rec := do(t, h, http.MethodGet, "/wines", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []wine.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	rec = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"wines":2`)

	rec = do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTestRecommendations(t *testing.T) {
	mock := &mockRecommender{wines: testCatalog().All()}
	h := newTestServer(mock, time.Second)

	rec := do(t, h, http.MethodPost, "/recommendations/test",
		`{"preferred_sweetness":2,"preferred_acidity":3,"preferred_body":4,"preferred_tannin":4,"preferred_types":["레드"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 2, *resp.Preferences.PreferredSweetness)
	assert.Len(t, resp.Recommendations, 2)
	assert.Equal(t, 4, mock.n)

	rec = do(t, h, http.MethodPost, "/recommendations/test", `{"preferred_tannin":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTestRecommendations_EmptyProfile_Returns400(t *testing.T) {
	mock := &mockRecommender{wines: testCatalog().All()}
	h := newTestServer(mock, time.Second)

	rec := do(t, h, http.MethodPost, "/recommendations/test", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "preferred_sweetness")
	assert.Contains(t, rec.Body.String(), `"code":"validation"`)
	assert.Equal(t, 0, mock.n, "recommender must not be called")
}

func TestEmptyQueryMapsToValidation(t *testing.T) {
	appErr := FromError(fmt.Errorf("recommend wines: %w", wine.ErrEmptyQuery))
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, ErrCatValidation, appErr.Category)
}

func TestScoreRecommendations(t *testing.T) {
	h := newTestServer(&mockRecommender{}, time.Second)

	rec := do(t, h, http.MethodPost, "/recommendations/score?n=1", `{"preferred_types":["화이트"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ScoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "클라우디 베이", resp.Recommendations[0].Wine.NameKo)

	rec = do(t, h, http.MethodPost, "/recommendations/score?n=abc", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/recommendations/score", `{"preferred_types":["로제"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recommendations":[]`)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(&mockRecommender{}, time.Second)

	req := httptest.NewRequest(http.MethodOptions, "/chat/ask", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/chat/ask", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	cat := testCatalog()
	h := NewHandler(Deps{Catalog: cat, Scorer: recommend.NewScorer(cat)}, Config{})
	srv := NewServeMux(h, NewIPRateLimiter(1, 1), nil)

	first := do(t, srv, http.MethodGet, "/wines", "")
	second := do(t, srv, http.MethodGet, "/wines", "")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRecoveryReturns500(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	rec := httptest.NewRecorder()
	Recovery(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
