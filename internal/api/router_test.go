package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recipe-extractor/internal/core/extract"
	"recipe-extractor/internal/core/ingest"
	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		App:         config.AppConfig{Version: "test", Debug: true},
		Server:      config.ServerConfig{RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 10},
		Ingest:      config.IngestConfig{Store: config.StoreMemory},
		RateLimit:   config.RateLimitConfig{Enabled: true, Requests: 3, Window: time.Hour},
		DedupWindow: time.Millisecond,
	}
}

func testDeps() Deps {
	return Deps{
		Extractor: extract.New(),
		Ingest:    ingest.NewService(ingest.NewMemoryStore(), ingest.Config{}),
		Metrics:   metrics.New(),
	}
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSetupRouterRequiresServices(t *testing.T) {
	_, err := SetupRouter(testConfig(), Deps{})
	assert.Error(t, err)
}

func TestRouterEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, err := SetupRouter(testConfig(), testDeps())
	require.NoError(t, err)

	w := send(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusOK, send(r, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusOK, send(r, http.MethodGet, "/live", "").Code)

	w = send(r, http.MethodPost, "/api/v1/recipe/amount", `{"amount":"2 cups"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unit_type":"volume"`)

	w = send(r, http.MethodPost, "/api/v1/recipe/extract-llm", `{"text":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = send(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recipe_extractor_http_requests_total")
	assert.Contains(t, w.Body.String(), `path="/api/v1/recipe/amount"`)
}

func TestRouterBodySizeLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, err := SetupRouter(testConfig(), testDeps())
	require.NoError(t, err)

	body := `{"text":"` + strings.Repeat("a", 2048) + `"}`
	w := send(r, http.MethodPost, "/api/v1/recipe/parse", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRouterRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, err := SetupRouter(testConfig(), testDeps())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		w := send(r, http.MethodPost, "/api/v1/recipe/amount", `{"amount":"`+strings.Repeat("1", i+1)+`"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := send(r, http.MethodPost, "/api/v1/recipe/amount", `{"amount":"9"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// 健康檢查不受限流影響
	assert.Equal(t, http.StatusOK, send(r, http.MethodGet, "/health", "").Code)
}
