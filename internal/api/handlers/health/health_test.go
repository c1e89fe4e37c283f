package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"recipe-extractor/internal/core/batch"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeQueue struct{}

func (fakeQueue) Status() *batch.Status {
	return &batch.Status{QueueLength: 3, ProcessedCount: 7, MaxQueueSize: 100, Workers: 4}
}

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthCheck(t *testing.T) {
	w := serve(NewHandler("1.2.3", "memory", nil, fakeQueue{}), "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "memory", resp.Store)
	require.NotNil(t, resp.Queue)
	assert.Equal(t, 7, resp.Queue.ProcessedCount)
	assert.Contains(t, resp.Runtime, "goroutines")
}

func TestHealthCheckWithoutQueue(t *testing.T) {
	w := serve(NewHandler("1.0.0", "redis", nil, nil), "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"queue"`)
}

func TestReadinessCheck(t *testing.T) {
	w := serve(NewHandler("1.0.0", "postgres", fakePinger{}, nil), "/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ready")

	w = serve(NewHandler("1.0.0", "postgres", fakePinger{err: errors.New("connection refused")}, nil), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestLivenessCheck(t *testing.T) {
	w := serve(NewHandler("1.0.0", "memory", fakePinger{err: errors.New("down")}, nil), "/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alive")
}
