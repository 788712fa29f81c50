package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viepratiqueservice-arch/Visela/internal/logger"
	"github.com/viepratiqueservice-arch/Visela/internal/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// ============================================
// Observe Tests
// ============================================

func TestObserve_TagsAndLogsRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := metrics.New("visela")

	var scoped *zap.Logger
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		scoped = logger.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/orders/VSL-1", nil)
	rec := httptest.NewRecorder()
	Observe(zap.New(core), m)(mux).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.NotNil(t, scoped)

	entries := logs.FilterMessage("request rejected").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/api/orders/VSL-1", fields["path"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, rec.Header().Get(RequestIDHeader), fields["request_id"])

	count, err := testutil.GatherAndCount(m.Registry(), "visela_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestObserve_KeepsIncomingRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()

	Observe(nil, nil)(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
}

// ============================================
// RateLimiter Tests
// ============================================

func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	frozen := time.Date(2023, time.October, 15, 18, 30, 0, 0, time.UTC)
	rl.now = func() time.Time { return frozen }
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "196.1.95.10:51000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_SeparateBucketsPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	frozen := time.Date(2023, time.October, 15, 18, 30, 0, 0, time.UTC)
	rl.now = func() time.Time { return frozen }
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, addr := range []string{"196.1.95.10:1", "196.1.95.11:1"} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, addr)
	}
}

func TestRateLimiter_SweepsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2023, time.October, 15, 18, 30, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("196.1.95.10")
	now = now.Add(visitorIdle + time.Minute)
	rl.getLimiter("196.1.95.11")

	assert.Len(t, rl.visitors, 1)
	assert.Contains(t, rl.visitors, "196.1.95.11")
}
