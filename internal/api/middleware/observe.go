package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/viepratiqueservice-arch/Visela/internal/logger"
	"github.com/viepratiqueservice-arch/Visela/internal/metrics"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Observe tags each request with an id, hands a request-scoped logger down
// the context, then logs and counts the response. Requests are counted by
// route pattern so path ids do not explode label cardinality.
func Observe(log *zap.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set(RequestIDHeader, requestID)

			reqLog := log.With(zap.String("request_id", requestID))
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			req := r.WithContext(logger.WithContext(r.Context(), reqLog))
			next.ServeHTTP(rec, req)

			elapsed := time.Since(start)
			route := req.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.ObserveHTTP(r.Method, route, rec.status, elapsed)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("latency", elapsed),
			}
			switch {
			case rec.status >= 500:
				reqLog.Error("request failed", fields...)
			case rec.status >= 400:
				reqLog.Warn("request rejected", fields...)
			default:
				reqLog.Info("request", fields...)
			}
		})
	}
}
