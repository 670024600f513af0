package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"society/admin-service/internal/metrics"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs one line per request and records request metrics.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			writer := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(writer, r)
			duration := time.Since(start)

			metrics.RequestsTotal.WithLabelValues(r.Method, strconv.Itoa(writer.status)).Inc()
			metrics.RequestDuration.WithLabelValues(r.Method).Observe(duration.Seconds())

			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", writer.status,
				"duration_ms", duration.Milliseconds(),
				"tenant", r.Header.Get("X-Tenant-ID"),
				"request_id", middleware.GetReqID(r.Context()),
			}
			if writer.status >= http.StatusInternalServerError {
				logger.Errorw("request", fields...)
				return
			}
			logger.Infow("request", fields...)
		})
	}
}
