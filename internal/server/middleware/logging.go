package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/freema/convcom/internal/logger"
	"github.com/freema/convcom/internal/tracing"
)

// RequestLogger logs each HTTP request and stores a request-scoped logger
// (carrying request_id and trace_id) in the context.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		log := slog.Default().With("request_id", chimw.GetReqID(r.Context()))
		if traceID := tracing.TraceIDFromContext(r.Context()); traceID != "" {
			log = log.With("trace_id", traceID)
		}
		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), log)))

		level := slog.LevelInfo
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", ww.BytesWritten(),
		)
	})
}
