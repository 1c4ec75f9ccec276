package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// responseWriter wraps http.ResponseWriter to capture status and size.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// RequestLog logs each request with request_id, method, path, status, duration, and size.
// 5xx responses log at error level and 4xx at warn. The user id is read after the
// handler runs, so it is present for authenticated routes.
func RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrap := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		holder := &callerHolder{}
		next.ServeHTTP(wrap, r.WithContext(context.WithValue(r.Context(), callerHolderKey, holder)))

		level := slog.LevelInfo
		switch {
		case wrap.status >= 500:
			level = slog.LevelError
		case wrap.status >= 400:
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "request",
			"request_id", chimw.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrap.status,
			"user_id", holder.userID,
			"duration_ms", time.Since(start).Milliseconds(),
			"size", wrap.size)
	})
}

const callerHolderKey key = "caller_holder"

// callerHolder lets the JWT middleware, which runs further down the chain,
// report the user id back to RequestLog.
type callerHolder struct {
	userID int
}

func noteCaller(ctx context.Context, userID int) {
	if h, ok := ctx.Value(callerHolderKey).(*callerHolder); ok {
		h.userID = userID
	}
}
