package httpapi

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// requestLogger logs one line per finished request at INFO. The start of a
// request is only interesting when debugging, so it goes out at DEBUG.
func requestLogger(l *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			reqID := chimw.GetReqID(r.Context())
			l.Debug("request started", "req_id", reqID, "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)

			next.ServeHTTP(ww, r)

			l.Info("request complete",
				"req_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
			)
		})
	}
}

// recoverer logs panics as ERROR and answers with the generic 500 body so
// clients never see a bare status line.
func recoverer(l *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					reqID := chimw.GetReqID(r.Context())
					l.Error("panic", "req_id", reqID, "err", rec, "stack", string(debug.Stack()))
					writeErr(w, http.StatusInternalServerError, "Erro interno do servidor")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
