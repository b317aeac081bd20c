package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recover converts panics into a 500 rendered by fallback.
func Recover(logger *slog.Logger, fallback http.HandlerFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				logger.ErrorContext(r.Context(), "panic recovered",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", recovered,
					"stack", string(debug.Stack()),
				)
				if fallback == nil {
					http.Error(w, "Something went wrong!", http.StatusInternalServerError)
					return
				}
				fallback(w, r)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
