package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/baharkarakas/point-service/internal/api/httpx"
)

// Recover turns a handler panic into a 500. http.ErrAbortHandler is re-raised
// so the server can drop the connection as intended.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("panic recovered",
				"err", rec,
				"request_id", RequestIDFrom(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
		}()
		next.ServeHTTP(w, r)
	})
}
