package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Joseph-VJ/houlnd-realty/pkg/logger"
)

// RequestLogger stores a request-scoped logger, enriched with the
// correlation id and trace/span ids, in the request context. Mount it after
// RequestLogging and Tracing. Authentication middleware later re-derives the
// logger once the user is known.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
