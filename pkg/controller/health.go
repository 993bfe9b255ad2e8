package controller

import (
	"context"
	"net/http"
	"time"

	"domainscan/pkg/logger"

	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// HealthHandler answers 200 when ping succeeds and 503 otherwise.
func HealthHandler(ping func(ctx context.Context) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := ping(ctx); err != nil {
			logger.Warn(ctx, "health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unavailable\n"))

			return
		}

		_, _ = w.Write([]byte("ok\n"))
	})
}
