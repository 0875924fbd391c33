// Package api собирает служебный HTTP-роутер: /health и /metrics.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abakumova/marathon-bot/internal/api/handlers/health"
	"github.com/abakumova/marathon-bot/internal/tasks"
)

// NewRouter создает роутер служебных эндпоинтов.
func NewRouter(log *slog.Logger, registry *tasks.Registry) http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/health", health.New(log, registry))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}
