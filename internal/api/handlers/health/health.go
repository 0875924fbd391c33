// Package health отдает состояние процесса и счетчики фоновых задач.
package health

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/abakumova/marathon-bot/internal/api/response"
	"github.com/abakumova/marathon-bot/internal/tasks"
)

// Handler обрабатывает запросы /health.
type Handler struct {
	log   *slog.Logger
	tasks *tasks.Registry
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, registry *tasks.Registry) *Handler {
	return &Handler{
		log:   log,
		tasks: registry,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats := h.tasks.Stats()
	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status":          "ok",
		"tasks_active":    stats.Active,
		"tasks_completed": stats.Completed,
		"tasks_failed":    stats.Failed,
	}))
}
