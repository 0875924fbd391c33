package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abakumova/marathon-bot/internal/tasks"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestServeHTTP_ReportsTaskCounters(t *testing.T) {
	registry := tasks.NewRegistry(newNoopLogger())
	registry.Go(context.Background(), "ok", func(ctx context.Context) error { return nil })
	registry.Go(context.Background(), "bad", func(ctx context.Context) error { return errors.New("boom") })
	registry.Wait()

	handler := New(newNoopLogger(), registry)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string `json:"status"`
		Data   struct {
			Status         string `json:"status"`
			TasksActive    int    `json:"tasks_active"`
			TasksCompleted int    `json:"tasks_completed"`
			TasksFailed    int    `json:"tasks_failed"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "OK", body.Status)
	assert.Equal(t, "ok", body.Data.Status)
	assert.Equal(t, 0, body.Data.TasksActive)
	assert.Equal(t, 1, body.Data.TasksCompleted)
	assert.Equal(t, 1, body.Data.TasksFailed)
}
