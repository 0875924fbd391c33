package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestGo_CountsOutcomes(t *testing.T) {
	registry := NewRegistry(newNoopLogger())

	registry.Go(context.Background(), "ok-1", func(ctx context.Context) error { return nil })
	registry.Go(context.Background(), "ok-2", func(ctx context.Context) error { return nil })
	registry.Go(context.Background(), "bad", func(ctx context.Context) error { return errors.New("boom") })
	registry.Wait()

	stats := registry.Stats()
	assert.Equal(t, 0, stats.Active)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 1, stats.Failed)
}

func TestGo_FailureDoesNotStopOtherTasks(t *testing.T) {
	registry := NewRegistry(newNoopLogger())

	var ran atomic.Int32
	registry.Go(context.Background(), "bad", func(ctx context.Context) error { return errors.New("boom") })
	for i := 0; i < 5; i++ {
		registry.Go(context.Background(), "ok", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
	}
	registry.Wait()

	assert.Equal(t, int32(5), ran.Load())
	assert.Equal(t, 5, registry.Stats().Completed)
}

func TestGo_ContextIsPassedThrough(t *testing.T) {
	registry := NewRegistry(newNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	registry.Go(ctx, "canceled", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})
	registry.Wait()

	assert.Equal(t, 1, registry.Stats().Failed)
}

func TestWait_BlocksUntilTasksFinish(t *testing.T) {
	registry := NewRegistry(newNoopLogger())

	var done atomic.Bool
	registry.Go(context.Background(), "slow", func(ctx context.Context) error {
		time.Sleep(10 * time.Millisecond)
		done.Store(true)
		return nil
	})
	registry.Wait()

	assert.True(t, done.Load())
}
