// Package tasks реализует реестр фоновых задач. Вместо "запустил и забыл"
// каждая задача регистрируется под именем, а ее завершение и исход
// наблюдаемы: реестр считает активные, успешно завершенные и упавшие
// задачи и позволяет дождаться их всех.
package tasks

import (
	"context"
	"log/slog"
	"sync"

	"github.com/abakumova/marathon-bot/internal/lib/sl"
)

// Stats снимок счетчиков реестра.
type Stats struct {
	Active    int
	Completed int
	Failed    int
}

// Registry реестр фоновых задач.
type Registry struct {
	log *slog.Logger

	wg sync.WaitGroup

	mu        sync.Mutex
	active    int
	completed int
	failed    int
}

// NewRegistry создает новый реестр задач.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{log: log}
}

// Go запускает задачу в отдельной горутине. Ошибка задачи логируется
// и учитывается в счетчиках, но не прерывает остальные задачи: все
// задачи реестра независимы.
func (r *Registry) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	r.mu.Lock()
	r.active++
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		err := fn(ctx)

		r.mu.Lock()
		r.active--
		if err != nil {
			r.failed++
		} else {
			r.completed++
		}
		r.mu.Unlock()

		if err != nil {
			r.log.Error("task failed", slog.String("task", name), sl.Err(err))
			return
		}
		r.log.Debug("task completed", slog.String("task", name))
	}()
}

// Wait блокируется до завершения всех запущенных задач.
func (r *Registry) Wait() {
	r.wg.Wait()
}

// Stats возвращает текущие счетчики задач.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{Active: r.active, Completed: r.completed, Failed: r.failed}
}
