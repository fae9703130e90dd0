package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dom/task-tracker/internal/domain"
	"github.com/google/uuid"
)

type taskRepository struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*domain.Task
	order []uuid.UUID
}

func NewTaskRepository() *taskRepository {
	return &taskRepository{
		tasks: make(map[uuid.UUID]*domain.Task),
	}
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	return &c
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[task.ID]; exists {
		return fmt.Errorf("%w: task id %s", domain.ErrConflict, task.ID)
	}
	r.tasks[task.ID] = cloneTask(task)
	r.order = append(r.order, task.ID)
	return nil
}

func (r *taskRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]*domain.Task, 0)
	for _, id := range r.order {
		if t := r.tasks[id]; t.OwnerID == ownerID {
			tasks = append(tasks, cloneTask(t))
		}
	}
	return tasks, nil
}

// lookup must be called with r.mu held.
func (r *taskRepository) lookup(ownerID, id uuid.UUID) (*domain.Task, error) {
	t, ok := r.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

func (r *taskRepository) GetByOwner(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, err := r.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	return cloneTask(t), nil
}

func (r *taskRepository) Update(ctx context.Context, ownerID, id uuid.UUID, changes domain.TaskChanges) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}

	updated := cloneTask(t)
	updated.Title = changes.Title
	updated.Description = nil
	if changes.Description != nil {
		d := *changes.Description
		updated.Description = &d
	}
	updated.UpdatedAt = changes.UpdatedAt

	r.tasks[id] = updated
	return cloneTask(updated), nil
}

func (r *taskRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.lookup(ownerID, id); err != nil {
		return err
	}

	delete(r.tasks, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
