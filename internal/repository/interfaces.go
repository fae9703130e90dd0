package repository

import (
	"context"

	"github.com/dom/task-tracker/internal/domain"
	"github.com/google/uuid"
)

// UserRepository is the credential store. Emails are compared in their
// normalized form; Create fails with domain.ErrConflict on a duplicate.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// TaskRepository stores tasks. Every read and write is keyed by the owner
// as well as the task ID; a task owned by someone else is reported as
// domain.ErrNotFound exactly like a missing one.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)
	GetByOwner(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, changes domain.TaskChanges) (*domain.Task, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Repositories struct {
	User UserRepository
	Task TaskRepository
	DB   Pinger
}
