package memory

import (
	"context"

	"github.com/dom/task-tracker/internal/repository"
)

type pinger struct{}

func (pinger) Ping(ctx context.Context) error {
	return ctx.Err()
}

func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		User: NewUserRepository(),
		Task: NewTaskRepository(),
		DB:   pinger{},
	}
}
