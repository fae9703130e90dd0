package service

import (
	"github.com/dom/task-tracker/internal/auth"
	"github.com/dom/task-tracker/internal/config"
	"github.com/dom/task-tracker/internal/repository"
)

type Services struct {
	Auth *AuthService
	Task *TaskService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, publisher TaskEventPublisher) (*Services, error) {
	hasher, err := auth.NewPasswordHasher(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL())

	return &Services{
		Auth: NewAuthService(repos.User, hasher, tokens, cfg.VerifyUserExists),
		Task: NewTaskService(repos.Task, publisher),
	}, nil
}
