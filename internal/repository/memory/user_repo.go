// Package memory holds in-process repositories. They back the STORAGE=memory
// mode and the service and handler tests; data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dom/task-tracker/internal/domain"
	"github.com/google/uuid"
)

type userRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*domain.User
	byEmail map[string]uuid.UUID
}

func NewUserRepository() *userRepository {
	return &userRepository{
		byID:    make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	email := domain.NormalizeEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return fmt.Errorf("%w: email %s", domain.ErrConflict, email)
	}
	if _, exists := r.byID[user.ID]; exists {
		return fmt.Errorf("%w: user id %s", domain.ErrConflict, user.ID)
	}

	stored := *user
	stored.Email = email
	r.byID[stored.ID] = &stored
	r.byEmail[email] = stored.ID
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	c := *user
	return &c, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	c := *r.byID[id]
	return &c, nil
}
