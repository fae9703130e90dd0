package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dom/task-tracker/internal/domain"
	"github.com/dom/task-tracker/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrTaskNotFound  = fmt.Errorf("task %w", domain.ErrNotFound)
	ErrTitleRequired = fmt.Errorf("%w: task title cannot be empty", domain.ErrValidation)
)

// TaskEventPublisher is notified after a task change has been stored.
type TaskEventPublisher interface {
	PublishTaskEvent(event domain.TaskEvent)
}

type noopPublisher struct{}

func (noopPublisher) PublishTaskEvent(domain.TaskEvent) {}

// TaskService implements owner-scoped task CRUD. The owner always comes
// from the authenticated caller, never from request data.
type TaskService struct {
	taskRepo  repository.TaskRepository
	publisher TaskEventPublisher
	now       func() time.Time
}

func NewTaskService(taskRepo repository.TaskRepository, publisher TaskEventPublisher) *TaskService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &TaskService{
		taskRepo:  taskRepo,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

type CreateTaskInput struct {
	Title       string
	Description *string
}

type UpdateTaskInput struct {
	Title       string
	Description *string
}

func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, input CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	now := s.now()
	task := &domain.Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.publisher.PublishTaskEvent(domain.TaskEvent{
		Type:    domain.TaskCreated,
		OwnerID: ownerID,
		TaskID:  task.ID,
		Task:    task,
	})
	return task, nil
}

func (s *TaskService) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskRepo.GetByOwner(ctx, ownerID, taskID)
	if err != nil {
		return nil, notFoundOr(err, "get task")
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, ownerID, taskID uuid.UUID, input UpdateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	task, err := s.taskRepo.Update(ctx, ownerID, taskID, domain.TaskChanges{
		Title:       title,
		Description: input.Description,
		UpdatedAt:   s.now(),
	})
	if err != nil {
		return nil, notFoundOr(err, "update task")
	}

	s.publisher.PublishTaskEvent(domain.TaskEvent{
		Type:    domain.TaskUpdated,
		OwnerID: ownerID,
		TaskID:  task.ID,
		Task:    task,
	})
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	if err := s.taskRepo.Delete(ctx, ownerID, taskID); err != nil {
		return notFoundOr(err, "delete task")
	}

	s.publisher.PublishTaskEvent(domain.TaskEvent{
		Type:    domain.TaskDeleted,
		OwnerID: ownerID,
		TaskID:  taskID,
	})
	return nil
}

// notFoundOr collapses every not-found variant into ErrTaskNotFound so a
// foreign task and a missing one produce the same error value.
func notFoundOr(err error, op string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return ErrTaskNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
