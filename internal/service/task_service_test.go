package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dom/task-tracker/internal/domain"
	"github.com/dom/task-tracker/internal/repository/memory"
	"github.com/dom/task-tracker/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestTaskService_Create(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	tests := []struct {
		name      string
		input     service.CreateTaskInput
		wantTitle string
		wantDesc  *string
		wantErr   error
	}{
		{
			name:      "title only",
			input:     service.CreateTaskInput{Title: "Write report"},
			wantTitle: "Write report",
		},
		{
			name:      "title and description",
			input:     service.CreateTaskInput{Title: "Buy milk", Description: strPtr("2%")},
			wantTitle: "Buy milk",
			wantDesc:  strPtr("2%"),
		},
		{
			name:      "title is trimmed",
			input:     service.CreateTaskInput{Title: "  padded  "},
			wantTitle: "padded",
		},
		{
			name:    "empty title",
			input:   service.CreateTaskInput{Title: ""},
			wantErr: service.ErrTitleRequired,
		},
		{
			name:    "whitespace title",
			input:   service.CreateTaskInput{Title: " \t\n"},
			wantErr: service.ErrTitleRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.NewTaskRepository()
			publisher := &recordingPublisher{}
			svc := service.NewTaskService(repo, publisher)

			task, err := svc.Create(ctx, owner, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, domain.ErrValidation)
				assert.Empty(t, publisher.Events())

				tasks, err := repo.ListByOwner(ctx, owner)
				require.NoError(t, err)
				assert.Empty(t, tasks)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, task.ID)
			assert.Equal(t, owner, task.OwnerID)
			assert.Equal(t, tt.wantTitle, task.Title)
			assert.Equal(t, tt.wantDesc, task.Description)
			assert.False(t, task.CreatedAt.IsZero())
			assert.Equal(t, task.CreatedAt, task.UpdatedAt)

			events := publisher.Events()
			require.Len(t, events, 1)
			assert.Equal(t, domain.TaskCreated, events[0].Type)
			assert.Equal(t, owner, events[0].OwnerID)
			assert.Equal(t, task.ID, events[0].TaskID)
		})
	}
}

func TestTaskService_ListIsOwnerScoped(t *testing.T) {
	ctx := context.Background()
	svc := service.NewTaskService(memory.NewTaskRepository(), nil)

	alice, bob := uuid.New(), uuid.New()
	a1, err := svc.Create(ctx, alice, service.CreateTaskInput{Title: "a1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, service.CreateTaskInput{Title: "b1"})
	require.NoError(t, err)
	a2, err := svc.Create(ctx, alice, service.CreateTaskInput{Title: "a2"})
	require.NoError(t, err)

	tasks, err := svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, a1.ID, tasks[0].ID)
	assert.Equal(t, a2.ID, tasks[1].ID)
	for _, task := range tasks {
		assert.Equal(t, alice, task.OwnerID)
	}

	empty, err := svc.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestTaskService_GetUpdateDelete_ForeignTaskIsNotFound(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	svc := service.NewTaskService(memory.NewTaskRepository(), publisher)

	owner, intruder := uuid.New(), uuid.New()
	task, err := svc.Create(ctx, owner, service.CreateTaskInput{Title: "private"})
	require.NoError(t, err)

	_, errForeign := svc.Get(ctx, intruder, task.ID)
	_, errMissing := svc.Get(ctx, owner, uuid.New())
	assert.ErrorIs(t, errForeign, service.ErrTaskNotFound)
	assert.Equal(t, errMissing, errForeign)

	_, err = svc.Update(ctx, intruder, task.ID, service.UpdateTaskInput{Title: "hijacked"})
	assert.ErrorIs(t, err, service.ErrTaskNotFound)

	err = svc.Delete(ctx, intruder, task.ID)
	assert.ErrorIs(t, err, service.ErrTaskNotFound)

	got, err := svc.Get(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", got.Title)

	// Only the create was published.
	assert.Len(t, publisher.Events(), 1)
}

func TestTaskService_Update(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	tests := []struct {
		name     string
		input    service.UpdateTaskInput
		wantDesc *string
		wantErr  error
	}{
		{
			name:     "replace title and description",
			input:    service.UpdateTaskInput{Title: "new title", Description: strPtr("new description")},
			wantDesc: strPtr("new description"),
		},
		{
			name:  "omitted description clears it",
			input: service.UpdateTaskInput{Title: "new title"},
		},
		{
			name:    "blank title rejected",
			input:   service.UpdateTaskInput{Title: "   ", Description: strPtr("ignored")},
			wantErr: service.ErrTitleRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := &recordingPublisher{}
			svc := service.NewTaskService(memory.NewTaskRepository(), publisher)

			task, err := svc.Create(ctx, owner, service.CreateTaskInput{Title: "old title", Description: strPtr("old description")})
			require.NoError(t, err)

			updated, err := svc.Update(ctx, owner, task.ID, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				unchanged, err := svc.Get(ctx, owner, task.ID)
				require.NoError(t, err)
				assert.Equal(t, task, unchanged)
				assert.Len(t, publisher.Events(), 1)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, task.ID, updated.ID)
			assert.Equal(t, owner, updated.OwnerID)
			assert.Equal(t, "new title", updated.Title)
			assert.Equal(t, tt.wantDesc, updated.Description)
			assert.Equal(t, task.CreatedAt, updated.CreatedAt)
			assert.False(t, updated.UpdatedAt.Before(task.UpdatedAt))

			events := publisher.Events()
			require.Len(t, events, 2)
			assert.Equal(t, domain.TaskUpdated, events[1].Type)
			assert.Equal(t, updated, events[1].Task)
		})
	}
}

func TestTaskService_Delete(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	svc := service.NewTaskService(memory.NewTaskRepository(), publisher)
	owner := uuid.New()

	task, err := svc.Create(ctx, owner, service.CreateTaskInput{Title: "temporary"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner, task.ID))

	_, err = svc.Get(ctx, owner, task.ID)
	assert.ErrorIs(t, err, service.ErrTaskNotFound)

	err = svc.Delete(ctx, owner, task.ID)
	assert.ErrorIs(t, err, service.ErrTaskNotFound)

	events := publisher.Events()
	require.Len(t, events, 2)
	assert.Equal(t, domain.TaskDeleted, events[1].Type)
	assert.Equal(t, task.ID, events[1].TaskID)
	assert.Nil(t, events[1].Task)
}

func TestTaskService_RepositoryFailures(t *testing.T) {
	ctx := context.Background()
	owner, taskID := uuid.New(), uuid.New()
	dbErr := errors.New("connection refused")

	tests := []struct {
		name  string
		setup func(repo *MockTaskRepository)
		call  func(svc *service.TaskService) error
	}{
		{
			name: "create",
			setup: func(repo *MockTaskRepository) {
				repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Task")).Return(dbErr)
			},
			call: func(svc *service.TaskService) error {
				_, err := svc.Create(ctx, owner, service.CreateTaskInput{Title: "x"})
				return err
			},
		},
		{
			name: "list",
			setup: func(repo *MockTaskRepository) {
				repo.On("ListByOwner", mock.Anything, owner).Return(nil, dbErr)
			},
			call: func(svc *service.TaskService) error {
				_, err := svc.List(ctx, owner)
				return err
			},
		},
		{
			name: "get",
			setup: func(repo *MockTaskRepository) {
				repo.On("GetByOwner", mock.Anything, owner, taskID).Return(nil, dbErr)
			},
			call: func(svc *service.TaskService) error {
				_, err := svc.Get(ctx, owner, taskID)
				return err
			},
		},
		{
			name: "update",
			setup: func(repo *MockTaskRepository) {
				repo.On("Update", mock.Anything, owner, taskID, mock.AnythingOfType("domain.TaskChanges")).Return(nil, dbErr)
			},
			call: func(svc *service.TaskService) error {
				_, err := svc.Update(ctx, owner, taskID, service.UpdateTaskInput{Title: "x"})
				return err
			},
		},
		{
			name: "delete",
			setup: func(repo *MockTaskRepository) {
				repo.On("Delete", mock.Anything, owner, taskID).Return(dbErr)
			},
			call: func(svc *service.TaskService) error {
				return svc.Delete(ctx, owner, taskID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockTaskRepository)
			tt.setup(repo)
			publisher := &recordingPublisher{}
			svc := service.NewTaskService(repo, publisher)

			err := tt.call(svc)
			require.Error(t, err)
			assert.ErrorIs(t, err, dbErr)
			assert.NotErrorIs(t, err, domain.ErrNotFound)
			assert.Empty(t, publisher.Events())
			repo.AssertExpectations(t)
		})
	}
}
