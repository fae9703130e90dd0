package domain

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	OwnerID     uuid.UUID `json:"owner" gorm:"type:uuid;not null;index"`
	Title       string    `json:"title" gorm:"not null"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime:false"`
}

// TaskChanges is the replacement applied to an existing task.
type TaskChanges struct {
	Title       string
	Description *string
	UpdatedAt   time.Time
}

type TaskEventType string

const (
	TaskCreated TaskEventType = "TASK_CREATED"
	TaskUpdated TaskEventType = "TASK_UPDATED"
	TaskDeleted TaskEventType = "TASK_DELETED"
)

// TaskEvent describes a committed change to one of an owner's tasks.
// Task is nil for deletions.
type TaskEvent struct {
	Type    TaskEventType
	OwnerID uuid.UUID
	TaskID  uuid.UUID
	Task    *Task
}
