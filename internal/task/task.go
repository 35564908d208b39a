package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task type constants
const (
	// TaskTypeTopicGeneration fills a topic with words and sentences
	TaskTypeTopicGeneration = "topic_generation"
)

// ErrUnknownTaskType is returned when a persisted task has a type with no
// registered rehydrator.
var ErrUnknownTaskType = errors.New("unknown task type")

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Payload returns the task data as a byte slice
	Payload() []byte

	// Status returns the current task status
	Status() TaskStatus

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// TaskStore defines the interface for persisting tasks
type TaskStore interface {
	// SaveTask persists a task to the database
	SaveTask(ctx context.Context, task Task) error

	// UpdateTaskStatus updates the status of a task
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error

	// GetPendingTasks retrieves all tasks with "pending" status
	GetPendingTasks(ctx context.Context) ([]Task, error)

	// GetProcessingTasks retrieves tasks with "processing" status
	// If olderThan is non-zero, only returns tasks that have been in this state
	// longer than the specified duration
	GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error)
}

// Rehydrator rebuilds an executable task of one type from its persisted payload.
type Rehydrator interface {
	Rehydrate(id uuid.UUID, payload []byte) (Task, error)
}

// Registry maps task types to the rehydrators that rebuild them after a restart.
type Registry struct {
	mu          sync.RWMutex
	rehydrators map[string]Rehydrator
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rehydrators: make(map[string]Rehydrator)}
}

// Register associates taskType with r, replacing any earlier registration.
func (r *Registry) Register(taskType string, rehydrator Rehydrator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rehydrators[taskType] = rehydrator
}

// Rehydrate rebuilds a persisted task. It returns ErrUnknownTaskType when no
// rehydrator is registered for taskType.
func (r *Registry) Rehydrate(id uuid.UUID, taskType string, payload []byte) (Task, error) {
	r.mu.RLock()
	rehydrator, ok := r.rehydrators[taskType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTaskType, taskType)
	}
	return rehydrator.Rehydrate(id, payload)
}
