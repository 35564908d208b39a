package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockTaskStore implements the TaskStore interface in memory for testing.
// SaveFn and UpdateStatusFn can be replaced to inject failures.
type MockTaskStore struct {
	mutex           sync.RWMutex
	tasks           map[uuid.UUID]*MockTask
	taskStatusTimes map[uuid.UUID]time.Time
	SaveFn          func(ctx context.Context, task Task) error
	UpdateStatusFn  func(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error
}

// NewMockTaskStore creates a new MockTaskStore with default implementations
func NewMockTaskStore() *MockTaskStore {
	s := &MockTaskStore{
		tasks:           make(map[uuid.UUID]*MockTask),
		taskStatusTimes: make(map[uuid.UUID]time.Time),
	}
	s.SaveFn = s.save
	s.UpdateStatusFn = s.updateStatus
	return s
}

func (s *MockTaskStore) save(_ context.Context, task Task) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	mockTask, ok := task.(*MockTask)
	if !ok {
		mockTask = &MockTask{
			TaskID:      task.ID(),
			TaskType:    task.Type(),
			TaskPayload: task.Payload(),
			TaskStatus:  task.Status(),
			ExecuteFn:   task.Execute,
		}
	}

	s.tasks[task.ID()] = mockTask
	s.taskStatusTimes[task.ID()] = time.Now()
	return nil
}

func (s *MockTaskStore) updateStatus(_ context.Context, taskID uuid.UUID, status TaskStatus, _ string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return nil
	}

	task.SetStatus(status)
	s.taskStatusTimes[taskID] = time.Now()
	return nil
}

// SaveTask persists a task to the mock store
func (s *MockTaskStore) SaveTask(ctx context.Context, task Task) error {
	return s.SaveFn(ctx, task)
}

// UpdateTaskStatus updates the status of a task in the mock store
func (s *MockTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status TaskStatus,
	errorMsg string,
) error {
	return s.UpdateStatusFn(ctx, taskID, status, errorMsg)
}

// GetPendingTasks retrieves all tasks with "pending" status
func (s *MockTaskStore) GetPendingTasks(ctx context.Context) ([]Task, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var pendingTasks []Task
	for _, task := range s.tasks {
		if task.Status() == TaskStatusPending {
			pendingTasks = append(pendingTasks, task)
		}
	}

	return pendingTasks, nil
}

// GetProcessingTasks retrieves tasks with "processing" status
func (s *MockTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var processingTasks []Task
	now := time.Now()

	for _, task := range s.tasks {
		if task.Status() != TaskStatusProcessing {
			continue
		}
		statusTime, exists := s.taskStatusTimes[task.ID()]
		if olderThan == 0 || (exists && now.Sub(statusTime) > olderThan) {
			processingTasks = append(processingTasks, task)
		}
	}

	return processingTasks, nil
}

// Get returns the stored copy of a task, if any.
func (s *MockTaskStore) Get(id uuid.UUID) (*MockTask, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	task, ok := s.tasks[id]
	return task, ok
}

// Backdate moves the last status change of a task into the past.
func (s *MockTaskStore) Backdate(id uuid.UUID, age time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.taskStatusTimes[id] = time.Now().Add(-age)
}
