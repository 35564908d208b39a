package topicgen

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/phrazzld/cizu-api/internal/task"
)

// MockTaskSubmitter mocks the TaskSubmitter interface
type MockTaskSubmitter struct {
	mock.Mock
}

func (m *MockTaskSubmitter) Submit(ctx context.Context, t task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

// MockTaskFactory mocks the TaskFactory interface
type MockTaskFactory struct {
	mock.Mock
}

func (m *MockTaskFactory) CreateTask(topicID uuid.UUID) (task.Task, error) {
	args := m.Called(topicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(task.Task), args.Error(1)
}
