package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/cizu-api/internal/redact"
)

// Common errors
var (
	ErrNilRunner      = errors.New("topic runner cannot be nil")
	ErrNilLogger      = errors.New("logger cannot be nil")
	ErrEmptyTopicID   = errors.New("topic ID cannot be empty")
	ErrInvalidPayload = errors.New("invalid task payload")
)

// TopicRunner performs one generation run for a topic.
type TopicRunner interface {
	RunTopic(ctx context.Context, topicID uuid.UUID) error
}

// topicGenerationPayload represents the serialized data stored in the task
type topicGenerationPayload struct {
	TopicID uuid.UUID `json:"topic_id"`
}

// TopicGenerationTask implements the Task interface for filling a topic with
// words and sentences.
type TopicGenerationTask struct {
	id      uuid.UUID
	topicID uuid.UUID
	runner  TopicRunner
	logger  *slog.Logger

	mu     sync.Mutex
	status TaskStatus
}

// NewTopicGenerationTask creates a new pending topic generation task.
func NewTopicGenerationTask(topicID uuid.UUID, runner TopicRunner, logger *slog.Logger) (*TopicGenerationTask, error) {
	return newTopicGenerationTask(uuid.New(), topicID, runner, logger)
}

func newTopicGenerationTask(
	id uuid.UUID,
	topicID uuid.UUID,
	runner TopicRunner,
	logger *slog.Logger,
) (*TopicGenerationTask, error) {
	if runner == nil {
		return nil, ErrNilRunner
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if topicID == uuid.Nil {
		return nil, ErrEmptyTopicID
	}

	return &TopicGenerationTask{
		id:      id,
		topicID: topicID,
		runner:  runner,
		logger: logger.With(
			slog.String("task_type", TaskTypeTopicGeneration),
			slog.String("topic_id", topicID.String()),
		),
		status: TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *TopicGenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *TopicGenerationTask) Type() string {
	return TaskTypeTopicGeneration
}

// TopicID returns the topic this task generates.
func (t *TopicGenerationTask) TopicID() uuid.UUID {
	return t.topicID
}

// Payload returns the task data as a byte slice
func (t *TopicGenerationTask) Payload() []byte {
	data, err := json.Marshal(topicGenerationPayload{TopicID: t.topicID})
	if err != nil {
		t.logger.Error("failed to marshal task payload", redact.ErrorAttr(err))
		return []byte{}
	}
	return data
}

// Status returns the current task status
func (t *TopicGenerationTask) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *TopicGenerationTask) setStatus(status TaskStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

// Execute runs one generation run for the topic.
func (t *TopicGenerationTask) Execute(ctx context.Context) error {
	t.setStatus(TaskStatusProcessing)
	t.logger.Info("starting topic generation task")

	if err := ctx.Err(); err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	if err := t.runner.RunTopic(ctx, t.topicID); err != nil {
		t.setStatus(TaskStatusFailed)
		t.logger.Error("topic generation failed", redact.ErrorAttr(err))
		return fmt.Errorf("topic generation failed: %w", err)
	}

	t.setStatus(TaskStatusCompleted)
	t.logger.Info("topic generation task completed")
	return nil
}

// TopicGenerationTaskFactory creates TopicGenerationTask instances
type TopicGenerationTaskFactory struct {
	runner TopicRunner
	logger *slog.Logger
}

// NewTopicGenerationTaskFactory creates a new factory for TopicGenerationTasks
func NewTopicGenerationTaskFactory(runner TopicRunner, logger *slog.Logger) *TopicGenerationTaskFactory {
	return &TopicGenerationTaskFactory{
		runner: runner,
		logger: logger.With(slog.String("component", "topic_generation_task_factory")),
	}
}

// CreateTask creates a new TopicGenerationTask for the specified topic
func (f *TopicGenerationTaskFactory) CreateTask(topicID uuid.UUID) (Task, error) {
	return NewTopicGenerationTask(topicID, f.runner, f.logger)
}

// Rehydrate rebuilds a persisted TopicGenerationTask, keeping its ID.
func (f *TopicGenerationTaskFactory) Rehydrate(id uuid.UUID, payload []byte) (Task, error) {
	var p topicGenerationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return newTopicGenerationTask(id, p.TopicID, f.runner, f.logger)
}
