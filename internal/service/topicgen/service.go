package topicgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/platform/logger"
	"github.com/phrazzld/cizu-api/internal/store"
	"github.com/phrazzld/cizu-api/internal/task"
)

// TaskSubmitter defines the interface for submitting background tasks
type TaskSubmitter interface {
	// Submit adds a task to the processing queue
	Submit(ctx context.Context, task task.Task) error
}

// TaskFactory creates generation tasks for topics
type TaskFactory interface {
	// CreateTask creates a new generation task for the specified topic
	CreateTask(topicID uuid.UUID) (task.Task, error)
}

// ProgressReport is the externally visible state of a topic's generation.
type ProgressReport struct {
	TopicID            uuid.UUID          `json:"topic_id"`
	Status             domain.TopicStatus `json:"status"`
	WordTarget         int                `json:"word_target"`
	WordsSelected      int                `json:"words_selected"`
	SentencesGenerated int                `json:"sentences_generated"`
	SentenceAttempts   int                `json:"sentence_attempts"`
	SentenceTasksTotal int                `json:"sentence_tasks_total"`
	ErrorMessage       string             `json:"error_message,omitempty"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// NewProgressReport builds a report from a topic record.
func NewProgressReport(topic *domain.Topic) *ProgressReport {
	return &ProgressReport{
		TopicID:            topic.ID,
		Status:             topic.Status,
		WordTarget:         topic.WordTarget,
		WordsSelected:      topic.Progress.WordsSelected,
		SentencesGenerated: topic.Progress.SentencesGenerated,
		SentenceAttempts:   topic.Progress.SentenceAttempts,
		SentenceTasksTotal: topic.SentenceTasksTotal(),
		ErrorMessage:       topic.ErrorMessage,
		UpdatedAt:          topic.UpdatedAt,
	}
}

// Service starts generation runs and reports on them.
type Service interface {
	// RequestGeneration enqueues a generation run for the topic. It returns
	// ErrAlreadyInProgress when a live run holds the topic.
	RequestGeneration(ctx context.Context, topicID uuid.UUID) (*domain.Topic, error)

	// Progress returns the current counters of the topic.
	Progress(ctx context.Context, topicID uuid.UUID) (*ProgressReport, error)
}

type serviceImpl struct {
	topics     store.TopicStore
	submitter  TaskSubmitter
	factory    TaskFactory
	staleAfter time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewService creates a Service.
// It returns an error if any dependency is nil.
func NewService(
	topics store.TopicStore,
	submitter TaskSubmitter,
	factory TaskFactory,
	staleAfter time.Duration,
	logger *slog.Logger,
) (Service, error) {
	if topics == nil {
		return nil, errors.New("topic store cannot be nil")
	}
	if submitter == nil {
		return nil, errors.New("task submitter cannot be nil")
	}
	if factory == nil {
		return nil, errors.New("task factory cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if staleAfter <= 0 {
		staleAfter = DefaultConfig().StaleAfter
	}

	return &serviceImpl{
		topics:     topics,
		submitter:  submitter,
		factory:    factory,
		staleAfter: staleAfter,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.With(slog.String("component", "topic_service")),
	}, nil
}

// RequestGeneration implements Service.
func (s *serviceImpl) RequestGeneration(ctx context.Context, topicID uuid.UUID) (*domain.Topic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	topic, err := s.loadTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	// The run's claim is authoritative; this only spares a queued task.
	if topic.Status.InProgress() && s.now().Sub(topic.UpdatedAt) < s.staleAfter {
		return nil, ErrAlreadyInProgress
	}

	t, err := s.factory.CreateTask(topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation task: %w", err)
	}
	if err := s.submitter.Submit(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to submit generation task: %w", err)
	}

	log.InfoContext(ctx, "topic generation requested",
		slog.String("topic_id", topicID.String()),
		slog.String("task_id", t.ID().String()),
		slog.String("status", string(topic.Status)))
	return topic, nil
}

// Progress implements Service.
func (s *serviceImpl) Progress(ctx context.Context, topicID uuid.UUID) (*ProgressReport, error) {
	topic, err := s.loadTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	return NewProgressReport(topic), nil
}

func (s *serviceImpl) loadTopic(ctx context.Context, topicID uuid.UUID) (*domain.Topic, error) {
	topic, err := s.topics.GetByID(ctx, topicID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("failed to load topic: %w", err)
	}
	return topic, nil
}
