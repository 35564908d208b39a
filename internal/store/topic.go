package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/cizu-api/internal/domain"
)

// TopicUpdate is the set of job-record fields written by a progress flush.
type TopicUpdate struct {
	Status       domain.TopicStatus
	Progress     domain.Progress
	ErrorMessage string
}

// TopicStore persists topics, which double as generation job records.
type TopicStore interface {
	// Create saves a new topic.
	Create(ctx context.Context, topic *domain.Topic) error

	// GetByID returns ErrTopicNotFound if the topic does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error)

	// Claim atomically moves a topic into the selecting status for a new run
	// and stamps it with now. It succeeds only if no run owns the topic, or if
	// the owning run has not touched the record within staleAfter of now. It
	// reports false when another run holds the topic, and ErrTopicNotFound
	// when there is no topic.
	Claim(ctx context.Context, id uuid.UUID, now time.Time, staleAfter time.Duration) (bool, error)

	// UpdateProgress writes status, counters and error message in place.
	// Returns ErrTopicNotFound if the topic was deleted.
	UpdateProgress(ctx context.Context, id uuid.UUID, update TopicUpdate) error

	// FindStalled returns up to limit topics left in selecting or generating
	// that have been idle since before idleSince, oldest first.
	FindStalled(ctx context.Context, idleSince time.Time, limit int) ([]*domain.Topic, error)
}
