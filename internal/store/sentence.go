package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/cizu-api/internal/domain"
)

// SentenceStore persists example sentences.
type SentenceStore interface {
	// CreateTriple inserts the sentences of one word atomically: either all
	// are stored or none are.
	CreateTriple(ctx context.Context, sentences []*domain.Sentence) error

	// CountByTopic returns the number of sentences in a topic.
	CountByTopic(ctx context.Context, topicID uuid.UUID) (int, error)
}
