package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/cizu-api/internal/domain"
)

// WordStore persists the vocabulary of a topic.
type WordStore interface {
	// Create inserts a word. It returns ErrDuplicate when the topic already
	// holds the same hanzi and ErrParentMissing when the topic is gone.
	Create(ctx context.Context, word *domain.Word) error

	// CountByTopic returns the number of words in a topic.
	CountByTopic(ctx context.Context, topicID uuid.UUID) (int, error)

	// ListHanzi returns the surface form of every word in a topic.
	ListHanzi(ctx context.Context, topicID uuid.UUID) ([]string, error)

	// ListWithoutSentences returns words that have no sentences yet, in
	// position order. These are left behind by an interrupted run.
	ListWithoutSentences(ctx context.Context, topicID uuid.UUID) ([]*domain.Word, error)

	// Delete removes a word and, by cascade, its sentences.
	// Returns ErrWordNotFound if the word does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
