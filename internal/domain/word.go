package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Word validation errors
var (
	ErrEmptyWordHanzi   = errors.New("word hanzi cannot be empty")
	ErrEmptyWordPinyin  = errors.New("word pinyin cannot be empty")
	ErrEmptyWordEnglish = errors.New("word english cannot be empty")
	ErrEmptyWordTopicID = errors.New("word topic ID cannot be empty")
)

// WordCandidate is a lexical item proposed by the generation service.
type WordCandidate struct {
	Hanzi   string `json:"hanzi"`
	Pinyin  string `json:"pinyin"`
	English string `json:"english"`
}

// Validate checks that every field of the candidate is present.
func (c WordCandidate) Validate() error {
	if strings.TrimSpace(c.Hanzi) == "" {
		return ErrEmptyWordHanzi
	}
	if strings.TrimSpace(c.Pinyin) == "" {
		return ErrEmptyWordPinyin
	}
	if strings.TrimSpace(c.English) == "" {
		return ErrEmptyWordEnglish
	}
	return nil
}

// Word is an accepted vocabulary item belonging to a topic.
type Word struct {
	ID        uuid.UUID `json:"id"`
	TopicID   uuid.UUID `json:"topic_id"`
	Hanzi     string    `json:"hanzi"`
	Pinyin    string    `json:"pinyin"`
	English   string    `json:"english"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// NewWord builds a Word from an accepted candidate.
func NewWord(topicID uuid.UUID, candidate WordCandidate, position int) (*Word, error) {
	if topicID == uuid.Nil {
		return nil, ErrEmptyWordTopicID
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	return &Word{
		ID:        uuid.New(),
		TopicID:   topicID,
		Hanzi:     strings.TrimSpace(candidate.Hanzi),
		Pinyin:    strings.TrimSpace(candidate.Pinyin),
		English:   strings.TrimSpace(candidate.English),
		Position:  position,
		CreatedAt: time.Now().UTC(),
	}, nil
}
