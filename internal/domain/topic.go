package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TopicStatus represents the generation state of a topic.
type TopicStatus string

// Possible topic status values
const (
	TopicStatusDraft      TopicStatus = "draft"
	TopicStatusSelecting  TopicStatus = "selecting"
	TopicStatusGenerating TopicStatus = "generating"
	TopicStatusReady      TopicStatus = "ready"
	TopicStatusError      TopicStatus = "error"
)

// SentencesPerWord is the number of graded sentences every word carries.
const SentencesPerWord = 3

// MaxGrammarTarget bounds the number of grammar patterns a topic can target.
const MaxGrammarTarget = 3

// Topic validation errors
var (
	ErrEmptyTopicID         = errors.New("topic ID cannot be empty")
	ErrEmptyTopicTitle      = errors.New("topic title cannot be empty")
	ErrEmptyTopicLevel      = errors.New("topic level cannot be empty")
	ErrInvalidWordTarget    = errors.New("word target must be positive")
	ErrInvalidGrammarTarget = errors.New("grammar target must be between 0 and 3")
)

// Topic is a learning unit that a generation run populates with words and
// sentences. Its row doubles as the persisted generation job record: status
// and the progress counters are updated in place while a run is active.
type Topic struct {
	ID            uuid.UUID   `json:"id"`
	Title         string      `json:"title"`
	Level         string      `json:"level"`
	WordTarget    int         `json:"word_target"`
	GrammarTarget int         `json:"grammar_target"`
	Status        TopicStatus `json:"status"`
	Progress      Progress    `json:"progress"`
	ErrorMessage  string      `json:"error_message,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Progress holds the counters reported while a generation run is active.
type Progress struct {
	WordsSelected      int `json:"words_selected"`
	SentencesGenerated int `json:"sentences_generated"`
	SentenceAttempts   int `json:"sentence_attempts"`
}

// NewTopic creates a new draft Topic.
// Returns an error if validation fails.
func NewTopic(title, level string, wordTarget, grammarTarget int) (*Topic, error) {
	now := time.Now().UTC()
	topic := &Topic{
		ID:            uuid.New(),
		Title:         title,
		Level:         level,
		WordTarget:    wordTarget,
		GrammarTarget: grammarTarget,
		Status:        TopicStatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := topic.Validate(); err != nil {
		return nil, err
	}

	return topic, nil
}

// Validate checks if the Topic has valid data.
func (t *Topic) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTopicID
	}

	if t.Title == "" {
		return ErrEmptyTopicTitle
	}

	if t.Level == "" {
		return ErrEmptyTopicLevel
	}

	if t.WordTarget <= 0 {
		return ErrInvalidWordTarget
	}

	if t.GrammarTarget < 0 || t.GrammarTarget > MaxGrammarTarget {
		return ErrInvalidGrammarTarget
	}

	if !t.Status.IsValid() {
		return ErrInvalidTopicStatus
	}

	return nil
}

// SentenceTasksTotal is the number of sentences a fully generated topic holds.
func (t *Topic) SentenceTasksTotal() int {
	return t.WordTarget * SentencesPerWord
}

// IsValid reports whether s is a known topic status.
func (s TopicStatus) IsValid() bool {
	switch s {
	case TopicStatusDraft, TopicStatusSelecting, TopicStatusGenerating,
		TopicStatusReady, TopicStatusError:
		return true
	default:
		return false
	}
}

// InProgress reports whether a run currently owns a topic in this status.
func (s TopicStatus) InProgress() bool {
	return s == TopicStatusSelecting || s == TopicStatusGenerating
}
