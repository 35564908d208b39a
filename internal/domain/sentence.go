package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tier is one of the three difficulty gradations required per word.
type Tier string

// Possible tier values, in the order a triple stores them.
const (
	TierEasy Tier = "easy"
	TierSame Tier = "same"
	TierHard Tier = "hard"
)

// Tiers lists every tier in triple order.
var Tiers = [SentencesPerWord]Tier{TierEasy, TierSame, TierHard}

// StyleChatReply marks a sentence written as a conversational reply; such
// sentences are allowed to end without terminal punctuation.
const StyleChatReply = "chat reply"

// Sentence validation errors
var (
	ErrEmptySentenceHanzi   = errors.New("sentence hanzi cannot be empty")
	ErrEmptySentencePinyin  = errors.New("sentence pinyin cannot be empty")
	ErrEmptySentenceEnglish = errors.New("sentence english cannot be empty")
	ErrMissingTier          = errors.New("sentence triple is missing a tier")
	ErrDuplicateTier        = errors.New("sentence triple repeats a tier")
)

// IsValid reports whether t is a known tier.
func (t Tier) IsValid() bool {
	switch t {
	case TierEasy, TierSame, TierHard:
		return true
	default:
		return false
	}
}

func (t Tier) index() int {
	switch t {
	case TierEasy:
		return 0
	case TierSame:
		return 1
	case TierHard:
		return 2
	default:
		return -1
	}
}

// SentenceCandidate is one generated example sentence for a word.
type SentenceCandidate struct {
	Tier       Tier    `json:"tier"`
	Hanzi      string  `json:"hanzi"`
	Pinyin     string  `json:"pinyin"`
	English    string  `json:"english"`
	GrammarTag *string `json:"grammar_tag,omitempty"`
	Style      string  `json:"style,omitempty"`
}

// Validate checks the required fields of a candidate.
func (c SentenceCandidate) Validate() error {
	if !c.Tier.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTier, c.Tier)
	}
	if strings.TrimSpace(c.Hanzi) == "" {
		return ErrEmptySentenceHanzi
	}
	if strings.TrimSpace(c.Pinyin) == "" {
		return ErrEmptySentencePinyin
	}
	if strings.TrimSpace(c.English) == "" {
		return ErrEmptySentenceEnglish
	}
	return nil
}

// SentenceTriple holds exactly one candidate per tier, ordered easy, same, hard.
// A triple is accepted or rejected as a unit.
type SentenceTriple [SentencesPerWord]SentenceCandidate

// NewSentenceTriple validates candidates and orders them by tier. It rejects
// rather than repairs: a missing or repeated tier, or any empty required
// field, is an error.
func NewSentenceTriple(candidates []SentenceCandidate) (SentenceTriple, error) {
	var triple SentenceTriple
	if len(candidates) != SentencesPerWord {
		return triple, fmt.Errorf("%w: got %d sentences, want %d",
			ErrMissingTier, len(candidates), SentencesPerWord)
	}

	var seen [SentencesPerWord]bool
	for i, c := range candidates {
		if err := c.Validate(); err != nil {
			return SentenceTriple{}, fmt.Errorf("sentence %d: %w", i, err)
		}
		idx := c.Tier.index()
		if seen[idx] {
			return SentenceTriple{}, fmt.Errorf("%w: %s", ErrDuplicateTier, c.Tier)
		}
		seen[idx] = true
		c.Hanzi = strings.TrimSpace(c.Hanzi)
		c.Pinyin = strings.TrimSpace(c.Pinyin)
		c.English = strings.TrimSpace(c.English)
		triple[idx] = c
	}

	return triple, nil
}

// Sentence is a persisted example sentence.
type Sentence struct {
	ID         uuid.UUID `json:"id"`
	WordID     uuid.UUID `json:"word_id"`
	TopicID    uuid.UUID `json:"topic_id"`
	Tier       Tier      `json:"tier"`
	Hanzi      string    `json:"hanzi"`
	Pinyin     string    `json:"pinyin"`
	English    string    `json:"english"`
	GrammarTag *string   `json:"grammar_tag,omitempty"`
	Style      string    `json:"style,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// SentencesFromTriple converts an accepted triple into persistable sentences.
func SentencesFromTriple(word *Word, triple SentenceTriple) []*Sentence {
	now := time.Now().UTC()
	sentences := make([]*Sentence, 0, SentencesPerWord)
	for _, c := range triple {
		sentences = append(sentences, &Sentence{
			ID:         uuid.New(),
			WordID:     word.ID,
			TopicID:    word.TopicID,
			Tier:       c.Tier,
			Hanzi:      c.Hanzi,
			Pinyin:     c.Pinyin,
			English:    c.English,
			GrammarTag: c.GrammarTag,
			Style:      c.Style,
			CreatedAt:  now,
		})
	}
	return sentences
}
