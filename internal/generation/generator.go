package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/phrazzld/cizu-api/internal/domain"
)

// WordListGenerator proposes vocabulary for a topic.
type WordListGenerator interface {
	// GenerateWordList returns up to req.Count candidates, none of which appear
	// in req.Exclude. It may return fewer than requested. Any error is fatal to
	// the calling run.
	GenerateWordList(ctx context.Context, req WordListRequest) ([]domain.WordCandidate, error)
}

// SentenceGenerator produces graded example sentences for a single word.
type SentenceGenerator interface {
	// GenerateSentences returns exactly one candidate per tier. A response that
	// lacks a tier or a required field yields an error wrapping
	// ErrInvalidResponse, which callers treat as a retryable validation failure.
	GenerateSentences(ctx context.Context, req SentenceRequest) (domain.SentenceTriple, error)
}

// Generator is implemented by providers that serve both kinds of request.
type Generator interface {
	WordListGenerator
	SentenceGenerator
}

// WordListRequest asks for Count new words on Topic at Level.
type WordListRequest struct {
	Topic   string
	Level   string
	Count   int
	Exclude []string
}

// Validate checks the request before it is sent to a provider.
func (r WordListRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	if r.Count <= 0 {
		return fmt.Errorf("%w: count must be positive, got %d", ErrInvalidRequest, r.Count)
	}
	return nil
}

// SentenceRequest asks for one triple of sentences using Word.
type SentenceRequest struct {
	Word  domain.WordCandidate
	Topic string
	Level string

	// GrammarHint, when set, asks for exactly one sentence using the pattern.
	GrammarHint string

	// Steering from a rejected earlier attempt. Providers pass these along;
	// they are hints, not constraints.
	AvoidOpeners  []string
	AvoidPatterns []string

	// Flavor hints chosen per word.
	Styles   []string
	Contexts []string

	Params RetryParams
}

// Validate checks the request before it is sent to a provider.
func (r SentenceRequest) Validate() error {
	if strings.TrimSpace(r.Word.Hanzi) == "" {
		return fmt.Errorf("%w: word is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Topic) == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	return nil
}
