package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/cizu-api/internal/domain"
)

type wordListPayload struct {
	Words []domain.WordCandidate `json:"words"`
}

type sentencePayload struct {
	Sentences []domain.SentenceCandidate `json:"sentences"`
}

// ExtractJSON returns the JSON value embedded in a model reply, dropping
// markdown fences or prose around it.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if end := strings.LastIndex(text, "```"); end >= 0 {
			text = text[:end]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end < start {
		return text[start:]
	}
	return text[start : end+1]
}

// ParseWordList decodes a word list reply. Entries with a missing field,
// entries already listed in req.Exclude, and repeats are dropped; the result
// is capped at req.Count. A reply with no usable entry is an invalid response.
func ParseWordList(text string, req WordListRequest) ([]domain.WordCandidate, error) {
	body := ExtractJSON(text)

	var candidates []domain.WordCandidate
	if strings.HasPrefix(body, "[") {
		if err := json.Unmarshal([]byte(body), &candidates); err != nil {
			return nil, fmt.Errorf("%w: failed to parse word list JSON: %v", ErrInvalidResponse, err)
		}
	} else {
		var payload wordListPayload
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			return nil, fmt.Errorf("%w: failed to parse word list JSON: %v", ErrInvalidResponse, err)
		}
		candidates = payload.Words
	}

	seen := make(map[string]struct{}, len(req.Exclude)+len(candidates))
	for _, hanzi := range req.Exclude {
		seen[strings.TrimSpace(hanzi)] = struct{}{}
	}

	words := make([]domain.WordCandidate, 0, len(candidates))
	for _, c := range candidates {
		if req.Count > 0 && len(words) == req.Count {
			break
		}
		if c.Validate() != nil {
			continue
		}
		c.Hanzi = strings.TrimSpace(c.Hanzi)
		c.Pinyin = strings.TrimSpace(c.Pinyin)
		c.English = strings.TrimSpace(c.English)
		if _, dup := seen[c.Hanzi]; dup {
			continue
		}
		seen[c.Hanzi] = struct{}{}
		words = append(words, c)
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("%w: no usable words in response", ErrInvalidResponse)
	}
	return words, nil
}

// ParseSentenceTriple decodes a sentence reply into a triple. It rejects,
// never repairs: a missing tier or empty field fails the whole reply.
func ParseSentenceTriple(text string) (domain.SentenceTriple, error) {
	var payload sentencePayload
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &payload); err != nil {
		return domain.SentenceTriple{}, fmt.Errorf("%w: failed to parse sentence JSON: %v", ErrInvalidResponse, err)
	}

	for i := range payload.Sentences {
		payload.Sentences[i].GrammarTag = cleanTag(payload.Sentences[i].GrammarTag)
		payload.Sentences[i].Style = strings.TrimSpace(payload.Sentences[i].Style)
	}

	triple, err := domain.NewSentenceTriple(payload.Sentences)
	if err != nil {
		return domain.SentenceTriple{}, errors.Join(ErrInvalidResponse, err)
	}
	return triple, nil
}

func cleanTag(tag *string) *string {
	if tag == nil {
		return nil
	}
	t := strings.TrimSpace(*tag)
	if t == "" || strings.EqualFold(t, "null") {
		return nil
	}
	return &t
}
