package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/generation"
)

// MockGenerator implements generation.Generator for testing
type MockGenerator struct {
	// GenerateWordListFn allows test cases to mock the GenerateWordList behavior
	GenerateWordListFn func(ctx context.Context, req generation.WordListRequest) ([]domain.WordCandidate, error)

	// GenerateSentencesFn allows test cases to mock the GenerateSentences behavior
	GenerateSentencesFn func(ctx context.Context, req generation.SentenceRequest) (domain.SentenceTriple, error)

	// Default response values
	Words []domain.WordCandidate
	Err   error

	mu               sync.Mutex
	wordListCalls    []generation.WordListRequest
	sentenceRequests []generation.SentenceRequest
}

var _ generation.Generator = (*MockGenerator)(nil)

// GenerateWordList implements the generation.WordListGenerator interface
func (m *MockGenerator) GenerateWordList(
	ctx context.Context,
	req generation.WordListRequest,
) ([]domain.WordCandidate, error) {
	m.mu.Lock()
	m.wordListCalls = append(m.wordListCalls, req)
	m.mu.Unlock()

	if m.GenerateWordListFn != nil {
		return m.GenerateWordListFn(ctx, req)
	}
	return m.Words, m.Err
}

// GenerateSentences implements the generation.SentenceGenerator interface
func (m *MockGenerator) GenerateSentences(
	ctx context.Context,
	req generation.SentenceRequest,
) (domain.SentenceTriple, error) {
	m.mu.Lock()
	m.sentenceRequests = append(m.sentenceRequests, req)
	m.mu.Unlock()

	if m.GenerateSentencesFn != nil {
		return m.GenerateSentencesFn(ctx, req)
	}
	if m.Err != nil {
		return domain.SentenceTriple{}, m.Err
	}
	return SimpleTriple(req.Word.Hanzi), nil
}

// WordListCalls returns a copy of every word list request received.
func (m *MockGenerator) WordListCalls() []generation.WordListRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.WordListRequest(nil), m.wordListCalls...)
}

// SentenceCalls returns a copy of every sentence request received.
func (m *MockGenerator) SentenceCalls() []generation.SentenceRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.SentenceRequest(nil), m.sentenceRequests...)
}

// SentenceCallsFor returns the sentence requests made for one word.
func (m *MockGenerator) SentenceCallsFor(hanzi string) []generation.SentenceRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var calls []generation.SentenceRequest
	for _, req := range m.sentenceRequests {
		if req.Word.Hanzi == hanzi {
			calls = append(calls, req)
		}
	}
	return calls
}

// Reset resets the call tracking state
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wordListCalls = nil
	m.sentenceRequests = nil
}

// simpleOpeners are distinct per tier so that triples for different words
// differ in their openers as well as their word.
var simpleOpeners = [domain.SentencesPerWord][]string{
	{"今天", "早上", "昨天", "下午", "晚上", "周末", "上午", "中午"},
	{"我们", "他们", "老师", "朋友", "同学", "妈妈", "爸爸", "哥哥"},
	{"虽然", "因为", "如果", "只要", "即使", "既然", "无论", "除非"},
}

// SimpleTriple builds a valid triple using hanzi. Triples for different words
// are dissimilar enough to pass the novelty filter.
func SimpleTriple(hanzi string) domain.SentenceTriple {
	seed := 0
	for _, r := range hanzi {
		seed += int(r)
	}
	pick := func(tier int) string {
		openers := simpleOpeners[tier]
		return openers[seed%len(openers)]
	}
	return domain.SentenceTriple{
		{Tier: domain.TierEasy, Hanzi: pick(0) + hanzi + "很好。", Pinyin: "p", English: "e"},
		{Tier: domain.TierSame, Hanzi: pick(1) + "喜欢" + hanzi + "！", Pinyin: "p", English: "e"},
		{Tier: domain.TierHard, Hanzi: pick(2) + hanzi + "不在，我也会去。", Pinyin: "p", English: "e"},
	}
}
