package anthropic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/cizu-api/internal/config"
	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/generation"
	"github.com/phrazzld/cizu-api/internal/platform/logger"
)

type fakeMessages struct {
	mu     sync.Mutex
	calls  []anthropic.MessageNewParams
	replay []func() (*anthropic.Message, error)
}

func (f *fakeMessages) New(
	_ context.Context,
	body anthropic.MessageNewParams,
	_ ...option.RequestOption,
) (*anthropic.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, body)
	i := len(f.calls) - 1
	if i >= len(f.replay) {
		i = len(f.replay) - 1
	}
	return f.replay[i]()
}

func reply(stop anthropic.StopReason, texts ...string) func() (*anthropic.Message, error) {
	return func() (*anthropic.Message, error) {
		msg := &anthropic.Message{StopReason: stop}
		for _, text := range texts {
			msg.Content = append(msg.Content, anthropic.ContentBlockUnion{Type: "text", Text: text})
		}
		return msg, nil
	}
}

func apiError(status int) func() (*anthropic.Message, error) {
	return func() (*anthropic.Message, error) {
		return nil, &anthropic.Error{
			StatusCode: status,
			Request:    httptest.NewRequest(http.MethodPost, "https://api.example.com/v1/messages", nil),
			Response:   &http.Response{StatusCode: status},
		}
	}
}

func newTestGenerator(t *testing.T, fake *fakeMessages) *Generator {
	t.Helper()
	prompts, err := generation.LoadPrompts("", "")
	require.NoError(t, err)
	g, err := newGenerator(logger.Discard(), fake, config.LLMConfig{
		ModelName: "claude-test", MaxRetries: 1, RetryDelaySeconds: 1,
	}, prompts)
	require.NoError(t, err)
	g.retry.BaseDelay = 0
	return g
}

var sentenceReq = generation.SentenceRequest{
	Word:   domain.WordCandidate{Hanzi: "好", Pinyin: "hǎo", English: "good"},
	Topic:  "Greetings",
	Level:  "HSK1",
	Params: generation.RetryParamsFor(3),
}

const tripleJSON = `{"sentences":[
	{"tier":"easy","hanzi":"你好！","pinyin":"nǐ hǎo!","english":"Hello!","grammar_tag":null,"style":"greeting"},
	{"tier":"same","hanzi":"今天天气很好。","pinyin":"jīntiān tiānqì hěn hǎo.","english":"The weather is nice today.","grammar_tag":null,"style":"statement"},
	{"tier":"hard","hanzi":"虽然很累，但是心情很好。","pinyin":"suīrán hěn lèi, dànshì xīnqíng hěn hǎo.","english":"Tired but happy.","grammar_tag":null,"style":"statement"}
]}`

func TestGenerateSentences(t *testing.T) {
	t.Parallel()

	fake := &fakeMessages{replay: []func() (*anthropic.Message, error){
		reply(anthropic.StopReasonEndTurn, tripleJSON),
	}}
	g := newTestGenerator(t, fake)

	triple, err := g.GenerateSentences(context.Background(), sentenceReq)
	require.NoError(t, err)
	assert.Equal(t, "你好！", triple[0].Hanzi)
	assert.Equal(t, domain.TierHard, triple[2].Tier)

	require.Len(t, fake.calls, 1)
	params := fake.calls[0]
	assert.Equal(t, "claude-test", string(params.Model))
	assert.Equal(t, int64(maxTokens), params.MaxTokens)
	require.Len(t, params.System, 1)
	assert.Equal(t, generation.SystemInstruction, params.System[0].Text)
	require.Len(t, params.Messages, 1)
	assert.Equal(t, anthropic.MessageParamRoleUser, params.Messages[0].Role)
	assert.Equal(t, 0.5, params.Temperature.Value)
	assert.Equal(t, 0.8, params.TopP.Value)
}

func TestGenerateSentencesJoinsTextBlocks(t *testing.T) {
	t.Parallel()

	half := len(tripleJSON) / 2
	fake := &fakeMessages{replay: []func() (*anthropic.Message, error){
		reply(anthropic.StopReasonEndTurn, tripleJSON[:half], tripleJSON[half:]),
	}}
	g := newTestGenerator(t, fake)

	triple, err := g.GenerateSentences(context.Background(), sentenceReq)
	require.NoError(t, err)
	assert.Equal(t, "今天天气很好。", triple[1].Hanzi)
}

func TestGenerateWordList(t *testing.T) {
	t.Parallel()

	fake := &fakeMessages{replay: []func() (*anthropic.Message, error){
		reply(anthropic.StopReasonEndTurn, "```json\n"+`{"words":[{"hanzi":"猫","pinyin":"māo","english":"cat"}]}`+"\n```"),
	}}
	g := newTestGenerator(t, fake)

	words, err := g.GenerateWordList(context.Background(), generation.WordListRequest{
		Topic: "Pets", Level: "HSK1", Count: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.WordCandidate{{Hanzi: "猫", Pinyin: "māo", English: "cat"}}, words)
	assert.False(t, fake.calls[0].Temperature.Valid())
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		replay []func() (*anthropic.Message, error)
		want   error
		calls  int
	}{
		{"refusal", []func() (*anthropic.Message, error){reply(anthropic.StopReasonRefusal)}, generation.ErrContentBlocked, 1},
		{"empty reply", []func() (*anthropic.Message, error){reply(anthropic.StopReasonEndTurn, " ")}, generation.ErrInvalidResponse, 1},
		{"unauthorized", []func() (*anthropic.Message, error){apiError(http.StatusUnauthorized)}, generation.ErrInvalidConfig, 1},
		{"bad request", []func() (*anthropic.Message, error){apiError(http.StatusBadRequest)}, generation.ErrInvalidRequest, 1},
		{"overloaded", []func() (*anthropic.Message, error){apiError(529)}, generation.ErrTransientFailure, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := &fakeMessages{replay: tt.replay}
			g := newTestGenerator(t, fake)

			_, err := g.GenerateSentences(context.Background(), sentenceReq)
			assert.ErrorIs(t, err, tt.want)
			assert.Len(t, fake.calls, tt.calls)
		})
	}
}

func TestRateLimitRecovers(t *testing.T) {
	t.Parallel()

	fake := &fakeMessages{replay: []func() (*anthropic.Message, error){
		apiError(http.StatusTooManyRequests),
		reply(anthropic.StopReasonEndTurn, tripleJSON),
	}}
	g := newTestGenerator(t, fake)

	_, err := g.GenerateSentences(context.Background(), sentenceReq)
	require.NoError(t, err)
	assert.Len(t, fake.calls, 2)
}

func TestNewGeneratorValidation(t *testing.T) {
	t.Parallel()

	prompts, err := generation.LoadPrompts("", "")
	require.NoError(t, err)

	_, err = NewGenerator(logger.Discard(), config.LLMConfig{ModelName: "m"}, prompts)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewGenerator(logger.Discard(), config.LLMConfig{AnthropicAPIKey: "k"}, prompts)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	g, err := NewGenerator(logger.Discard(), config.LLMConfig{
		AnthropicAPIKey: "k", ModelName: "m", AnthropicBaseURL: "http://localhost:8089",
	}, prompts)
	require.NoError(t, err)
	assert.NotNil(t, g)
}
