package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/cizu-api/internal/config"
	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/generation"
	"github.com/phrazzld/cizu-api/internal/platform/logger"
)

type fakeCompletions struct {
	mu     sync.Mutex
	calls  []openai.ChatCompletionNewParams
	replay []func() (*openai.ChatCompletion, error)
}

func (f *fakeCompletions) New(
	_ context.Context,
	body openai.ChatCompletionNewParams,
	_ ...option.RequestOption,
) (*openai.ChatCompletion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, body)
	i := len(f.calls) - 1
	if i >= len(f.replay) {
		i = len(f.replay) - 1
	}
	return f.replay[i]()
}

func reply(content, finish string) func() (*openai.ChatCompletion, error) {
	return func() (*openai.ChatCompletion, error) {
		return &openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{{
			FinishReason: finish,
			Message:      openai.ChatCompletionMessage{Content: content},
		}}}, nil
	}
}

func apiError(status int) func() (*openai.ChatCompletion, error) {
	return func() (*openai.ChatCompletion, error) {
		return nil, &openai.Error{
			StatusCode: status,
			Request:    httptest.NewRequest(http.MethodPost, "https://api.example.com/v1/chat/completions", nil),
			Response:   &http.Response{StatusCode: status},
		}
	}
}

func newTestGenerator(t *testing.T, fake *fakeCompletions) *Generator {
	t.Helper()
	prompts, err := generation.LoadPrompts("", "")
	require.NoError(t, err)
	g, err := newGenerator(logger.Discard(), fake, config.LLMConfig{
		ModelName: "gpt-test", MaxRetries: 1, RetryDelaySeconds: 1,
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

const tripleJSON = "```json\n" + `{"sentences":[
	{"tier":"easy","hanzi":"你好！","pinyin":"nǐ hǎo!","english":"Hello!","grammar_tag":null,"style":"greeting"},
	{"tier":"same","hanzi":"今天天气很好。","pinyin":"jīntiān tiānqì hěn hǎo.","english":"The weather is nice today.","grammar_tag":null,"style":"statement"},
	{"tier":"hard","hanzi":"虽然很累，但是心情很好。","pinyin":"suīrán hěn lèi, dànshì xīnqíng hěn hǎo.","english":"Tired but happy.","grammar_tag":null,"style":"statement"}
]}` + "\n```"

func TestGenerateSentences(t *testing.T) {
	t.Parallel()

	fake := &fakeCompletions{replay: []func() (*openai.ChatCompletion, error){reply(tripleJSON, "stop")}}
	g := newTestGenerator(t, fake)

	triple, err := g.GenerateSentences(context.Background(), sentenceReq)
	require.NoError(t, err)
	assert.Equal(t, "你好！", triple[0].Hanzi)

	require.Len(t, fake.calls, 1)
	params := fake.calls[0]
	assert.Equal(t, "gpt-test", string(params.Model))
	assert.Len(t, params.Messages, 2)
	assert.Equal(t, 0.5, params.Temperature.Value)
	assert.Equal(t, 0.8, params.TopP.Value)
	assert.Equal(t, 0.8, params.FrequencyPenalty.Value)
	assert.NotNil(t, params.ResponseFormat.OfJSONObject)
}

func TestGenerateWordList(t *testing.T) {
	t.Parallel()

	fake := &fakeCompletions{replay: []func() (*openai.ChatCompletion, error){
		reply(`{"words":[{"hanzi":"猫","pinyin":"māo","english":"cat"}]}`, "stop"),
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
		replay []func() (*openai.ChatCompletion, error)
		want   error
		calls  int
	}{
		{"content filter", []func() (*openai.ChatCompletion, error){reply("", finishReasonContentFilter)}, generation.ErrContentBlocked, 1},
		{"empty reply", []func() (*openai.ChatCompletion, error){reply("  ", "stop")}, generation.ErrInvalidResponse, 1},
		{"unauthorized", []func() (*openai.ChatCompletion, error){apiError(http.StatusUnauthorized)}, generation.ErrInvalidConfig, 1},
		{"bad request", []func() (*openai.ChatCompletion, error){apiError(http.StatusBadRequest)}, generation.ErrInvalidRequest, 1},
		{"rate limited", []func() (*openai.ChatCompletion, error){apiError(http.StatusTooManyRequests)}, generation.ErrTransientFailure, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := &fakeCompletions{replay: tt.replay}
			g := newTestGenerator(t, fake)

			_, err := g.GenerateSentences(context.Background(), sentenceReq)
			assert.ErrorIs(t, err, tt.want)
			assert.Len(t, fake.calls, tt.calls)
		})
	}
}

func TestRateLimitRecovers(t *testing.T) {
	t.Parallel()

	fake := &fakeCompletions{replay: []func() (*openai.ChatCompletion, error){
		apiError(http.StatusTooManyRequests),
		reply(tripleJSON, "stop"),
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

	_, err = NewGenerator(logger.Discard(), config.LLMConfig{OpenAIAPIKey: "k"}, prompts)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	g, err := NewGenerator(logger.Discard(), config.LLMConfig{
		OpenAIAPIKey: "k", ModelName: "m", OpenAIBaseURL: "http://localhost:11434/v1",
	}, prompts)
	require.NoError(t, err)
	assert.NotNil(t, g)
}
