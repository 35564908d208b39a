package generation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/cizu-api/internal/domain"
)

func TestDefaultPromptsRender(t *testing.T) {
	t.Parallel()

	prompts, err := LoadPrompts("", "")
	require.NoError(t, err)

	t.Run("word list", func(t *testing.T) {
		out, err := prompts.WordList(WordListRequest{
			Topic: "At the market", Level: "HSK2", Count: 8, Exclude: []string{"苹果", "香蕉"},
		})
		require.NoError(t, err)
		assert.Contains(t, out, "At the market")
		assert.Contains(t, out, "exactly 8")
		assert.Contains(t, out, "苹果、香蕉")
	})

	t.Run("sentences with steering", func(t *testing.T) {
		out, err := prompts.Sentences(SentenceRequest{
			Word:          domain.WordCandidate{Hanzi: "猫", Pinyin: "māo", English: "cat"},
			Topic:         "Pets",
			Level:         "HSK1",
			GrammarHint:   "是…的",
			AvoidOpeners:  []string{"我的猫"},
			AvoidPatterns: []string{"我的猫很可爱"},
			Styles:        []string{"question", "chat reply"},
			Contexts:      []string{"at home"},
		})
		require.NoError(t, err)
		assert.Contains(t, out, "猫 (māo)")
		assert.Contains(t, out, `"是…的"`)
		assert.Contains(t, out, "question, chat reply")
		assert.Contains(t, out, "at home")
		assert.Contains(t, out, "Do not start any sentence with: 我的猫")
		assert.Contains(t, out, "我的猫很可爱")
	})

	t.Run("sentences without hints", func(t *testing.T) {
		out, err := prompts.Sentences(SentenceRequest{
			Word:  domain.WordCandidate{Hanzi: "好", Pinyin: "hǎo", English: "good"},
			Topic: "Greetings",
		})
		require.NoError(t, err)
		assert.NotContains(t, out, "Do not start")
		assert.Contains(t, out, `"grammar_tag" to null on every sentence`)
	})

	t.Run("invalid request", func(t *testing.T) {
		_, err := prompts.WordList(WordListRequest{Topic: "x"})
		assert.ErrorIs(t, err, ErrInvalidRequest)
		_, err = prompts.Sentences(SentenceRequest{Topic: "x"})
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestLoadPromptsOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	custom := filepath.Join(dir, "words.tmpl")
	require.NoError(t, os.WriteFile(custom, []byte(`{{.Count}} words about {{.Topic}}`), 0o600))

	prompts, err := LoadPrompts(custom, "")
	require.NoError(t, err)
	out, err := prompts.WordList(WordListRequest{Topic: "weather", Count: 4})
	require.NoError(t, err)
	assert.Equal(t, "4 words about weather", out)

	_, err = LoadPrompts(filepath.Join(dir, "missing.tmpl"), "")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	broken := filepath.Join(dir, "broken.tmpl")
	require.NoError(t, os.WriteFile(broken, []byte(`{{.Topic`), 0o600))
	_, err = LoadPrompts("", broken)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
