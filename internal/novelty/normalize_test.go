package novelty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"cjk punctuation", "我 喜欢，你！", "我喜欢你"},
		{"ascii punctuation", "Hi, 你好!", "Hi你好"},
		{"quotes and brackets", "他说：“好（的）。”", "他说好的"},
		{"empty", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestOpener(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"stops at comma", "你好，世界。", "你好"},
		{"stops at full stop", "我饿了。你呢？", "我饿了"},
		{"ascii mark", "OK, 走吧", "OK"},
		{"capped without a mark", "我喜欢吃苹果和香蕉", "我喜欢吃苹果和香"},
		{"short without a mark", "好的", "好的"},
		{"ignores whitespace", "  我 们，走", "我们"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Opener(tt.in))
		})
	}
}

func TestPatternPrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "虽然很累但是我觉得这", PatternPrefix("虽然很累，但是我觉得这本书写得很好。"))
	assert.Equal(t, "好的", PatternPrefix("好的！"))
}

func TestJaccard(t *testing.T) {
	t.Parallel()

	t.Run("single character and punctuation change is a near-duplicate", func(t *testing.T) {
		a := Bigrams(Normalize("我们今天在公园里散步，很开心。"))
		b := Bigrams(Normalize("我们今天在公园里跑步很开心！"))
		score := Jaccard(a, b)
		assert.Greater(t, score, NearDuplicateThreshold)
		assert.InDelta(t, 10.0/14.0, score, 1e-9)
	})

	t.Run("no shared bigrams", func(t *testing.T) {
		a := Bigrams(Normalize("猫喜欢吃鱼。"))
		b := Bigrams(Normalize("明天下雨吗？"))
		assert.Zero(t, Jaccard(a, b))
	})

	t.Run("empty set", func(t *testing.T) {
		assert.Zero(t, Jaccard(Bigrams("好"), Bigrams("好的")))
		assert.Zero(t, Jaccard(nil, nil))
	})

	t.Run("identical", func(t *testing.T) {
		a := Bigrams("今天天气很好")
		assert.Equal(t, 1.0, Jaccard(a, a))
	})
}

func TestHasNaturalEnding(t *testing.T) {
	t.Parallel()

	assert.True(t, HasNaturalEnding("好。"))
	assert.True(t, HasNaturalEnding("真的吗？"))
	assert.True(t, HasNaturalEnding("他说：“好。”"))
	assert.True(t, HasNaturalEnding("Really? "))
	assert.False(t, HasNaturalEnding("好"))
	assert.False(t, HasNaturalEnding("我觉得，"))
	assert.False(t, HasNaturalEnding(""))
}
