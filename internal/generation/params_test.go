package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryParamsFor(t *testing.T) {
	t.Parallel()

	first := RetryParamsFor(1)
	require.NotNil(t, first.Temperature)
	assert.Equal(t, 0.7, *first.Temperature)
	assert.Equal(t, 0.95, *first.TopP)
	assert.Nil(t, first.PresencePenalty)

	second := RetryParamsFor(2)
	assert.Greater(t, *second.Temperature, *first.Temperature)
	assert.Equal(t, 0.6, *second.PresencePenalty)
	assert.Equal(t, 0.4, *second.FrequencyPenalty)
	assert.Nil(t, second.TopP)

	third := RetryParamsFor(3)
	assert.Equal(t, 0.5, *third.Temperature)
	assert.Equal(t, 0.8, *third.TopP)
	assert.Equal(t, 0.8, *third.FrequencyPenalty)

	assert.Equal(t, 1, RetryParamsFor(0).Attempt)
	assert.Equal(t, *third.Temperature, *RetryParamsFor(7).Temperature)
}
