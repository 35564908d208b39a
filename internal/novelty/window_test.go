package novelty

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow_EvictsOldestFirst(t *testing.T) {
	t.Parallel()

	w := NewWindow(OpenerWindowSize)
	inserted := make([]string, 30)
	for i := range inserted {
		inserted[i] = fmt.Sprintf("opener-%02d", i)
		w.Add(inserted[i])
	}

	require.Equal(t, 25, w.Len())
	assert.Equal(t, inserted[5:], w.Items())
	for _, evicted := range inserted[:5] {
		assert.False(t, w.Contains(evicted), "%s should have been evicted", evicted)
	}
	for _, kept := range inserted[5:] {
		assert.True(t, w.Contains(kept))
	}
}

func TestWindow_ReinsertIsNoop(t *testing.T) {
	t.Parallel()

	w := NewWindow(2)
	w.Add("a")
	w.Add("b")
	w.Add("a")
	assert.Equal(t, []string{"a", "b"}, w.Items())

	w.Add("c")
	assert.Equal(t, []string{"b", "c"}, w.Items())
}

func TestWindow_IgnoresEmpty(t *testing.T) {
	t.Parallel()

	w := NewWindow(3)
	w.Add("")
	assert.Zero(t, w.Len())
}
