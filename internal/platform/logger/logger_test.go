package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/cizu-api/internal/config"
)

func TestSetupLevels(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	tests := []struct {
		level      string
		debugShown bool
		infoShown  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"WARN", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &TestLogBuffer{}
			l := setup(buf, config.ServerConfig{LogLevel: tt.level})

			l.Debug("debug message")
			l.Info("info message")

			assert.Equal(t, tt.debugShown, contains(buf, "debug message"))
			assert.Equal(t, tt.infoShown, contains(buf, "info message"))
			assert.Same(t, l, slog.Default())
		})
	}
}

func TestSetupWritesJSON(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &TestLogBuffer{}
	l := setup(buf, config.ServerConfig{LogLevel: "info"})
	l.Info("run finished", slog.String("topic_id", "abc"), slog.Int("words", 2))

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run finished", entries[0]["msg"])
	assert.Equal(t, "abc", entries[0]["topic_id"])
	assert.EqualValues(t, 2, entries[0]["words"])
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	custom, _ := NewCaptureLogger()
	fallback := Discard()

	ctx := WithLogger(context.Background(), custom)
	assert.Same(t, custom, FromContext(ctx))
	assert.Same(t, custom, FromContextOrDefault(ctx, fallback))

	assert.Same(t, fallback, FromContextOrDefault(context.Background(), fallback))
	assert.NotNil(t, FromContext(context.Background()))
	assert.NotNil(t, FromContextOrDefault(nil, nil)) //nolint:staticcheck // nil context is handled
}

func contains(buf *TestLogBuffer, s string) bool {
	entries, err := buf.Entries()
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e["msg"] == s {
			return true
		}
	}
	return false
}
