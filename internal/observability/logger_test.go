package observability

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, parseLevel(tc.in), tc.in)
	}
}

func TestNewLogger_Handlers(t *testing.T) {
	_, isJSON := NewLogger("info", "json").Handler().(*slog.JSONHandler)
	assert.True(t, isJSON)

	_, isText := NewLogger("info", "text").Handler().(*slog.TextHandler)
	assert.True(t, isText)

	assert.False(t, NewLogger("warn", "json").Enabled(t.Context(), slog.LevelInfo))
}
