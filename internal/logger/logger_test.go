package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelWarn)
	log.Info("should not appear")
	assert.Zero(t, buf.Len())

	log.Warn("should appear", "key", "value")
	assert.Contains(t, buf.String(), "should appear")
	assert.Contains(t, buf.String(), `"key":"value"`)
}

func TestWith(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Text(&buf, slog.LevelDebug).With("component", "cpu")
	log.Debug("dispatch")
	assert.Contains(t, buf.String(), "component=cpu")
	assert.Contains(t, buf.String(), "dispatch")
}

func TestMake(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	Make(&buf, "JSON", "debug").Debug("json record")
	assert.Contains(t, buf.String(), `"msg":"json record"`)

	buf.Reset()
	Make(&buf, "pretty", "error").Warn("dropped")
	assert.Zero(t, buf.Len())
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() { Discard().Error("nothing") })
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)

	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info("roundtrip test")
	assert.Contains(t, buf.String(), "roundtrip test")
	assert.NotNil(t, FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, ParseLevel(tc.input), tc.input)
	}
}
