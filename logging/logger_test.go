package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{" DEBUG ", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warning", LogLevelWarn},
		{"warn", LogLevelWarn},
		{"error", LogLevelError},
		{"verbose", LogLevelInfo},
		{"", LogLevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestWorldLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf, Component: "worldloop"})

	l.Debug("hidden")
	l.WithContext("run", 7).Info("task started task=%s", "(greet human_1)")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "task started task=(greet human_1)", entry["msg"])
	assert.Equal(t, "worldloop", entry["component"])
	assert.Equal(t, float64(7), entry["run"])
}

func TestWorldLogger_WithContextDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf})
	_ = base.WithContext("human", "human_1")

	base.Warn("plain")
	assert.NotContains(t, buf.String(), "human_1")
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "text", Output: &buf, Component: "worldloop"})

	Component(base, "tracker").Error("consistency check failed")
	assert.Contains(t, buf.String(), "component=worldloop.tracker")

	assert.Equal(t, NoOpLogger{}, Component(NoOpLogger{}, "tracker"))
}

func TestSlogAdapter_FormatsMessages(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))

	l.Info("planning found plan tasks=%d", 2)
	l.Warn("100% literal")

	out := buf.String()
	assert.Contains(t, out, `msg="planning found plan tasks=2"`)
	assert.Contains(t, out, `msg="100% literal"`)
}

func TestZapAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Component(NewZapLogger(zap.New(core)), "controller")

	l.Debug("skipping search version=%d", 3)
	l.Error("cannot start task task=%s", "greet")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "skipping search version=3", entries[0].Message)
	assert.Equal(t, "controller", entries[0].LoggerName)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestNewZapLogger_Nil(t *testing.T) {
	assert.NotPanics(t, func() { NewZapLogger(nil).Info("discarded") })
}
