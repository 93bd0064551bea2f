package logging

import (
	"bytes"
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
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewDropsTime(t *testing.T) {
	t.Setenv(LevelEnv, "")
	var buf bytes.Buffer
	log := New(&buf, false)

	log.Info("contract status", "contract", "HolographFeeManager")
	log.Debug("hidden")

	out := buf.String()
	assert.NotContains(t, out, "time=")
	assert.Contains(t, out, `msg="contract status" contract=HolographFeeManager`)
	assert.NotContains(t, out, "hidden")
}

func TestNewDebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, true)

	log.Debug("visible")

	assert.Contains(t, buf.String(), "source=")
	assert.Contains(t, buf.String(), "visible")
}
