package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		enabled zapcore.Level
		skipped zapcore.Level
	}{
		{"debug console", "debug", "console", zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"info json", "info", "json", zapcore.InfoLevel, zapcore.DebugLevel},
		{"warn json", "warn", "json", zapcore.WarnLevel, zapcore.InfoLevel},
		{"unknown falls back to info", "verbose", "text", zapcore.InfoLevel, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.level, tt.format)
			require.NoError(t, err)

			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.skipped))
		})
	}
}
