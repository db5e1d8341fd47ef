package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input   string
		want    zapcore.Level
		wantErr bool
	}{
		{input: "trace", want: TraceLevel},
		{input: "debug", want: zapcore.DebugLevel},
		{input: "info", want: zapcore.InfoLevel},
		{input: "warn", want: zapcore.WarnLevel},
		{input: "error", want: zapcore.ErrorLevel},
		{input: "verbose", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := LevelFromString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelOrInfo(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, LevelOrInfo("debug"))
	assert.Equal(t, TraceLevel, LevelOrInfo("trace"))

	// Unparsable or absent values fall back to info rather than failing.
	assert.Equal(t, zapcore.InfoLevel, LevelOrInfo("verbose"))
	assert.Equal(t, zapcore.InfoLevel, LevelOrInfo(""))
}

func TestTraceLevel_BelowDebug(t *testing.T) {
	assert.True(t, TraceLevel < zapcore.DebugLevel)
}
