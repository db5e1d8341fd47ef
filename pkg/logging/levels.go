package logging

import (
	"go.uber.org/zap/zapcore"
)

// TraceLevel is a custom level below Debug for ultra-verbose logging.
// Value: -2 (Debug is -1, Info is 0)
//
// Almost always filtered in production.
const TraceLevel = zapcore.Level(-2)

// LevelFromString parses a string into a zapcore.Level, supporting "trace".
func LevelFromString(level string) (zapcore.Level, error) {
	if level == "trace" {
		return TraceLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}

// LevelOrInfo parses a string into a zapcore.Level, falling back to Info for
// empty or unparsable input. Logging configuration must never prevent
// startup, so this never fails.
func LevelOrInfo(level string) zapcore.Level {
	l, err := LevelFromString(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}
