package logging

import (
	"errors"
	"os"
	"syscall"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewEncoder creates a JSON or console encoder. Any format other than
// "console" yields JSON.
func NewEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}

// NewWriterCore creates a core that writes encoded records to w, filtered at
// the given level.
func NewWriterCore(w zapcore.WriteSyncer, level zapcore.LevelEnabler, format string) zapcore.Core {
	return zapcore.NewCore(NewEncoder(format), w, level)
}

// NewStdoutCore creates a core that writes encoded records to stdout,
// filtered at the given level.
func NewStdoutCore(level zapcore.LevelEnabler, format string) zapcore.Core {
	return NewWriterCore(zapcore.AddSync(os.Stdout), level, format)
}

// NewOTelCore creates a core that forwards records to an OpenTelemetry
// LoggerProvider through the otelzap bridge. scope names the instrumentation
// scope.
func NewOTelCore(scope string, provider otellog.LoggerProvider) zapcore.Core {
	return otelzap.NewCore(scope,
		otelzap.WithLoggerProvider(provider),
	)
}

// Tee combines cores into one. Every record is offered to every core; each
// core applies its own level filter independently.
func Tee(cores ...zapcore.Core) zapcore.Core {
	if len(cores) == 1 {
		return cores[0]
	}
	return zapcore.NewTee(cores...)
}

// Sync flushes buffered entries, ignoring the harmless errors that syncing
// stdout/stderr produces on Linux (EINVAL, ENOTTY).
func Sync(l *zap.Logger) error {
	err := l.Sync()
	if err != nil && isStdoutSyncError(err) {
		return nil
	}
	return err
}

func isStdoutSyncError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EINVAL || errno == syscall.ENOTTY
	}
	return false
}
