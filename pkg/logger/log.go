// Package logger wraps zap with a small structured-field API shared
// by every component.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a wrapper around zap.Logger to provide structured logging.
type Logger struct {
	logger *zap.Logger
}

// Field holds a key-value pair to be written to the log.
type Field struct {
	Key   string
	Value any
}

// NewField returns a Field with the given key and value.
func NewField(key string, value any) Field {
	return Field{key, value}
}

// Level represents the minimum severity that will be logged.
type Level string

var (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

func (level Level) zapLevel() zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Options configures the logger.
type Options struct {
	level       Level
	outputPaths []string
}

// WithLoggingLevel sets the minimum level written; info by default.
func WithLoggingLevel(level Level) Options {
	return Options{level: level}
}

// WithOutputPaths sets the log sinks. "stdout" and "stderr" are
// interpreted as the process streams.
func WithOutputPaths(paths []string) Options {
	return Options{outputPaths: paths}
}

// NewLogger creates a Logger from zap's production config plus the
// given options.
func NewLogger(opts ...Options) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.MessageKey = "message"

	for _, opt := range opts {
		if opt.level != "" {
			cfg.Level = zap.NewAtomicLevelAt(opt.level.zapLevel())
		}
		if opt.outputPaths != nil {
			cfg.OutputPaths = opt.outputPaths
		}
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{logger: l}, nil
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.logger.Sync()
}

// GetZap returns the underlying zap.Logger.
func (l *Logger) GetZap() *zap.Logger {
	return l.logger
}

// Debug writes a log entry with severity debug.
func (l *Logger) Debug(message string, fields ...Field) {
	l.logger.Debug(message, convertFields(fields...)...)
}

// Info writes a log entry with severity info.
func (l *Logger) Info(message string, fields ...Field) {
	l.logger.Info(message, convertFields(fields...)...)
}

// Warn writes a log entry with severity warn.
func (l *Logger) Warn(message string, fields ...Field) {
	l.logger.Warn(message, convertFields(fields...)...)
}

// Error writes a log entry with severity error.
func (l *Logger) Error(err error, fields ...Field) {
	l.logger.Error(err.Error(), convertFields(fields...)...)
}

// WithFields returns a child logger carrying the extra fields.
func (l *Logger) WithFields(fields ...Field) *Logger {
	return &Logger{logger: l.logger.With(convertFields(fields...)...)}
}

func convertFields(fields ...Field) []zapcore.Field {
	zapFields := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		zapFields = append(zapFields, zap.Any(f.Key, f.Value))
	}
	return zapFields
}
