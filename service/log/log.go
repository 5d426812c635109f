package log

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var defaultLogger *zap.Logger

func init() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(levelFromEnv())

	var err error
	if defaultLogger, err = cfg.Build(); err != nil {
		defaultLogger = zap.NewNop()
	}
}

// levelFromEnv reads LOG_LEVEL (debug, info, warn, error...). LOG_DEBUG=1 is a shortcut for debug.
func levelFromEnv() zapcore.Level {
	if os.Getenv("LOG_DEBUG") != "" {
		return zapcore.DebugLevel
	}
	level := zapcore.InfoLevel
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		if err := level.UnmarshalText([]byte(l)); err != nil {
			return zapcore.InfoLevel
		}
	}
	return level
}

// Logger returns the logger attached to the context, or the default logger
func Logger(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
			return l
		}
	}
	return defaultLogger
}

// With returns a context whose logger carries the given fields
func With(ctx context.Context, fields ...zap.Field) context.Context {
	return WithLogger(ctx, Logger(ctx).With(fields...))
}

// WithLogger attaches the logger to the context
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Fatal logs with the default logger and exits
func Fatal(msg string, fields ...zap.Field) {
	defaultLogger.Fatal(msg, fields...)
}
