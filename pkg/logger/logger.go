// Package logger keeps a zap logger in the context so request and job scoped
// fields follow the work through the scanner, the API and the worker.
package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DevelopmentEnvironment logs human readable lines at debug level.
	DevelopmentEnvironment = "development"
	// ProductionEnvironment logs JSON at info level.
	ProductionEnvironment = "production"
)

// defaultLogger is returned when the context carries none. It discards
// everything until Setup runs, which keeps package tests quiet.
var defaultLogger = zap.NewNop() //nolint: gochecknoglobals

type ctxKey struct{}

// Setup replaces the default logger. A non-empty level overrides the
// environment's level. An unparsable level is returned as an error, but the
// logger is still installed with the environment's level.
func Setup(environment string, level string) error {
	cfg := zap.NewDevelopmentConfig()
	if environment == ProductionEnvironment {
		cfg = zap.NewProductionConfig()
	}

	var levelErr error
	if level != "" {
		if lvl, err := zapcore.ParseLevel(level); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		} else {
			levelErr = fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("could not build logger: %w", err)
	}
	defaultLogger = l

	return levelErr
}

// Sync flushes the default logger.
func Sync() {
	_ = defaultLogger.Sync()
}

// Get returns the context's logger, or the default one.
func Get(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}

	return defaultLogger
}

// WithLogger attaches l to ctx.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// WithFields returns a context whose logger adds fields to every entry.
func WithFields(ctx context.Context, fields ...zapcore.Field) context.Context {
	return WithLogger(ctx, Get(ctx).With(fields...))
}

// IsDebug reports whether debug entries would be written.
func IsDebug(ctx context.Context) bool {
	return Get(ctx).Core().Enabled(zap.DebugLevel)
}

func Debug(ctx context.Context, msg string, fields ...zapcore.Field) { Get(ctx).Debug(msg, fields...) }

func Info(ctx context.Context, msg string, fields ...zapcore.Field) { Get(ctx).Info(msg, fields...) }

func Warn(ctx context.Context, msg string, fields ...zapcore.Field) { Get(ctx).Warn(msg, fields...) }

func Error(ctx context.Context, msg string, fields ...zapcore.Field) { Get(ctx).Error(msg, fields...) }

// Fatal logs and exits the process.
func Fatal(ctx context.Context, msg string, fields ...zapcore.Field) { Get(ctx).Fatal(msg, fields...) }
