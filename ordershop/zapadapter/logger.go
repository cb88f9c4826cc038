// Package zapadapter adapts go.uber.org/zap to the ordershop logging
// interfaces, for applications that already run on zap instead of slog.
package zapadapter

import (
	"context"

	"go.uber.org/zap"

	"github.com/shopkernel/ordershop-go/ordershop"
)

// Logger implements ordershop.Logger and ordershop.ContextualLogger on a
// zap.SugaredLogger. The key-value argument convention maps directly onto
// zap's sugared *w methods. Zap carries no request context, so the Context
// variants delegate to the plain ones.
type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger wraps the given zap logger.
func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{sugar: logger.Sugar()}
}

// NewDevelopmentLogger creates a logger on zap's development config,
// falling back to a no-op logger if building it fails.
func NewDevelopmentLogger() *Logger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		logger = zap.NewNop()
	}

	return NewLogger(logger)
}

// NewProductionLogger creates a logger on zap's production config,
// falling back to a no-op logger if building it fails.
func NewProductionLogger() *Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}

	return NewLogger(logger)
}

// Debug logs a debug message with key-value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

// Info logs an info message with key-value pairs.
func (l *Logger) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

// Warn logs a warning message with key-value pairs.
func (l *Logger) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

// Error logs an error message with key-value pairs.
func (l *Logger) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

// DebugContext logs a debug message; the context is not used.
func (l *Logger) DebugContext(_ context.Context, msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

// InfoContext logs an info message; the context is not used.
func (l *Logger) InfoContext(_ context.Context, msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

// WarnContext logs a warning message; the context is not used.
func (l *Logger) WarnContext(_ context.Context, msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

// ErrorContext logs an error message; the context is not used.
func (l *Logger) ErrorContext(_ context.Context, msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

var _ ordershop.Logger = (*Logger)(nil)
var _ ordershop.ContextualLogger = (*Logger)(nil)
