package helper

import (
	"context"
	"sync"

	"github.com/shopkernel/ordershop-go/ordershop"
)

// ContextualLoggerSpy is a ContextualLogger implementation that captures
// contextual logging calls for testing.
type ContextualLoggerSpy struct {
	records     []ContextualLogRecord
	mu          sync.Mutex
	recordCalls bool
}

// ContextualLogRecord represents a recorded contextual log call.
type ContextualLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// NewContextualLoggerSpy creates a new ContextualLoggerSpy.
// Set recordCalls to true to capture all logging calls for inspection in tests.
func NewContextualLoggerSpy(recordCalls bool) *ContextualLoggerSpy {
	return &ContextualLoggerSpy{
		records:     make([]ContextualLogRecord, 0),
		recordCalls: recordCalls,
	}
}

// DebugContext captures a debug-level contextual log call.
func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.capture(ctx, "debug", msg, args...)
}

// InfoContext captures an info-level contextual log call.
func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.capture(ctx, "info", msg, args...)
}

// WarnContext captures a warn-level contextual log call.
func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.capture(ctx, "warn", msg, args...)
}

// ErrorContext captures an error-level contextual log call.
func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.capture(ctx, "error", msg, args...)
}

func (s *ContextualLoggerSpy) capture(ctx context.Context, level string, msg string, args ...any) {
	if !s.recordCalls {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	argsCopy := make([]any, len(args))
	copy(argsCopy, args)

	s.records = append(s.records, ContextualLogRecord{
		Level:   level,
		Message: msg,
		Args:    argsCopy,
		Context: ctx,
	})
}

// GetRecordCount returns the number of captured log calls.
func (s *ContextualLoggerSpy) GetRecordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// GetRecords returns a copy of all captured log calls.
func (s *ContextualLoggerSpy) GetRecords() []ContextualLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]ContextualLogRecord, len(s.records))
	copy(records, s.records)

	return records
}

// Reset clears all captured log calls.
func (s *ContextualLoggerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = s.records[:0]
}

// HasRecordWithMessage checks if a call with the given level and message was captured.
func (s *ContextualLoggerSpy) HasRecordWithMessage(level string, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.Level == level && record.Message == message {
			return true
		}
	}

	return false
}

var _ ordershop.ContextualLogger = (*ContextualLoggerSpy)(nil)
