package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopkernel/ordershop-go/ordershop"
	"github.com/shopkernel/ordershop-go/ordershop/postgresengine/internal/adapters"
)

const (
	metricQueryDuration      = "ordershop_query_duration_seconds"
	metricCommandDuration    = "ordershop_command_duration_seconds"
	metricStatementsPerQuery = "ordershop_statements_per_query"
	metricDatabaseErrors     = "ordershop_database_errors_total"

	spanNameQueryOrders    = "ordershop.query_orders"
	spanNameQueryViews     = "ordershop.query_order_views"
	spanNameQueryFlat      = "ordershop.query_orders_flat"
	spanNameCreateOrder    = "ordershop.create_order"
	spanNameCancelOrder    = "ordershop.cancel_order"
	spanNameRegisterMember = "ordershop.register_member"

	spanAttrOperation  = "operation"
	spanAttrStrategy   = "strategy"
	spanAttrErrorType  = "error_type"
	spanAttrOrderCount = "order_count"
	spanAttrStatements = "statement_count"
	spanAttrDurationMS = "duration_ms"

	statusSuccess = "success"
	statusError   = "error"

	errorTypeBuildQuery = "build_query"
	errorTypeQuery      = "query"
	errorTypeScan       = "scan"
	errorTypeExec       = "exec"
	errorTypeTx         = "transaction"
	errorTypeDomain     = "domain_rule"
)

// logDebug logs SQL statements with execution time at debug level,
// preferring the contextual logger when one is configured.
func (s OrderStore) logDebug(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// logOperation logs operational information at info level.
func (s OrderStore) logOperation(ctx context.Context, action string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}

	if s.logger != nil {
		s.logger.Info(logMsgOperation+action, args...)
	}
}

// logWarn logs non-critical issues at warn level.
func (s OrderStore) logWarn(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

// logError logs error information at the error level.
func (s OrderStore) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, msg, allArgs...)
		return
	}

	if s.logger != nil {
		s.logger.Error(msg, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (s OrderStore) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// recordDurationMetrics records duration metrics with context if the collector supports it.
func (s OrderStore) recordDurationMetrics(
	ctx context.Context,
	metricName string,
	duration time.Duration,
	operation, strategy, status string,
) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          status,
	}
	if strategy != "" {
		labels[spanAttrStrategy] = strategy
	}

	if contextualCollector, ok := s.metricsCollector.(ordershop.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricName, duration, labels)
	} else {
		s.metricsCollector.RecordDuration(metricName, duration, labels)
	}
}

// recordStatementCountMetrics records how many statements one loader call
// issued. The loader's contract caps this independent of the result size.
func (s OrderStore) recordStatementCountMetrics(ctx context.Context, operation, strategy string, statements int) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		spanAttrStrategy:  strategy,
	}

	if contextualCollector, ok := s.metricsCollector.(ordershop.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metricStatementsPerQuery, float64(statements), labels)
	} else {
		s.metricsCollector.RecordValue(metricStatementsPerQuery, float64(statements), labels)
	}
}

// recordErrorMetrics records error counters with context if the collector supports it.
func (s OrderStore) recordErrorMetrics(ctx context.Context, operation, errorType string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          statusError,
		spanAttrErrorType: errorType,
	}

	if contextualCollector, ok := s.metricsCollector.(ordershop.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricDatabaseErrors, labels)
	} else {
		s.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
	}
}

// startSpan starts a tracing span if the tracing collector is configured.
func (s OrderStore) startSpan(
	ctx context.Context,
	spanName string,
	operation string,
	strategy string,
) (context.Context, ordershop.SpanContext) {

	if s.tracingCollector == nil {
		return ctx, nil
	}

	spanAttrs := map[string]string{
		spanAttrOperation: operation,
	}
	if strategy != "" {
		spanAttrs[spanAttrStrategy] = strategy
	}

	return s.tracingCollector.StartSpan(ctx, spanName, spanAttrs)
}

// finishSpanSuccess finishes a span for a successful operation.
func (s OrderStore) finishSpanSuccess(span ordershop.SpanContext, attrs map[string]string) {
	if s.tracingCollector == nil || span == nil {
		return
	}

	span.SetStatus(statusSuccess)
	for key, value := range attrs {
		span.AddAttribute(key, value)
	}

	s.tracingCollector.FinishSpan(span, statusSuccess, attrs)
}

// finishSpanError finishes a span for a failed operation.
func (s OrderStore) finishSpanError(span ordershop.SpanContext, errorType string) {
	if s.tracingCollector == nil || span == nil {
		return
	}

	span.SetStatus(statusError)
	span.AddAttribute(spanAttrErrorType, errorType)

	s.tracingCollector.FinishSpan(span, statusError, map[string]string{spanAttrErrorType: errorType})
}

// spanCountAttrs builds the usual success attributes for loader spans.
func spanCountAttrs(orderCount int, statements int, duration time.Duration) map[string]string {
	return map[string]string{
		spanAttrOrderCount: fmt.Sprintf("%d", orderCount),
		spanAttrStatements: fmt.Sprintf("%d", statements),
		spanAttrDurationMS: formatDurationMS(duration),
	}
}

func formatDurationMS(duration time.Duration) string {
	return fmt.Sprintf("%.2f", float64(duration.Nanoseconds())/1e6)
}

/***** query/statement execution with timing *****/

// dbQuerier is satisfied by both the adapter itself and an open session.
type dbQuerier interface {
	Query(ctx context.Context, query string) (adapters.DBRows, error)
	Exec(ctx context.Context, query string) (adapters.DBResult, error)
}

// executeQuery executes the SQL query and returns rows with timing information.
func (s OrderStore) executeQuery(ctx context.Context, querier dbQuerier, action string, sqlQuery sqlQueryString) (
	adapters.DBRows,
	queryDuration,
	error,
) {

	start := time.Now()
	rows, queryErr := querier.Query(ctx, sqlQuery)
	duration := time.Since(start)
	s.logDebug(ctx, logMsgSQLExecuted+action, logAttrDurationMS, s.toMilliseconds(duration), logAttrQuery, sqlQuery)

	if queryErr != nil {
		s.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		s.recordErrorMetrics(ctx, action, errorTypeQuery)

		return nil, duration, errors.Join(ordershop.ErrQueryingOrdersFailed, queryErr)
	}

	return rows, duration, nil
}

// executeStatement executes a write statement and returns rows affected with timing information.
func (s OrderStore) executeStatement(ctx context.Context, querier dbQuerier, action string, sqlQuery sqlQueryString) (
	int64,
	queryDuration,
	error,
) {

	start := time.Now()
	result, execErr := querier.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	s.logDebug(ctx, logMsgSQLExecuted+action, logAttrDurationMS, s.toMilliseconds(duration), logAttrQuery, sqlQuery)

	if execErr != nil {
		s.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		s.recordErrorMetrics(ctx, action, errorTypeExec)

		return 0, duration, errors.Join(ordershop.ErrExecutingStatementFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		s.logError(ctx, logMsgDBExecFailed, rowsAffectedErr)

		return 0, duration, errors.Join(ordershop.ErrExecutingStatementFailed, rowsAffectedErr)
	}

	return rowsAffected, duration, nil
}

// closeRows safely closes database rows and logs any errors.
func (s OrderStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}
