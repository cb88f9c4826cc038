package postgresengine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopkernel/ordershop-go/ordershop/postgresengine/internal/adapters"
)

// recordingAdapter implements adapters.DBAdapter against canned result sets,
// recording every issued statement so that tests can assert the strategy
// selection and the statement count without a live database.
type recordingAdapter struct {
	queries      []string
	execs        []string
	resultSets   [][][]any
	rowsAffected []int64
	sessions     []*recordingSession
}

func newRecordingAdapter(resultSets ...[][]any) *recordingAdapter {
	return &recordingAdapter{resultSets: resultSets}
}

func (a *recordingAdapter) Query(_ context.Context, query string) (adapters.DBRows, error) {
	a.queries = append(a.queries, query)

	var rows [][]any
	if len(a.resultSets) > 0 {
		rows = a.resultSets[0]
		a.resultSets = a.resultSets[1:]
	}

	return &recordingRows{rows: rows}, nil
}

func (a *recordingAdapter) Exec(_ context.Context, query string) (adapters.DBResult, error) {
	a.execs = append(a.execs, query)

	affected := int64(1)
	if len(a.rowsAffected) > 0 {
		affected = a.rowsAffected[0]
		a.rowsAffected = a.rowsAffected[1:]
	}

	return recordingResult{rowsAffected: affected}, nil
}

func (a *recordingAdapter) BeginTx(_ context.Context) (adapters.DBSession, error) {
	session := &recordingSession{adapter: a}
	a.sessions = append(a.sessions, session)

	return session, nil
}

func (a *recordingAdapter) statementCount() int {
	return len(a.queries) + len(a.execs)
}

// recordingSession records statements through its adapter and tracks the
// commit/rollback outcome. Rollback after Commit is a no-op, matching the
// production adapters.
type recordingSession struct {
	adapter    *recordingAdapter
	committed  bool
	rolledBack bool
}

func (s *recordingSession) Query(ctx context.Context, query string) (adapters.DBRows, error) {
	return s.adapter.Query(ctx, query)
}

func (s *recordingSession) Exec(ctx context.Context, query string) (adapters.DBResult, error) {
	return s.adapter.Exec(ctx, query)
}

func (s *recordingSession) Commit(_ context.Context) error {
	s.committed = true

	return nil
}

func (s *recordingSession) Rollback(_ context.Context) error {
	if s.committed {
		return nil
	}

	s.rolledBack = true

	return nil
}

type recordingRows struct {
	rows  [][]any
	index int
}

func (r *recordingRows) Next() bool {
	if r.index >= len(r.rows) {
		return false
	}

	r.index++

	return true
}

func (r *recordingRows) Scan(dest ...any) error {
	row := r.rows[r.index-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan destination count %d does not match row width %d", len(dest), len(row))
	}

	for column, value := range row {
		if assignErr := assignScanValue(dest[column], value); assignErr != nil {
			return assignErr
		}
	}

	return nil
}

func (r *recordingRows) Close() error {
	return nil
}

type recordingResult struct {
	rowsAffected int64
}

func (r recordingResult) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

// assignScanValue copies a canned value into a scan destination, using nil as
// the NULL of a left-joined column.
func assignScanValue(dest any, value any) error {
	switch destination := dest.(type) {
	case *int64:
		switch typed := value.(type) {
		case int64:
			*destination = typed
		case int:
			*destination = int64(typed)
		default:
			return fmt.Errorf("can not scan %T into *int64", value)
		}
	case *int:
		switch typed := value.(type) {
		case int64:
			*destination = int(typed)
		case int:
			*destination = typed
		default:
			return fmt.Errorf("can not scan %T into *int", value)
		}
	case *string:
		typed, ok := value.(string)
		if !ok {
			return fmt.Errorf("can not scan %T into *string", value)
		}
		*destination = typed
	case *time.Time:
		typed, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("can not scan %T into *time.Time", value)
		}
		*destination = typed
	case *sql.NullInt64:
		if value == nil {
			*destination = sql.NullInt64{}
			return nil
		}
		switch typed := value.(type) {
		case int64:
			*destination = sql.NullInt64{Int64: typed, Valid: true}
		case int:
			*destination = sql.NullInt64{Int64: int64(typed), Valid: true}
		default:
			return fmt.Errorf("can not scan %T into *sql.NullInt64", value)
		}
	case *sql.NullString:
		if value == nil {
			*destination = sql.NullString{}
			return nil
		}
		typed, ok := value.(string)
		if !ok {
			return fmt.Errorf("can not scan %T into *sql.NullString", value)
		}
		*destination = sql.NullString{String: typed, Valid: true}
	default:
		return fmt.Errorf("unsupported scan destination %T", dest)
	}

	return nil
}

func newOrderStoreWithRecordingAdapter(adapter *recordingAdapter, options ...Option) OrderStore {
	store, err := newOrderStore(adapter, options...)
	if err != nil {
		panic(err)
	}

	return store
}
