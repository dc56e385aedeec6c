package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrStop may be returned by a RowFunc to end iteration early without
// reporting an error.
var ErrStop = errors.New("stop row iteration")

// Row is a single result row. Values are parallel to Columns and are NULL
// when the column was NULL.
type Row struct {
	Columns []string
	Values  []sql.NullString
}

// Value returns the value of the named column.
func (r Row) Value(column string) (sql.NullString, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return sql.NullString{}, false
}

// RowFunc is invoked once per result row.
type RowFunc func(Row) error

// Querier is the dispatch surface used by the boot stages and the profile
// repository.
type Querier interface {
	Query(ctx context.Context, stmt string, fn RowFunc, args ...any) error
	Exec(ctx context.Context, stmt string, args ...any) error
}

var _ Querier = (*Store)(nil)

// Query opens the database if needed, runs stmt and calls fn for each row.
// Errors from the engine are returned wrapped; there is no retry.
func (s *Store) Query(ctx context.Context, stmt string, fn RowFunc, args ...any) error {
	if err := s.Open(ctx); err != nil {
		return err
	}

	rows, err := s.conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("sql error: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("sql error: %w", err)
	}

	n := 0
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("sql error: scan row %d: %w", n, err)
		}
		n++

		if fn == nil {
			continue
		}
		if err := fn(Row{Columns: columns, Values: values}); err != nil {
			if errors.Is(err, ErrStop) {
				s.logger.Debug("row iteration stopped", zap.Int("rows", n))
				return nil
			}
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sql error: %w", err)
	}

	s.logger.Debug("query dispatched", zap.Int("rows", n))
	return nil
}

// Exec opens the database if needed and runs stmt, which may contain
// several statements when no args are given.
func (s *Store) Exec(ctx context.Context, stmt string, args ...any) error {
	if err := s.Open(ctx); err != nil {
		return err
	}
	if _, err := s.conn.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("sql error: %w", err)
	}
	return nil
}
