package rowmap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/atdtech/dcdash"
)

// RowSource is the subset of *sql.Rows the stream reads.
type RowSource interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

var _ RowSource = (*sql.Rows)(nil)

var errConsumed = errors.New("rowmap: row stream already consumed")

// Rows streams src as RawRows. The sequence is lazy and finite, and it can
// be ranged over once: src is closed when iteration stops for any reason,
// and a second range yields a single error. Fetch failures wrap
// dcdash.ErrEngineQuery, except cancellation and timeouts, which surface as
// context errors.
func Rows(src RowSource) iter.Seq2[RawRow, error] {
	consumed := false
	return func(yield func(RawRow, error) bool) {
		if consumed {
			yield(nil, errConsumed)
			return
		}
		consumed = true
		defer src.Close()

		names, err := src.Columns()
		if err != nil {
			yield(nil, fetchError("reading columns", err))
			return
		}

		for src.Next() {
			values := make([]any, len(names))
			targets := make([]any, len(names))
			for i := range values {
				targets[i] = &values[i]
			}
			if err := src.Scan(targets...); err != nil {
				yield(nil, fetchError("scanning row", err))
				return
			}
			if !yield(NewRawRow(names, values), nil) {
				return
			}
		}
		if err := src.Err(); err != nil {
			yield(nil, fetchError("fetching rows", err))
		}
	}
}

func fetchError(stage string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("rowmap: %s: %w", stage, err)
	case dcdash.IsCancelled(err):
		// ORA-01013: the driver interrupted the fetch for a cancelled context.
		return fmt.Errorf("rowmap: %s: %w: %w", stage, context.Canceled, err)
	}
	return fmt.Errorf("%w: %s: %w", dcdash.ErrEngineQuery, stage, err)
}

// MapAll maps every row of seq through s, preserving delivery order.
// It stops at the first fetch or mapping error.
func MapAll[T any](s Shape[T], seq iter.Seq2[RawRow, error]) ([]T, error) {
	out := []T{}
	for row, err := range seq {
		if err != nil {
			return nil, err
		}
		rec, err := s.Map(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
