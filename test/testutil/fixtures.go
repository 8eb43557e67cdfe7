package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"
)

// Fixtures inserts rows into the scratch tables.
type Fixtures struct {
	db  *sql.DB
	ctx context.Context
}

// NewFixtures creates a new Fixtures instance.
func NewFixtures(ctx context.Context, db *sql.DB) *Fixtures {
	return &Fixtures{db: db, ctx: ctx}
}

// Hold is one row of the scratch hold history view. A zero LineID is a
// header level hold.
type Hold struct {
	LineID      int64
	Name        string
	HeldBy      string
	AppliedDate time.Time
	Released    bool
}

var headerSeq atomic.Int64

// NextHeaderID returns an order header id not used by any other test in
// this binary.
func NextHeaderID() int64 {
	return 900000 + headerSeq.Add(1)
}

// CreateHolds inserts holds for headerID in one batch.
func (f *Fixtures) CreateHolds(headerID int64, holds ...Hold) error {
	if len(holds) == 0 {
		return nil
	}

	tx, err := f.db.BeginTx(f.ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(f.ctx, `
		INSERT INTO oe_holds_history_v
			(header_id, line_id, held_by, hold_name, hold_entity_code_value, applied_date, applied_by, released_flag)
		VALUES (:1, :2, :3, :4, :5, :6, :7, :8)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, h := range holds {
		var (
			line  sql.NullInt64
			level = "Order"
			flag  = "N"
		)
		if h.LineID != 0 {
			line = sql.NullInt64{Int64: h.LineID, Valid: true}
			level = "Line"
		}
		if h.Released {
			flag = "Y"
		}
		if _, err := stmt.ExecContext(f.ctx, headerID, line, h.HeldBy, h.Name, level, h.AppliedDate, h.HeldBy, flag); err != nil {
			return fmt.Errorf("insert hold %d: %w", i, err)
		}
	}
	return tx.Commit()
}
