package aggregates

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/learnsync/internal/platform/dbctx"
)

// versionedWrite is one optimistic-concurrency write. expected == 0 inserts
// the row at version 1; anything else moves the row from expected to
// expected+1 and fails with a conflict when another writer got there first.
type versionedWrite struct {
	table    string
	id       uuid.UUID
	expected int

	insert  func(dbc dbctx.Context) (bool, error)
	columns func(next int) map[string]any
	stamp   func(version int)
}

func (w versionedWrite) apply(dbc dbctx.Context) error {
	if w.expected == 0 {
		w.stamp(1)
		inserted, err := w.insert(dbc)
		if err == nil && !inserted {
			err = ConflictError(fmt.Sprintf("%s row created concurrently", w.table))
		}
		if err != nil {
			w.stamp(0)
		}
		return err
	}
	if dbc.Tx == nil {
		return InvariantError("versioned update requires a transaction")
	}

	next := w.expected + 1
	res := dbc.Tx.WithContext(dbc.Ctx).
		Table(w.table).
		Where("id = ? AND version = ?", w.id, w.expected).
		Updates(w.columns(next))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ConflictError(fmt.Sprintf("%s %s is no longer at version %d", w.table, w.id, w.expected))
	}
	w.stamp(next)
	return nil
}
