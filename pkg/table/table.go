package table

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Row wraps one record with its two-tier identity: ID is the ephemeral
// client-local identifier (stable for the session, regenerated on draft
// load), ServerID the durable identifier assigned by the backend. ServerID
// presence is the sole signal distinguishing update from create.
type Row[T any] struct {
	ID       string
	ServerID string
	Errors   map[string]string
	Record   T
}

// Table owns the editable collection for one table context, as an ordered
// sequence addressed by client-local identifier, never by position.
type Table[T any] struct {
	rows []*Row[T]
}

func New[T any]() *Table[T] {
	return &Table[T]{}
}

func (t *Table[T]) Len() int { return len(t.rows) }

// Rows returns the ordered rows. The slice is a copy; the rows are not.
func (t *Table[T]) Rows() []*Row[T] {
	out := make([]*Row[T], len(t.rows))
	copy(out, t.rows)
	return out
}

// Get returns the row with the given client-local id, or nil.
func (t *Table[T]) Get(id string) *Row[T] {
	if i := t.indexOf(id); i >= 0 {
		return t.rows[i]
	}
	return nil
}

// Append adds a freshly identified row holding rec.
func (t *Table[T]) Append(rec T) *Row[T] {
	row := newRow("", rec)
	t.rows = append(t.rows, row)
	return row
}

// AppendExisting adds a row for a record already persisted on the backend.
func (t *Table[T]) AppendExisting(serverID string, rec T) *Row[T] {
	row := newRow(serverID, rec)
	t.rows = append(t.rows, row)
	return row
}

// InsertAfter inserts a fresh row immediately after the row with the given
// id, appending when the id is unknown.
func (t *Table[T]) InsertAfter(id string, rec T) *Row[T] {
	row := newRow("", rec)
	i := t.indexOf(id)
	if i < 0 {
		t.rows = append(t.rows, row)
		return row
	}
	t.rows = append(t.rows, nil)
	copy(t.rows[i+2:], t.rows[i+1:])
	t.rows[i+1] = row
	return row
}

// Update patches the row matching id via fn; a no-op returning false when
// the id is absent.
func (t *Table[T]) Update(id string, fn func(*T)) bool {
	row := t.Get(id)
	if row == nil {
		return false
	}
	fn(&row.Record)
	return true
}

// MoveUp swaps the row with its immediate predecessor; no-op at the top.
func (t *Table[T]) MoveUp(id string) bool {
	i := t.indexOf(id)
	if i <= 0 {
		return false
	}
	t.rows[i-1], t.rows[i] = t.rows[i], t.rows[i-1]
	return true
}

// MoveDown swaps the row with its immediate successor; no-op at the bottom.
func (t *Table[T]) MoveDown(id string) bool {
	i := t.indexOf(id)
	if i < 0 || i >= len(t.rows)-1 {
		return false
	}
	t.rows[i], t.rows[i+1] = t.rows[i+1], t.rows[i]
	return true
}

// Delete removes the row with the given id. A row carrying a ServerID
// requires the remote delete to resolve first; only then is it removed
// locally. Rows never persisted are removed immediately with no remote call.
func (t *Table[T]) Delete(ctx context.Context, id string, remove func(ctx context.Context, serverID string) error) error {
	i := t.indexOf(id)
	if i < 0 {
		return nil
	}
	row := t.rows[i]
	if row.ServerID != "" {
		if remove == nil {
			return fmt.Errorf("row %s is persisted but no remote delete was provided", id)
		}
		if err := remove(ctx, row.ServerID); err != nil {
			return err
		}
	}
	// Re-resolve the index: the remote call may have suspended while the
	// table was edited.
	if i = t.indexOf(id); i >= 0 {
		t.rows = append(t.rows[:i], t.rows[i+1:]...)
	}
	return nil
}

// Clear drops every row.
func (t *Table[T]) Clear() {
	t.rows = nil
}

// Replace swaps in a whole new collection of persisted records, as after an
// authoritative reload from the backend.
func (t *Table[T]) Replace(serverIDs []string, records []T) {
	t.rows = make([]*Row[T], 0, len(records))
	for i, rec := range records {
		id := ""
		if i < len(serverIDs) {
			id = serverIDs[i]
		}
		t.rows = append(t.rows, newRow(id, rec))
	}
}

// Validate runs fn over every row, storing the returned field-error map on
// the row (an empty map when clean, so the caller can render deterministic
// feedback). It reports whether the whole collection is error-free.
func (t *Table[T]) Validate(fn func(*T) map[string]string) bool {
	clean := true
	for _, row := range t.rows {
		errs := fn(&row.Record)
		if errs == nil {
			errs = map[string]string{}
		}
		row.Errors = errs
		if len(errs) > 0 {
			clean = false
		}
	}
	return clean
}

func (t *Table[T]) indexOf(id string) int {
	for i, row := range t.rows {
		if row.ID == id {
			return i
		}
	}
	return -1
}

func newRow[T any](serverID string, rec T) *Row[T] {
	return &Row[T]{
		ID:       uuid.NewString(),
		ServerID: serverID,
		Errors:   map[string]string{},
		Record:   rec,
	}
}
