package table

// Snapshot is the serializable form of a table for the local draft store.
// Client-local identifiers are deliberately absent: they are regenerated on
// restore to guard against collisions across sessions. Server identifiers
// survive the round trip.
type Snapshot[T any] struct {
	Rows []SnapshotRow[T] `json:"rows"`
}

// SnapshotRow is one row of a draft snapshot.
type SnapshotRow[T any] struct {
	ServerID string `json:"serverId,omitempty"`
	Record   T      `json:"record"`
}

// Snapshot captures the current collection.
func (t *Table[T]) Snapshot() Snapshot[T] {
	snap := Snapshot[T]{Rows: make([]SnapshotRow[T], 0, len(t.rows))}
	for _, row := range t.rows {
		snap.Rows = append(snap.Rows, SnapshotRow[T]{
			ServerID: row.ServerID,
			Record:   row.Record,
		})
	}
	return snap
}

// Restore replaces the collection with the snapshot's rows, minting fresh
// client-local identifiers for every row.
func (t *Table[T]) Restore(snap Snapshot[T]) {
	t.rows = make([]*Row[T], 0, len(snap.Rows))
	for _, sr := range snap.Rows {
		t.rows = append(t.rows, newRow(sr.ServerID, sr.Record))
	}
}
