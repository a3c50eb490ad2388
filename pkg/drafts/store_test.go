package drafts

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskdesk/ews-console/pkg/models"
	"github.com/riskdesk/ews-console/pkg/table"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "drafts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	tbl := table.New[models.RuleRecord]()
	tbl.AppendExisting("s1", models.RuleRecord{Code: "R-1", ReportedChangeText: "Auditor resignation"})
	tbl.Append(models.RuleRecord{Code: "R-2", ReportedChangeText: "Loan default", Severity: models.SeverityHigh})

	require.NoError(t, store.Save(ctx, KeyRules, tbl.Snapshot()))

	var snap table.Snapshot[models.RuleRecord]
	found, err := store.Load(ctx, KeyRules, &snap)
	require.NoError(t, err)
	require.True(t, found)

	restored := table.New[models.RuleRecord]()
	restored.Restore(snap)

	rows := restored.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "s1", rows[0].ServerID)
	assert.Equal(t, "R-1", rows[0].Record.Code)
	assert.Empty(t, rows[1].ServerID)
	assert.Equal(t, models.SeverityHigh, rows[1].Record.Severity)
	assert.NotEqual(t, tbl.Rows()[0].ID, rows[0].ID, "restore mints fresh client ids")
}

func TestStore_LoadMissingKey(t *testing.T) {
	store := openStore(t)

	var snap table.Snapshot[models.EventRecord]
	found, err := store.Load(context.Background(), KeyEvents, &snap)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, snap.Rows)
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, KeyRules, map[string]string{"v": "first"}))
	require.NoError(t, store.Save(ctx, KeyRules, map[string]string{"v": "second"}))

	var got map[string]string
	found, err := store.Load(ctx, KeyRules, &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "second", got["v"])
}

func TestStore_KeysAreIndependent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, KeyRules, "rules draft"))
	require.NoError(t, store.Save(ctx, KeyEvents, "events draft"))
	require.NoError(t, store.Clear(ctx, KeyRules))

	var s string
	found, err := store.Load(ctx, KeyRules, &s)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = store.Load(ctx, KeyEvents, &s)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "events draft", s)
}

func TestStore_ClearMissingIsNoOp(t *testing.T) {
	store := openStore(t)
	assert.NoError(t, store.Clear(context.Background(), "never-written"))
}

func TestStore_EmptySnapshotRoundTrips(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	empty := table.New[models.EventRecord]()
	require.NoError(t, store.Save(ctx, KeyEvents, empty.Snapshot()))

	var snap table.Snapshot[models.EventRecord]
	found, err := store.Load(ctx, KeyEvents, &snap)
	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, snap.Rows)
}
