package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/roster-engine/planner"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRoster(t *testing.T) *roster.Roster {
	r, err := roster.FromEntries("2026-04", []roster.Entry{
		{Date: "2026-04-01", MemberID: "m2", Status: roster.StatusOff},
		{Date: "2026-04-01", MemberID: "m1", Status: roster.StatusWorking},
		{Date: "2026-04-04", MemberID: "m1", Status: roster.StatusSaturdayDuty},
		{Date: "2026-04-04", MemberID: "m2", Status: roster.StatusPaidLeave},
	})
	require.NoError(t, err)
	return r
}

func TestStore_MissingRosterIsNil(t *testing.T) {
	store := newTestStore(t)

	r, err := store.LoadRoster(context.Background(), "2026-04")
	require.NoError(t, err)
	assert.Nil(t, r)

	p, err := store.LoadPreferences(context.Background(), "2026-04")
	require.NoError(t, err)
	assert.Empty(t, p.SaturdayAvailability)
	assert.Empty(t, p.LeaveRequests)
}

func TestStore_SaveAndLoadRoster(t *testing.T) {
	// GIVEN: A roster saved twice for the same period
	// WHEN: Loading it back
	// THEN: The second save replaced the first, order is kept, and both saves
	//       show up in the history

	store := newTestStore(t)
	ctx := context.Background()
	r := sampleRoster(t)

	rev1, err := store.SaveRoster(ctx, r, planner.ActionGenerate)
	require.NoError(t, err)
	assert.Equal(t, 4, rev1.Entries)
	assert.NotEmpty(t, rev1.ID)

	smaller, err := roster.FromEntries("2026-04", r.Entries()[:2])
	require.NoError(t, err)
	rev2, err := store.SaveRoster(ctx, smaller, planner.ActionToggle)
	require.NoError(t, err)
	assert.NotEqual(t, rev1.ID, rev2.ID)

	loaded, err := store.LoadRoster(ctx, "2026-04")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, smaller.Entries(), loaded.Entries())

	history, err := store.History(ctx, "2026-04")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, planner.ActionGenerate, history[0].Action)
	assert.Equal(t, planner.ActionToggle, history[1].Action)
	assert.Equal(t, 2, history[1].Entries)
	assert.False(t, history[0].CreatedAt.IsZero())

	other, err := store.History(ctx, "2026-05")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_SaveAndLoadPreferences(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := roster.Preferences{
		SaturdayAvailability: []roster.SaturdayAvailability{
			{MemberID: "m2", Date: "2026-04-11", Available: false},
			{MemberID: "m1", Date: "2026-04-04", Available: true},
		},
		LeaveRequests: []roster.LeaveRequest{
			{MemberID: "m1", Date: "2026-04-02", Kind: roster.LeavePaid},
			{MemberID: "m1", Date: "2026-04-01", Kind: roster.LeaveOrdinary},
		},
	}
	require.NoError(t, store.SavePreferences(ctx, "2026-04", p))

	loaded, err := store.LoadPreferences(ctx, "2026-04")
	require.NoError(t, err)
	assert.Equal(t, p, loaded)

	require.NoError(t, store.SavePreferences(ctx, "2026-04", p.ClearLeaveRequests()))
	loaded, err = store.LoadPreferences(ctx, "2026-04")
	require.NoError(t, err)
	assert.Empty(t, loaded.LeaveRequests)
	assert.Len(t, loaded.SaturdayAvailability, 2)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")
	ctx := context.Background()

	store, err := sqlite.New(path)
	require.NoError(t, err)
	_, err = store.SaveRoster(ctx, sampleRoster(t), planner.ActionReset)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.LoadRoster(ctx, "2026-04")
	require.NoError(t, err)
	assert.True(t, sampleRoster(t).Equal(loaded))
}

func TestStore_HistoryRejectsCorruptTimestamp(t *testing.T) {
	// GIVEN: A revision row whose timestamp was damaged outside the store
	// WHEN: Reading the history
	// THEN: The damage is reported instead of a zero time

	path := filepath.Join(t.TempDir(), "roster.db")
	ctx := context.Background()

	store, err := sqlite.New(path)
	require.NoError(t, err)
	defer store.Close()
	_, err = store.SaveRoster(ctx, sampleRoster(t), planner.ActionGenerate)
	require.NoError(t, err)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.ExecContext(ctx, "UPDATE revisions SET created_at = 'yesterday' WHERE period = ?", "2026-04")
	require.NoError(t, err)

	_, err = store.History(ctx, "2026-04")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse revision")
}
