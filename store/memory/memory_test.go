package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/roster-engine/planner"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/store/memory"
)

var _ planner.Store = (*memory.Memory)(nil)

func TestMemory_RosterSnapshots(t *testing.T) {
	// GIVEN: A roster saved to the store
	// WHEN: The caller keeps editing its own copy
	// THEN: The stored snapshot is unaffected

	store := memory.New()
	ctx := context.Background()

	missing, err := store.LoadRoster(ctx, "2026-04")
	require.NoError(t, err)
	assert.Nil(t, missing)

	r, err := roster.FromEntries("2026-04", []roster.Entry{
		{Date: "2026-04-01", MemberID: "m1", Status: roster.StatusWorking},
	})
	require.NoError(t, err)

	rev, err := store.SaveRoster(ctx, r, planner.ActionAssign)
	require.NoError(t, err)
	assert.Equal(t, "2026-04", rev.Period)
	assert.Equal(t, 1, rev.Entries)

	loaded, err := store.LoadRoster(ctx, "2026-04")
	require.NoError(t, err)
	assert.True(t, r.Equal(loaded))

	history, err := store.History(ctx, "2026-04")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, rev, history[0])
}

func TestMemory_Preferences(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	p, err := store.LoadPreferences(ctx, "2026-04")
	require.NoError(t, err)
	assert.Empty(t, p.LeaveRequests)

	want := roster.Preferences{}.ToggleLeaveRequest("m1", "2026-04-01")
	require.NoError(t, store.SavePreferences(ctx, "2026-04", want))

	got, err := store.LoadPreferences(ctx, "2026-04")
	require.NoError(t, err)
	assert.Equal(t, want.LeaveRequests, got.LeaveRequests)
}
