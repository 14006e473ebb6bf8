package roster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/roster-engine/roster"
)

func TestCheckViolations_Scenarios(t *testing.T) {
	// GIVEN: A first week of April staffed by reset
	// WHEN: Three members are off on 04-01, then 04-04 loses one duty
	// THEN: One over-coverage warning, then an additional under-staffing
	//       warning, ordered by date

	days := aprilDays(t)[:4] // 04-01 .. 04-04
	members := sixMembers()

	r, err := roster.NewEngine().Reset(roster.ResetInput{Days: days, Members: members})
	require.NoError(t, err)
	assert.Empty(t, roster.CheckViolations(r, days, members))

	for _, id := range []string{"m1", "m2", "m3"} {
		r, err = roster.Assign(r, "2026-04-01", id, roster.StatusOff, days, members)
		require.NoError(t, err)
	}
	vs := roster.CheckViolations(r, days, members)
	require.Len(t, vs, 1)
	assert.Equal(t, roster.Violation{Kind: roster.ViolationOverCoverageLoss, Date: "2026-04-01", Count: 3}, vs[0])

	r, err = roster.Assign(r, "2026-04-04", "m2", roster.StatusOff, days, members)
	require.NoError(t, err)
	vs = roster.CheckViolations(r, days, members)
	require.Len(t, vs, 2)
	assert.Equal(t, "2026-04-01", vs[0].Date)
	assert.Equal(t, roster.Violation{Kind: roster.ViolationUnderStaffed, Date: "2026-04-04", Count: 1}, vs[1])

	assert.Equal(t, []string{
		"1日に3名以上の休みが重複しています (3名休み)",
		"4日の荷受当番が不足しています (現在1名)",
	}, roster.Messages(vs))
}

func TestCheckViolations_PaidLeaveCountsAsAbsence(t *testing.T) {
	days := aprilDays(t)[:3]
	members := sixMembers()

	r, err := roster.Assign(nil, "2026-04-02", "m1", roster.StatusPaidLeave, days, members)
	require.NoError(t, err)
	r, err = roster.Assign(r, "2026-04-02", "m2", roster.StatusPaidLeave, days, members)
	require.NoError(t, err)
	assert.Empty(t, roster.CheckViolations(r, days, members))

	r, err = roster.Assign(r, "2026-04-02", "m3", roster.StatusOff, days, members)
	require.NoError(t, err)
	assert.Len(t, roster.CheckViolations(r, days, members), 1)
}

func TestCheckViolations_NilRosterReadsImpliedDefault(t *testing.T) {
	// GIVEN: No roster for April
	// WHEN: Checking
	// THEN: Every rotating Saturday is reported with zero duties

	vs := roster.CheckViolations(nil, aprilDays(t), sixMembers())
	require.Len(t, vs, 4)
	for _, v := range vs {
		assert.Equal(t, roster.ViolationUnderStaffed, v.Kind)
		assert.Zero(t, v.Count)
	}
}

func TestCheckViolations_IgnoresFullAttendanceAndHolidays(t *testing.T) {
	days := mayDays(t)
	members := sixMembers()
	r := roster.Default("2026-05", days, members)

	for _, v := range roster.CheckViolations(r, days, members) {
		assert.NotEqual(t, "2026-05-02", v.Date)
		assert.NotEqual(t, "2026-05-04", v.Date)
	}
}

func TestViolation_StringNamesDayOfMonth(t *testing.T) {
	tests := []struct {
		v    roster.Violation
		want string
	}{
		{roster.Violation{Kind: roster.ViolationOverCoverageLoss, Date: "2026-04-17", Count: 4}, "17日に3名以上の休みが重複しています (4名休み)"},
		{roster.Violation{Kind: roster.ViolationUnderStaffed, Date: "2026-04-25", Count: 0}, "25日の荷受当番が不足しています (現在0名)"},
		{roster.Violation{Kind: "other", Date: "bad-date", Count: 1}, "bad-date日: other (1)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.String())
	}
}
