package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/roster-engine/calendar"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testCalendar(t *testing.T) *calendar.Calendar {
	t.Helper()
	cal, err := calendar.New(calendar.Config{
		// 2026-08-15 is a Saturday listed as company holiday AND full attendance.
		CompanyHolidays:         []string{"2026-08-13", "2026-08-15"},
		PublicHolidays:          []string{"2026-04-29", "2026-05-03", "2026-08-13"},
		FullAttendanceSaturdays: []string{"2026-05-02", "2026-08-15", "2026-08-01"},
	})
	require.NoError(t, err)
	return cal
}

// =============================================================================
// CLASSIFY
// =============================================================================

func TestClassify_Precedence(t *testing.T) {
	cal := testCalendar(t)

	cases := []struct {
		name string
		date time.Time
		want calendar.Category
	}{
		{"ordinary wednesday", date(2026, 4, 1), calendar.OrdinaryWorkday},
		{"plain saturday", date(2026, 4, 4), calendar.RotatingSaturday},
		{"sunday", date(2026, 4, 5), calendar.Sunday},
		{"public holiday on weekday", date(2026, 4, 29), calendar.PublicHoliday},
		{"public holiday on sunday", date(2026, 5, 3), calendar.PublicHoliday},
		{"company beats public", date(2026, 8, 13), calendar.CompanyHoliday},
		{"company beats full attendance", date(2026, 8, 15), calendar.CompanyHoliday},
		{"full attendance saturday", date(2026, 5, 2), calendar.FullAttendanceSaturday},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cal.Classify(tc.date))
		})
	}
}

func TestClassify_IgnoresClock(t *testing.T) {
	cal := testCalendar(t)
	late := time.Date(2026, 4, 29, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, calendar.PublicHoliday, cal.Classify(late))
}

func TestNew_RejectsMalformedDate(t *testing.T) {
	_, err := calendar.New(calendar.Config{PublicHolidays: []string{"2026/04/29"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "public_holidays")
}

func TestCategory_Predicates(t *testing.T) {
	assert.True(t, calendar.Sunday.IsClosed())
	assert.True(t, calendar.PublicHoliday.IsClosed())
	assert.True(t, calendar.CompanyHoliday.IsClosed())
	assert.False(t, calendar.RotatingSaturday.IsClosed())
	assert.True(t, calendar.FullAttendanceSaturday.IsSaturday())
	assert.False(t, calendar.OrdinaryWorkday.IsSaturday())
	assert.False(t, calendar.Category("holiday").Valid())
}

// =============================================================================
// DAYS OF MONTH
// =============================================================================

func TestDaysOfMonth_April2026(t *testing.T) {
	cal := testCalendar(t)

	days, err := cal.DaysOfMonth(2026, time.April)
	require.NoError(t, err)
	require.Len(t, days, 30)

	assert.Equal(t, "2026-04-01", days[0].ISODate)
	assert.Equal(t, "1", days[0].Label)
	assert.Equal(t, "Wed", days[0].Weekday())
	assert.Equal(t, "2026-04-30", days[29].ISODate)

	counts := map[calendar.Category]int{}
	for i, d := range days {
		if i > 0 {
			assert.True(t, days[i-1].Date.Before(d.Date), "days must be ascending")
		}
		counts[d.Category]++
	}
	assert.Equal(t, 4, counts[calendar.RotatingSaturday])
	assert.Equal(t, 4, counts[calendar.Sunday])
	assert.Equal(t, 1, counts[calendar.PublicHoliday])
	assert.Equal(t, 21, counts[calendar.OrdinaryWorkday])
}

func TestDaysOfMonth_LeapFebruary(t *testing.T) {
	days, err := calendar.Empty().DaysOfMonth(2028, time.February)
	require.NoError(t, err)
	assert.Len(t, days, 29)
}

func TestDaysOfMonth_InvalidPeriod(t *testing.T) {
	_, err := calendar.Empty().DaysOfMonth(2026, 13)
	assert.ErrorIs(t, err, calendar.ErrInvalidPeriod)

	_, err = calendar.Empty().DaysOfMonth(0, time.January)
	assert.ErrorIs(t, err, calendar.ErrInvalidPeriod)
}

func TestRotatingSaturdays_IncludesFullAttendance(t *testing.T) {
	cal := testCalendar(t)
	days, err := cal.DaysOfMonth(2026, time.May)
	require.NoError(t, err)

	sats := calendar.RotatingSaturdays(days)

	var isos []string
	for _, d := range sats {
		isos = append(isos, d.ISODate)
	}
	assert.Equal(t, []string{"2026-05-02", "2026-05-09", "2026-05-16", "2026-05-23", "2026-05-30"}, isos)
	assert.Equal(t, calendar.FullAttendanceSaturday, sats[0].Category)
}

// =============================================================================
// PERIOD
// =============================================================================

func TestParsePeriod(t *testing.T) {
	p, err := calendar.ParsePeriod("2026-04")
	require.NoError(t, err)
	assert.Equal(t, calendar.Period{Year: 2026, Month: time.April}, p)
	assert.Equal(t, "2026-04", p.Key())

	_, err = calendar.ParsePeriod("2026-4x")
	assert.ErrorIs(t, err, calendar.ErrInvalidPeriod)
}

func TestPeriod_Navigation(t *testing.T) {
	p := calendar.Period{Year: 2026, Month: time.December}
	assert.Equal(t, "2027-01", p.Next().Key())
	assert.Equal(t, "2026-11", p.Previous().Key())
	assert.True(t, p.Contains("2026-12-31"))
	assert.False(t, p.Contains("2027-01-01"))
	assert.False(t, p.Contains("not-a-date"))
	assert.Len(t, p.Dates(), 31)
}
