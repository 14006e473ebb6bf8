/*
calendar.go - Day classification for roster periods

PURPOSE:
  Maps every calendar date to a day category. The category decides which
  staffing rule applies to a date: closed days are off for everyone, rotating
  Saturdays need a duty pair, full-attendance Saturdays need everyone, and
  ordinary workdays take leave requests.

PRECEDENCE:
  When several rules match a date, the first one wins:
    1. Company holiday list
    2. Public holiday list
    3. Sunday
    4. Full-attendance Saturday list
    5. Saturday
    6. Ordinary workday

INJECTABLE TABLES:
  The three lists are passed in through Config instead of being compiled in,
  so tests and deployments can supply any calendar. See factory/ for the
  YAML/JSON loader and the embedded default calendar.

SEE ALSO:
  - period.go: Period (year + month) and period keys
  - roster/engine.go: Consumes classified days
*/
package calendar

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// ISOLayout is the date layout used for every date key in the system.
const ISOLayout = "2006-01-02"

// =============================================================================
// DAY CATEGORY
// =============================================================================

// Category classifies a date for staffing purposes.
type Category string

const (
	OrdinaryWorkday        Category = "ordinary_workday"
	RotatingSaturday       Category = "rotating_saturday"
	Sunday                 Category = "sunday"
	PublicHoliday          Category = "public_holiday"
	CompanyHoliday         Category = "company_holiday"
	FullAttendanceSaturday Category = "full_attendance_saturday"
)

// IsClosed reports whether nobody works on days of this category.
func (c Category) IsClosed() bool {
	return c == Sunday || c == PublicHoliday || c == CompanyHoliday
}

// IsSaturday reports whether the category is one of the two Saturday kinds.
func (c Category) IsSaturday() bool {
	return c == RotatingSaturday || c == FullAttendanceSaturday
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case OrdinaryWorkday, RotatingSaturday, Sunday, PublicHoliday, CompanyHoliday, FullAttendanceSaturday:
		return true
	}
	return false
}

// Day is one classified date of a period.
type Day struct {
	Date     time.Time
	ISODate  string
	Category Category
	Label    string // day of month without padding, e.g. "7"
}

// Weekday returns the short English weekday name ("Mon").
func (d Day) Weekday() string {
	return d.Date.Weekday().String()[:3]
}

// =============================================================================
// CALENDAR
// =============================================================================

// Config lists the static calendar tables as ISO dates (YYYY-MM-DD).
type Config struct {
	CompanyHolidays         []string `json:"company_holidays" yaml:"company_holidays"`
	PublicHolidays          []string `json:"public_holidays" yaml:"public_holidays"`
	FullAttendanceSaturdays []string `json:"full_attendance_saturdays" yaml:"full_attendance_saturdays"`
}

// Calendar classifies dates against a fixed set of tables. It is immutable
// once built and safe for concurrent use.
type Calendar struct {
	company        map[string]struct{}
	public         map[string]struct{}
	fullAttendance map[string]struct{}
}

// New builds a Calendar. Every listed date must be a valid ISO date.
func New(cfg Config) (*Calendar, error) {
	company, err := dateSet("company_holidays", cfg.CompanyHolidays)
	if err != nil {
		return nil, err
	}
	public, err := dateSet("public_holidays", cfg.PublicHolidays)
	if err != nil {
		return nil, err
	}
	full, err := dateSet("full_attendance_saturdays", cfg.FullAttendanceSaturdays)
	if err != nil {
		return nil, err
	}
	return &Calendar{company: company, public: public, fullAttendance: full}, nil
}

// Empty returns a calendar without any listed dates: only weekday rules apply.
func Empty() *Calendar {
	c, _ := New(Config{})
	return c
}

func dateSet(field string, dates []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		if _, err := time.Parse(ISOLayout, d); err != nil {
			return nil, fmt.Errorf("%s: invalid date %q: %w", field, d, err)
		}
		set[d] = struct{}{}
	}
	return set, nil
}

// Config returns the tables the calendar was built from, sorted.
func (c *Calendar) Config() Config {
	return Config{
		CompanyHolidays:         sortedKeys(c.company),
		PublicHolidays:          sortedKeys(c.public),
		FullAttendanceSaturdays: sortedKeys(c.fullAttendance),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Classify returns the category of a date. Only the calendar date of t is
// considered; its clock and location are ignored.
func (c *Calendar) Classify(t time.Time) Category {
	iso := t.Format(ISOLayout)

	if _, ok := c.company[iso]; ok {
		return CompanyHoliday
	}
	if _, ok := c.public[iso]; ok {
		return PublicHoliday
	}
	if t.Weekday() == time.Sunday {
		return Sunday
	}
	if _, ok := c.fullAttendance[iso]; ok {
		return FullAttendanceSaturday
	}
	if t.Weekday() == time.Saturday {
		return RotatingSaturday
	}
	return OrdinaryWorkday
}

// DaysOfMonth returns every date of the month in ascending order.
func (c *Calendar) DaysOfMonth(year int, month time.Month) ([]Day, error) {
	p := Period{Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var days []Day
	for _, t := range p.Dates() {
		days = append(days, Day{
			Date:     t,
			ISODate:  t.Format(ISOLayout),
			Category: c.Classify(t),
			Label:    strconv.Itoa(t.Day()),
		})
	}
	return days, nil
}

// Days is DaysOfMonth for a Period.
func (c *Calendar) Days(p Period) ([]Day, error) {
	return c.DaysOfMonth(p.Year, p.Month)
}

// RotatingSaturdays returns the Saturdays of days, both rotating and
// full-attendance ones, preserving order.
func RotatingSaturdays(days []Day) []Day {
	var out []Day
	for _, d := range days {
		if d.Category.IsSaturday() {
			out = append(out, d)
		}
	}
	return out
}

// Index maps ISO dates to days.
func Index(days []Day) map[string]Day {
	idx := make(map[string]Day, len(days))
	for _, d := range days {
		idx[d.ISODate] = d
	}
	return idx
}
