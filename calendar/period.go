package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod is returned for a malformed year/month or period key.
var ErrInvalidPeriod = errors.New("invalid period")

// =============================================================================
// PERIOD - One roster generation cycle (a calendar month)
// =============================================================================

// Period identifies a roster month. Its key ("2026-04") is the unit of
// storage and of write serialisation.
type Period struct {
	Year  int
	Month time.Month
}

// NewPeriod returns a validated period.
func NewPeriod(year int, month time.Month) (Period, error) {
	p := Period{Year: year, Month: month}
	return p, p.Validate()
}

// ParsePeriod parses a "YYYY-MM" key.
func ParsePeriod(key string) (Period, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, key)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// Validate checks the month range and a four-digit year.
func (p Period) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, int(p.Month))
	}
	if p.Year < 1 || p.Year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	return nil
}

// Key returns the "YYYY-MM" period key.
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) String() string { return p.Key() }

// Start returns the first day of the period (UTC midnight).
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the period (UTC midnight).
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

// Contains reports whether the ISO date falls inside the period.
func (p Period) Contains(isoDate string) bool {
	t, err := time.Parse(ISOLayout, isoDate)
	if err != nil {
		return false
	}
	return t.Year() == p.Year && t.Month() == p.Month
}

// Dates returns all dates of the period.
func (p Period) Dates() []time.Time {
	var dates []time.Time
	end := p.End()
	for current := p.Start(); !current.After(end); current = current.AddDate(0, 0, 1) {
		dates = append(dates, current)
	}
	return dates
}

// Next returns the following month.
func (p Period) Next() Period {
	t := p.Start().AddDate(0, 1, 0)
	return Period{Year: t.Year(), Month: t.Month()}
}

// Previous returns the preceding month.
func (p Period) Previous() Period {
	t := p.Start().AddDate(0, -1, 0)
	return Period{Year: t.Year(), Month: t.Month()}
}
