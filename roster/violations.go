package roster

import (
	"fmt"
	"strconv"
	"time"

	"github.com/warp/roster-engine/calendar"
)

// OverCoverageThreshold is the number of simultaneous absences on an
// ordinary workday that is reported as a coverage loss.
const OverCoverageThreshold = 3

// ViolationKind names a rule breach found by CheckViolations.
type ViolationKind string

const (
	// ViolationOverCoverageLoss: too many members off on an ordinary workday.
	ViolationOverCoverageLoss ViolationKind = "over_coverage_loss"
	// ViolationUnderStaffed: a rotating Saturday has fewer than two duties.
	ViolationUnderStaffed ViolationKind = "under_staffed"
)

// Violation is one warning about a roster snapshot.
type Violation struct {
	Kind  ViolationKind `json:"kind"`
	Date  string        `json:"date"`
	Count int           `json:"count"`
}

// String renders the warning shown on the roster screen, naming the day of
// the month.
func (v Violation) String() string {
	day := v.Date
	if t, err := time.Parse(time.DateOnly, v.Date); err == nil {
		day = strconv.Itoa(t.Day())
	}
	switch v.Kind {
	case ViolationOverCoverageLoss:
		return fmt.Sprintf("%s日に%d名以上の休みが重複しています (%d名休み)", day, OverCoverageThreshold, v.Count)
	case ViolationUnderStaffed:
		return fmt.Sprintf("%s日の荷受当番が不足しています (現在%d名)", day, v.Count)
	default:
		return fmt.Sprintf("%s日: %s (%d)", day, v.Kind, v.Count)
	}
}

// CheckViolations scans a roster in date order. It never mutates r and reads
// missing cells (or a nil roster) through ImpliedStatus.
func CheckViolations(r *Roster, days []calendar.Day, members []Member) []Violation {
	var out []Violation
	for _, d := range days {
		switch d.Category {
		case calendar.OrdinaryWorkday:
			if n := r.CountOn(d, members, Status.IsAbsent); n >= OverCoverageThreshold {
				out = append(out, Violation{Kind: ViolationOverCoverageLoss, Date: d.ISODate, Count: n})
			}
		case calendar.RotatingSaturday:
			n := r.CountOn(d, members, func(s Status) bool { return s == StatusSaturdayDuty })
			if n < DutyHeadcount {
				out = append(out, Violation{Kind: ViolationUnderStaffed, Date: d.ISODate, Count: n})
			}
		}
	}
	return out
}

// Messages renders violations as ordered warning strings.
func Messages(vs []Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}
