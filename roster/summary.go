package roster

import (
	"github.com/shopspring/decimal"

	"github.com/warp/roster-engine/calendar"
)

// =============================================================================
// SUMMARIES
// =============================================================================

// Summary is the per-member tally of one period.
type Summary struct {
	MemberID      string          `json:"member_id"`
	Name          string          `json:"name"`
	WorkingDays   int             `json:"working_days"`
	OrdinaryOffs  int             `json:"ordinary_offs"`
	SaturdayDuty  int             `json:"saturday_duty"`
	PaidLeaveDays int             `json:"paid_leave_days"`
	Quota         int             `json:"quota"`
	QuotaUsage    decimal.Decimal `json:"quota_usage"`
}

// Summarize tallies every member in roster order.
func Summarize(r *Roster, days []calendar.Day, members []Member, quota int) []Summary {
	out := make([]Summary, 0, len(members))
	for _, m := range members {
		s := Summary{MemberID: m.ID, Name: m.Name, Quota: quota, QuotaUsage: decimal.Zero}
		for _, d := range days {
			switch r.StatusOn(d, m.ID) {
			case StatusWorking:
				s.WorkingDays++
			case StatusSaturdayDuty:
				s.SaturdayDuty++
			case StatusPaidLeave:
				s.PaidLeaveDays++
			case StatusOff:
				if d.Category == calendar.OrdinaryWorkday {
					s.OrdinaryOffs++
				}
			}
		}
		if quota > 0 {
			s.QuotaUsage = decimal.NewFromInt(int64(s.OrdinaryOffs)).
				Div(decimal.NewFromInt(int64(quota))).
				Round(2)
		}
		out = append(out, s)
	}
	return out
}

// =============================================================================
// UNMET PREFERENCES
// =============================================================================

// UnmetReason explains why a leave request did not turn into an absence.
type UnmetReason string

const (
	UnmetQuotaReached   UnmetReason = "quota_reached"
	UnmetDailyCap       UnmetReason = "daily_cap"
	UnmetSaturdayDuty   UnmetReason = "saturday_duty"
	UnmetFullAttendance UnmetReason = "full_attendance"
	UnmetManualOverride UnmetReason = "manual_override"
)

// Unmet is a leave request whose cell is neither off nor paid leave.
type Unmet struct {
	Request LeaveRequest `json:"request"`
	Status  Status       `json:"status"`
	Reason  UnmetReason  `json:"reason"`
}

// UnmetPreferences lists ungranted leave requests of known members in date
// order. Requests outside the period are skipped.
func UnmetPreferences(r *Roster, days []calendar.Day, members []Member, prefs Preferences, quota int) []Unmet {
	dayIdx := calendar.Index(days)
	known := MemberIndex(members)

	var out []Unmet
	for _, req := range prefs.Normalize().LeaveRequests {
		day, ok := dayIdx[req.Date]
		if !ok {
			continue
		}
		if _, ok := known[req.MemberID]; !ok {
			continue
		}
		status := r.StatusOn(day, req.MemberID)
		if status.IsAbsent() {
			continue
		}
		out = append(out, Unmet{
			Request: req,
			Status:  status,
			Reason:  unmetReason(r, day, members, req, status, days, quota),
		})
	}
	return out
}

func unmetReason(r *Roster, day calendar.Day, members []Member, req LeaveRequest, status Status, days []calendar.Day, quota int) UnmetReason {
	switch {
	case day.Category == calendar.FullAttendanceSaturday:
		return UnmetFullAttendance
	case status == StatusSaturdayDuty:
		return UnmetSaturdayDuty
	case req.EffectiveKind() == LeaveOrdinary && day.Category == calendar.OrdinaryWorkday:
		if ordinaryOffCount(r, days, req.MemberID) >= quota {
			return UnmetQuotaReached
		}
		if r.CountOn(day, members, Status.IsAbsent) >= DailyOffCap {
			return UnmetDailyCap
		}
	}
	return UnmetManualOverride
}
