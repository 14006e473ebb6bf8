package roster

// DefaultQuota is the monthly ordinary-leave quota when a period has no
// entry in the quota table.
const DefaultQuota = 4

// QuotaTable holds the per-period quota of ordinary days off. A nil Default
// means DefaultQuota; a zero Default allows no ordinary leave.
type QuotaTable struct {
	Default  *int           `json:"default,omitempty" yaml:"default,omitempty"`
	ByPeriod map[string]int `json:"by_period" yaml:"by_period"`
}

// For returns the quota for a period key, falling back to the table default
// and then to DefaultQuota.
func (q QuotaTable) For(periodKey string) int {
	if n, ok := q.ByPeriod[periodKey]; ok {
		return n
	}
	if q.Default != nil {
		return *q.Default
	}
	return DefaultQuota
}
