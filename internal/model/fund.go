package model

// FundTarget is a named savings goal that accumulates failed stakes.
type FundTarget struct {
	ID                  string `json:"id"`
	ListID              string `json:"list_id"`
	Name                string `json:"name"`
	TargetCents         *int64 `json:"target_cents,omitempty"`
	TotalCollectedCents int64  `json:"total_collected_cents"`
	Active              bool   `json:"active"`
}

// Reached reports whether the collected amount meets the target.
// Targets without an amount are never reached.
func (f *FundTarget) Reached() bool {
	return f.TargetCents != nil && f.TotalCollectedCents >= *f.TargetCents
}
