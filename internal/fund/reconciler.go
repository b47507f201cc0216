// Package fund keeps fund target totals consistent with the ledger.
package fund

import (
	"StakeHouse/internal/ledger"
	"StakeHouse/internal/model"
)

// Reconcile recomputes every target's collected total from entries, active or
// not. It returns the corrected targets, the active targets that crossed from
// under target to at-or-over target in this pass, and the ids whose cached
// total changed. The input slice is not modified.
func Reconcile(targets []model.FundTarget, entries []model.LedgerEntry) (out, reached []model.FundTarget, corrected []string) {
	out = make([]model.FundTarget, len(targets))
	copy(out, targets)

	for i := range out {
		t := &out[i]
		wasReached := t.Reached()
		total := ledger.FundTotalCents(entries, t.ID)
		if total == t.TotalCollectedCents {
			continue
		}
		t.TotalCollectedCents = total
		corrected = append(corrected, t.ID)
		if t.Active && !wasReached && t.Reached() {
			reached = append(reached, *t)
		}
	}
	return out, reached, corrected
}

// Progress is the collected fraction of a target, capped at 1. Targets without
// an amount report 0.
func Progress(t *model.FundTarget) float64 {
	if t.TargetCents == nil || *t.TargetCents <= 0 {
		return 0
	}
	p := float64(t.TotalCollectedCents) / float64(*t.TargetCents)
	if p > 1 {
		return 1
	}
	return p
}
