// Package ledger posts, reverses and aggregates stake charges. Every function
// is a pure transformation of the entry slice it is given.
package ledger

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"StakeHouse/internal/model"
)

// MonthLayout formats month buckets.
const MonthLayout = "2006-01"

// MonthBucket returns the YYYY-MM bucket t falls into.
func MonthBucket(t time.Time) string {
	return t.Format(MonthLayout)
}

// Post builds the entry charging task's stake to its payer at now.
// It does not touch the task or any collection.
func Post(task *model.Task, now time.Time) model.LedgerEntry {
	return model.LedgerEntry{
		ID:           uuid.NewString(),
		UserID:       task.Payer(),
		TaskID:       task.ID,
		TaskTitle:    task.Title,
		ListID:       task.ListID,
		Amount:       task.Stake,
		Date:         now,
		Month:        MonthBucket(now),
		FundTargetID: task.FundTargetID,
	}
}

// Reverse returns entries without the entry with id. Unknown ids are a no-op.
func Reverse(entryID string, entries []model.LedgerEntry) []model.LedgerEntry {
	out := make([]model.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if e.ID != entryID {
			out = append(out, e)
		}
	}
	return out
}

// ActiveForTask returns the entry charged for taskID, if any.
func ActiveForTask(taskID string, entries []model.LedgerEntry) (model.LedgerEntry, bool) {
	for _, e := range entries {
		if e.TaskID == taskID {
			return e, true
		}
	}
	return model.LedgerEntry{}, false
}

// ToCents converts a currency amount to integer cents.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// UserMonthlyTotal sums what userID was charged in month.
func UserMonthlyTotal(entries []model.LedgerEntry, userID, month string) float64 {
	var cents int64
	for _, e := range entries {
		if e.UserID == userID && e.Month == month {
			cents += ToCents(e.Amount)
		}
	}
	return float64(cents) / 100
}

// FundTotalCents sums the entries attributed to fundTargetID, in cents.
func FundTotalCents(entries []model.LedgerEntry, fundTargetID string) int64 {
	var cents int64
	for _, e := range entries {
		if fundTargetID != "" && e.FundTargetID == fundTargetID {
			cents += ToCents(e.Amount)
		}
	}
	return cents
}

// FundTotal sums the entries attributed to fundTargetID.
func FundTotal(entries []model.LedgerEntry, fundTargetID string) float64 {
	return float64(FundTotalCents(entries, fundTargetID)) / 100
}

// EntriesForList returns the entries of listID, newest first.
func EntriesForList(entries []model.LedgerEntry, listID string) []model.LedgerEntry {
	out := make([]model.LedgerEntry, 0)
	for _, e := range entries {
		if e.ListID == listID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// UserTotal is one row of a monthly breakdown.
type UserTotal struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// MonthlyTotalsByUser breaks down listID's charges for month per payer,
// largest amount first.
func MonthlyTotalsByUser(entries []model.LedgerEntry, listID, month string) []UserTotal {
	cents := make(map[string]int64)
	counts := make(map[string]int)
	for _, e := range entries {
		if e.ListID != listID || e.Month != month {
			continue
		}
		cents[e.UserID] += ToCents(e.Amount)
		counts[e.UserID]++
	}
	out := make([]UserTotal, 0, len(cents))
	for id, c := range cents {
		out = append(out, UserTotal{UserID: id, Amount: float64(c) / 100, Count: counts[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}
