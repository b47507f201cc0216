package ledger

import (
	"testing"
	"time"

	"StakeHouse/internal/model"
)

var now = time.Date(2026, 5, 12, 20, 30, 0, 0, time.UTC)

func task(id string, stake float64, fund string) *model.Task {
	return &model.Task{
		ID:           id,
		ListID:       "home",
		Title:        "task " + id,
		Stake:        stake,
		AssigneeIDs:  []string{"u1", "u2"},
		FundTargetID: fund,
	}
}

func TestPost_FromTask(t *testing.T) {
	tk := task("t1", 5.00, "g1")
	before := FundTotal(nil, "g1")

	e := Post(tk, now)
	if e.ID == "" {
		t.Fatal("expected an entry id")
	}
	if e.Amount != 5.00 {
		t.Errorf("expected amount 5.00, got %.2f", e.Amount)
	}
	if e.UserID != "u1" {
		t.Errorf("expected payer u1, got %s", e.UserID)
	}
	if e.FundTargetID != "g1" {
		t.Errorf("expected fund g1, got %q", e.FundTargetID)
	}
	if e.Month != "2026-05" {
		t.Errorf("expected month 2026-05, got %s", e.Month)
	}
	if e.TaskTitle != "task t1" || e.ListID != "home" {
		t.Errorf("denormalised fields not copied: %+v", e)
	}
	if after := FundTotal([]model.LedgerEntry{e}, "g1"); after-before != 5.00 {
		t.Errorf("expected fund total to grow by 5.00, grew by %.2f", after-before)
	}
	if tk.Status != "" {
		t.Error("Post must not mutate the task")
	}
}

func TestReverse_Idempotent(t *testing.T) {
	a := Post(task("a", 1, ""), now)
	b := Post(task("b", 2, ""), now)
	entries := []model.LedgerEntry{a, b}

	once := Reverse(a.ID, entries)
	twice := Reverse(a.ID, once)
	if len(once) != 1 || len(twice) != 1 || twice[0].ID != b.ID {
		t.Fatalf("expected only b to remain, got %v / %v", once, twice)
	}
	if len(entries) != 2 {
		t.Error("Reverse must not modify its input")
	}
	if got := Reverse("missing", entries); len(got) != 2 {
		t.Errorf("unknown id should be a no-op, got %d entries", len(got))
	}
}

func TestFundTotal_NoDrift(t *testing.T) {
	var entries []model.LedgerEntry
	var ids []string
	for i, stake := range []float64{0.10, 0.20, 3.33, 5.00, 7.77} {
		e := Post(task(string(rune('a'+i)), stake, "g1"), now)
		entries = append(entries, e)
		ids = append(ids, e.ID)
	}
	entries = append(entries, Post(task("x", 100, "g2"), now))
	entries = Reverse(ids[2], entries)
	entries = Reverse(ids[2], entries)

	var want int64
	for _, e := range entries {
		if e.FundTargetID == "g1" {
			want += ToCents(e.Amount)
		}
	}
	if got := FundTotalCents(entries, "g1"); got != want || got != 1307 {
		t.Errorf("expected 1307 cents, got %d (recomputed %d)", got, want)
	}
	if FundTotalCents(entries, "") != 0 {
		t.Error("empty fund id must not match unattributed entries")
	}
}

func TestUserMonthlyTotal(t *testing.T) {
	april := time.Date(2026, 4, 30, 23, 0, 0, 0, time.UTC)
	entries := []model.LedgerEntry{
		Post(task("a", 2.50, ""), now),
		Post(task("b", 1.25, ""), now),
		Post(task("c", 9.00, ""), april),
	}
	if got := UserMonthlyTotal(entries, "u1", "2026-05"); got != 3.75 {
		t.Errorf("expected 3.75, got %.2f", got)
	}
	if got := UserMonthlyTotal(entries, "u2", "2026-05"); got != 0 {
		t.Errorf("expected 0 for non-payer, got %.2f", got)
	}
	// Order of entries must not matter.
	rev := []model.LedgerEntry{entries[2], entries[1], entries[0]}
	if UserMonthlyTotal(rev, "u1", "2026-05") != UserMonthlyTotal(entries, "u1", "2026-05") {
		t.Error("aggregation depends on order")
	}
}

func TestEntriesForList_NewestFirst(t *testing.T) {
	old := Post(task("old", 1, ""), now.Add(-time.Hour))
	recent := Post(task("new", 1, ""), now)
	other := Post(task("other", 1, ""), now)
	other.ListID = "office"

	got := EntriesForList([]model.LedgerEntry{old, other, recent}, "home")
	if len(got) != 2 || got[0].TaskID != "new" || got[1].TaskID != "old" {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestMonthlyTotalsByUser(t *testing.T) {
	a := Post(task("a", 4, ""), now)
	b := Post(task("b", 1, ""), now)
	b.UserID = "u2"
	c := Post(task("c", 2, ""), now)

	rows := MonthlyTotalsByUser([]model.LedgerEntry{a, b, c}, "home", "2026-05")
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].UserID != "u1" || rows[0].Amount != 6 || rows[0].Count != 2 {
		t.Errorf("unexpected first row %+v", rows[0])
	}
}
