package store

import (
	"errors"
	"testing"
	"time"

	"StakeHouse/internal/model"
)

func TestCreateTask(t *testing.T) {
	h := newHarness(t, fixture())

	task, err := h.store.CreateTask(NewTask{
		ListID:             "home",
		Title:              "  Water plants ",
		EndAt:              t0.Add(3 * time.Hour),
		GracePeriodMinutes: 30,
		Stake:              2.5,
		AssigneeIDs:        []string{"u1"},
		FundTargetID:       "g1",
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID == "" || task.Title != "Water plants" || task.Status != model.StatusPending {
		t.Errorf("task = %+v", task)
	}
	if task.Priority != model.PriorityMedium || !task.CreatedAt.Equal(t0) {
		t.Errorf("defaults not applied: %+v", task)
	}
	if got := h.task(t, task.ID); got.Stake != 2.5 {
		t.Errorf("stored stake = %v", got.Stake)
	}
}

func TestCreateTask_AlreadyDue(t *testing.T) {
	h := newHarness(t, fixture())
	task, err := h.store.CreateTask(NewTask{Title: "Late", EndAt: t0.Add(-time.Minute), AssigneeIDs: []string{"u1"}})
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != model.StatusOverdue {
		t.Errorf("status = %s, want overdue", task.Status)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	h := newHarness(t, fixture())
	end := t0.Add(time.Hour)
	tests := []struct {
		name string
		in   NewTask
		want error
	}{
		{"empty title", NewTask{Title: " ", EndAt: end, AssigneeIDs: []string{"u1"}}, ErrInvalidInput},
		{"no end", NewTask{Title: "x", AssigneeIDs: []string{"u1"}}, ErrInvalidInput},
		{"end before start", NewTask{Title: "x", StartAt: end, EndAt: t0, AssigneeIDs: []string{"u1"}}, ErrInvalidInput},
		{"negative stake", NewTask{Title: "x", EndAt: end, Stake: -1, AssigneeIDs: []string{"u1"}}, ErrInvalidInput},
		{"negative grace", NewTask{Title: "x", EndAt: end, GracePeriodMinutes: -5, AssigneeIDs: []string{"u1"}}, ErrInvalidInput},
		{"bad priority", NewTask{Title: "x", EndAt: end, Priority: "urgent", AssigneeIDs: []string{"u1"}}, ErrInvalidInput},
		{"no assignee", NewTask{Title: "x", EndAt: end}, ErrInvalidInput},
		{"unknown assignee", NewTask{Title: "x", EndAt: end, AssigneeIDs: []string{"ghost"}}, ErrUserNotFound},
		{"unknown fund", NewTask{Title: "x", EndAt: end, AssigneeIDs: []string{"u1"}, FundTargetID: "g9"}, ErrFundTargetNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.store.CreateTask(tt.in); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if n := len(h.store.Snapshot().Tasks); n != 1 {
		t.Errorf("invalid tasks were stored: %d", n)
	}
}

func TestAddUserAndFundTarget(t *testing.T) {
	h := newHarness(t, nil)

	u, err := h.store.AddUser("Bo", "#00f")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID == "" || u.CurrentStreakCount != 0 || u.JokerCount != 0 {
		t.Errorf("user = %+v", u)
	}
	if _, err := h.store.AddUser("", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty name err = %v", err)
	}

	f, err := h.store.AddFundTarget("home", "Holiday", target(20000))
	if err != nil {
		t.Fatal(err)
	}
	if !f.Active || f.TargetCents == nil || *f.TargetCents != 20000 {
		t.Errorf("fund = %+v", f)
	}
	if _, err := h.store.AddFundTarget("home", "Zero", target(0)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero target err = %v", err)
	}

	if err := h.store.DeactivateFundTarget(f.ID); err != nil {
		t.Fatal(err)
	}
	if h.store.FundTargets()[0].Active {
		t.Errorf("fund still active")
	}
	if err := h.store.DeactivateFundTarget("nope"); !errors.Is(err, ErrFundTargetNotFound) {
		t.Errorf("err = %v", err)
	}
	if _, err := h.store.CreateTask(NewTask{Title: "x", EndAt: t0.Add(time.Hour), AssigneeIDs: []string{u.ID}, FundTargetID: f.ID}); !errors.Is(err, ErrFundTargetNotFound) {
		t.Errorf("inactive fund accepted: %v", err)
	}
}

func TestReadAccessors(t *testing.T) {
	h := newHarness(t, fixture())
	if _, err := h.store.FailTask("t1"); err != nil {
		t.Fatal(err)
	}

	if got := h.store.UserMonthlyTotal("u1", "2026-03"); got != 5 {
		t.Errorf("monthly total = %v, want 5", got)
	}
	if rows := h.store.MonthlyTotals("home", "2026-03"); len(rows) != 1 || rows[0].Count != 1 {
		t.Errorf("rows = %+v", rows)
	}
	if entries := h.store.Ledger("home"); len(entries) != 1 {
		t.Errorf("ledger = %+v", entries)
	}
	if names := h.store.UserNames(); names["u1"] != "Ada" {
		t.Errorf("names = %v", names)
	}
	if g := h.store.Groups(); len(g.Overdue)+len(g.Today)+len(g.Completed) != 0 {
		t.Errorf("failed task leaked into groups: %+v", g)
	}
}
