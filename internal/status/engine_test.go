package status

import (
	"testing"
	"time"

	"StakeHouse/internal/model"
)

var base = time.Date(2026, 5, 4, 18, 0, 0, 0, time.UTC)

func pendingTask(grace int) *model.Task {
	return &model.Task{
		ID:                 "t1",
		Title:              "Take out the bins",
		StartAt:            base.Add(-2 * time.Hour),
		EndAt:              base,
		GracePeriodMinutes: grace,
		Stake:              5,
		Status:             model.StatusPending,
		AssigneeIDs:        []string{"u1"},
	}
}

func TestCompute_GraceScenario(t *testing.T) {
	task := pendingTask(15)

	if got := Compute(task, base.Add(-time.Minute)); got != model.StatusPending {
		t.Errorf("before end: expected pending, got %s", got)
	}
	if got := Compute(task, base); got != model.StatusOverdue {
		t.Errorf("at end: expected overdue, got %s", got)
	}
	if got := Compute(task, base.Add(10*time.Minute)); got != model.StatusOverdue {
		t.Errorf("T+10m: expected overdue, got %s", got)
	}
	if got := Compute(task, base.Add(15*time.Minute)); got != model.StatusFailed {
		t.Errorf("at grace end: expected failed, got %s", got)
	}
	if got := Compute(task, base.Add(20*time.Minute)); got != model.StatusFailed {
		t.Errorf("T+20m: expected failed, got %s", got)
	}
}

func TestCompute_ZeroGraceFailsAtEnd(t *testing.T) {
	task := pendingTask(0)
	if got := Compute(task, base); got != model.StatusFailed {
		t.Errorf("expected failed with no grace period, got %s", got)
	}
}

func TestCompute_TerminalIsIdentity(t *testing.T) {
	for _, st := range []model.Status{
		model.StatusCompleted, model.StatusFailedJokerUsed, model.StatusFailedStakePaid,
	} {
		task := pendingTask(15)
		task.Status = st
		for _, now := range []time.Time{base.Add(-time.Hour), base.Add(5 * time.Minute), base.Add(48 * time.Hour)} {
			if got := Compute(task, now); got != st {
				t.Errorf("%s at %v: expected unchanged, got %s", st, now, got)
			}
		}
	}
}

func TestCompute_Monotonic(t *testing.T) {
	task := pendingTask(30)
	rank := map[model.Status]int{model.StatusPending: 0, model.StatusOverdue: 1, model.StatusFailed: 2}

	prev := -1
	for m := -120; m <= 120; m++ {
		now := base.Add(time.Duration(m) * time.Minute)
		r := rank[Compute(task, now)]
		if r < prev {
			t.Fatalf("status went backwards at %v", now)
		}
		prev = r
	}
}

func TestCompute_StoredFailedStaysFailed(t *testing.T) {
	task := pendingTask(15)
	task.Status = model.StatusFailed
	if got := Compute(task, base.Add(time.Hour)); got != model.StatusFailed {
		t.Errorf("expected failed, got %s", got)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to model.Status
		want     bool
	}{
		{model.StatusPending, model.StatusOverdue, true},
		{model.StatusOverdue, model.StatusFailed, true},
		{model.StatusFailed, model.StatusCompleted, true},
		{model.StatusFailed, model.StatusFailedJokerUsed, true},
		{model.StatusOverdue, model.StatusPending, false},
		{model.StatusCompleted, model.StatusFailed, false},
		{model.StatusFailedStakePaid, model.StatusCompleted, false},
		{model.StatusFailedJokerUsed, model.StatusFailedStakePaid, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("%s -> %s: expected %v, got %v", c.from, c.to, c.want, got)
		}
	}
}

func TestCanRevert(t *testing.T) {
	if !CanRevert(model.StatusFailedStakePaid, model.StatusOverdue) {
		t.Error("stake-paid should revert to overdue")
	}
	if CanRevert(model.StatusFailedJokerUsed, model.StatusOverdue) {
		t.Error("joker resolution must not be revertible")
	}
	if CanRevert(model.StatusFailedStakePaid, model.StatusCompleted) {
		t.Error("undo must not restore a terminal status")
	}
}
