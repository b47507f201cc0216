package status

import (
	"sort"
	"time"

	"StakeHouse/internal/model"
)

// Groups partitions live and completed tasks for presentation.
type Groups struct {
	Overdue   []model.Task `json:"overdue"`
	Today     []model.Task `json:"today"`
	Tomorrow  []model.Task `json:"tomorrow"`
	ThisWeek  []model.Task `json:"this_week"`
	Later     []model.Task `json:"later"`
	Completed []model.Task `json:"completed"`
}

// Group buckets tasks by due date relative to now. Failed tasks of any kind are
// left out; they surface through the ledger. Buckets are ordered by priority
// (high first) then end time, and completed tasks newest first.
func Group(tasks []model.Task, now time.Time) Groups {
	var g Groups

	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	dayAfter := today.AddDate(0, 0, 2)
	weekEnd := today.AddDate(0, 0, 7)

	for _, t := range tasks {
		st := Compute(&t, now)
		switch {
		case st.IsFailure():
			continue
		case st == model.StatusCompleted:
			g.Completed = append(g.Completed, t)
		case st == model.StatusOverdue:
			g.Overdue = append(g.Overdue, t)
		case t.EndAt.Before(tomorrow):
			g.Today = append(g.Today, t)
		case t.EndAt.Before(dayAfter):
			g.Tomorrow = append(g.Tomorrow, t)
		case t.EndAt.Before(weekEnd):
			g.ThisWeek = append(g.ThisWeek, t)
		default:
			g.Later = append(g.Later, t)
		}
	}

	for _, bucket := range [][]model.Task{g.Overdue, g.Today, g.Tomorrow, g.ThisWeek, g.Later} {
		sortByPriority(bucket)
	}
	sort.SliceStable(g.Completed, func(i, j int) bool {
		return completedAt(g.Completed[i]).After(completedAt(g.Completed[j]))
	})
	return g
}

func sortByPriority(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		ri, rj := tasks[i].Priority.Rank(), tasks[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return tasks[i].EndAt.Before(tasks[j].EndAt)
	})
}

func completedAt(t model.Task) time.Time {
	if t.CompletedAt == nil {
		return time.Time{}
	}
	return *t.CompletedAt
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
