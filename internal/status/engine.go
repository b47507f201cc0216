// Package status derives task lifecycle states from their schedule.
package status

import (
	"time"

	"StakeHouse/internal/model"
)

// Compute returns the status task should have at now. Terminal statuses are
// returned unchanged; otherwise the result depends only on the end time, the
// grace period and now.
func Compute(task *model.Task, now time.Time) model.Status {
	if task.Status.Terminal() {
		return task.Status
	}
	switch {
	case !now.Before(task.GraceEnd()):
		return model.StatusFailed
	case !now.Before(task.EndAt):
		return model.StatusOverdue
	default:
		return model.StatusPending
	}
}

// transitions lists every legal forward move. Undo is handled separately by
// CanRevert because it runs against the table.
var transitions = map[model.Status][]model.Status{
	model.StatusPending: {
		model.StatusOverdue,
		model.StatusFailed,
		model.StatusCompleted,
		model.StatusFailedStakePaid,
		model.StatusFailedJokerUsed,
	},
	model.StatusOverdue: {
		model.StatusFailed,
		model.StatusCompleted,
		model.StatusFailedStakePaid,
		model.StatusFailedJokerUsed,
	},
	model.StatusFailed: {
		model.StatusCompleted,
		model.StatusFailedStakePaid,
		model.StatusFailedJokerUsed,
	},
}

// CanTransition reports whether from -> to is a legal forward transition.
func CanTransition(from, to model.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanRevert reports whether an undo may move a task from a stake-paid
// failure back to restored.
func CanRevert(from, restored model.Status) bool {
	if from != model.StatusFailedStakePaid {
		return false
	}
	switch restored {
	case model.StatusPending, model.StatusOverdue, model.StatusFailed:
		return true
	}
	return false
}
