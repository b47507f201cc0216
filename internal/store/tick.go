package store

import (
	"log"
	"time"

	"StakeHouse/internal/gamification"
	"StakeHouse/internal/ledger"
	"StakeHouse/internal/model"
	"StakeHouse/internal/notifier"
	"StakeHouse/internal/status"
)

// TickResult summarises one scheduler pass.
type TickResult struct {
	Overdue []string `json:"overdue"`
	Failed  []string `json:"failed"`
	Skipped []string `json:"skipped,omitempty"`
}

// Changed reports whether the pass moved any task.
func (r TickResult) Changed() bool {
	return len(r.Overdue)+len(r.Failed) > 0
}

// ApplyTick recomputes every live task's status at now and applies all
// resulting transitions as one persisted snapshot. A task whose payer cannot
// be resolved is skipped; the rest of the batch still applies.
func (s *Store) ApplyTick(now time.Time) (TickResult, error) {
	var res TickResult
	_, err := s.mutate(func(tx *txn) (Outcome, error) {
		tx.now = now
		for i := range tx.state.Tasks {
			task := &tx.state.Tasks[i]
			if task.Status.Terminal() {
				continue
			}
			next := status.Compute(task, now)
			if next == task.Status || !status.CanTransition(task.Status, next) {
				continue
			}

			switch next {
			case model.StatusOverdue:
				task.PreviousStatus = task.Status
				task.Status = model.StatusOverdue
				res.Overdue = append(res.Overdue, task.ID)
				var user *model.User
				if ui := tx.state.UserIndex(task.Payer()); ui >= 0 {
					user = &tx.state.Users[ui]
				}
				tr := taskTrigger(notifier.KindOverdue, task, user)
				tr.Amount = task.Stake
				tx.notify(tr)

			case model.StatusFailed:
				ui := tx.state.UserIndex(task.Payer())
				if ui < 0 {
					log.Printf("[WARN] tick: assignee %q of task %s not found, skipping", task.Payer(), task.ID)
					res.Skipped = append(res.Skipped, task.ID)
					continue
				}
				user := &tx.state.Users[ui]
				if _, ok := ledger.ActiveForTask(task.ID, tx.state.LedgerEntries); !ok {
					tx.state.LedgerEntries = append(tx.state.LedgerEntries, ledger.Post(task, now))
				}
				gamification.OnFailureResolved(user)
				task.PreviousStatus = task.Status
				task.Status = model.StatusFailed
				failedAt := now
				task.FailedAt = &failedAt
				res.Failed = append(res.Failed, task.ID)

				tr := taskTrigger(notifier.KindFailed, task, user)
				tr.Amount = task.Stake
				tx.notify(tr)
			}
		}
		tx.dirty = res.Changed()
		return Outcome{Changed: tx.dirty}, nil
	})
	if err != nil {
		return TickResult{}, err
	}
	if res.Changed() {
		log.Printf("[INFO] tick: %d overdue, %d failed, %d skipped", len(res.Overdue), len(res.Failed), len(res.Skipped))
	}
	return res, nil
}
