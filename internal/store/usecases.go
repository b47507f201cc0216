package store

import (
	"log"

	"StakeHouse/internal/gamification"
	"StakeHouse/internal/ledger"
	"StakeHouse/internal/model"
	"StakeHouse/internal/notifier"
	"StakeHouse/internal/status"
)

// lookup resolves a task and its payer inside tx.
func (tx *txn) lookup(taskID string) (*model.Task, *model.User, error) {
	ti := tx.state.TaskIndex(taskID)
	if ti < 0 {
		log.Printf("[WARN] task %s not found", taskID)
		return nil, nil, ErrTaskNotFound
	}
	task := &tx.state.Tasks[ti]
	ui := tx.state.UserIndex(task.Payer())
	if ui < 0 {
		log.Printf("[WARN] assignee %q of task %s not found", task.Payer(), taskID)
		return task, nil, ErrUserNotFound
	}
	return task, &tx.state.Users[ui], nil
}

// CompleteTask marks a task completed and credits its payer's streak. A stake
// already posted by an automatic failure is forgiven.
func (s *Store) CompleteTask(taskID string) (Outcome, error) {
	return s.mutate(func(tx *txn) (Outcome, error) {
		task, user, err := tx.lookup(taskID)
		if err == ErrTaskNotFound {
			return Outcome{}, err
		}
		if task.Status.Terminal() {
			return Outcome{Task: task.Clone()}, nil
		}
		if err != nil {
			return Outcome{}, err
		}
		if !status.CanTransition(task.Status, model.StatusCompleted) {
			return Outcome{Task: task.Clone()}, nil
		}

		out := Outcome{Changed: true}
		if e, ok := ledger.ActiveForTask(task.ID, tx.state.LedgerEntries); ok {
			tx.state.LedgerEntries = ledger.Reverse(e.ID, tx.state.LedgerEntries)
			out.Reversed = e.ID
			log.Printf("[INFO] late completion of %s forgives entry %s (%.2f)", task.ID, e.ID, e.Amount)
		}

		now := tx.now
		task.PreviousStatus = task.Status
		task.Status = model.StatusCompleted
		task.CompletedAt = &now

		res := gamification.OnCompletion(user)
		out.Streak = res.NewStreak
		out.JokerGranted = res.JokerGranted
		tx.dirty = true

		tx.notify(taskTrigger(notifier.KindCompleted, task, user))
		if res.JokerGranted {
			tx.notify(taskTrigger(notifier.KindJokerEarned, task, user))
		}
		tx.after = append(tx.after, func() { s.clearPendingFor(taskID) })

		out.Task = task.Clone()
		return out, nil
	})
}

// FailTask records a manual failure. When the payer holds a joker the
// decision is staged for UseJoker or PayStake; otherwise the stake is paid
// immediately and an undo window opens.
func (s *Store) FailTask(taskID string) (Outcome, error) {
	return s.mutate(func(tx *txn) (Outcome, error) {
		task, user, err := tx.lookup(taskID)
		if err == ErrTaskNotFound {
			return Outcome{}, err
		}
		if task.Status.Terminal() {
			return Outcome{Task: task.Clone()}, nil
		}
		if err != nil {
			return Outcome{}, err
		}

		if user.JokerCount > 0 {
			p := model.PendingFailure{
				TaskID:     task.ID,
				UserID:     user.ID,
				JokerCount: user.JokerCount,
				StagedAt:   tx.now,
			}
			tx.after = append(tx.after, func() { s.pending = &p })
			staged := p
			return Outcome{Staged: true, Task: task.Clone(), Pending: &staged}, nil
		}

		return s.payStake(tx, task, user), nil
	})
}

// UseJoker resolves the pending failure by spending one of the payer's
// jokers. No stake is charged; one posted by an automatic failure is waived.
func (s *Store) UseJoker() (Outcome, error) {
	return s.mutate(func(tx *txn) (Outcome, error) {
		if s.pending == nil {
			return Outcome{}, ErrNoPendingFailure
		}
		taskID := s.pending.TaskID
		task, user, err := tx.lookup(taskID)
		if err == ErrTaskNotFound {
			return Outcome{}, err
		}
		if task.Status.Terminal() {
			tx.after = append(tx.after, func() { s.clearPendingFor(taskID) })
			return Outcome{Task: task.Clone()}, nil
		}
		if err != nil {
			return Outcome{}, err
		}
		if !gamification.ConsumeJoker(user) {
			return Outcome{}, ErrNoJokerAvailable
		}
		gamification.OnFailureResolved(user)

		out := Outcome{Changed: true}
		if e, ok := ledger.ActiveForTask(task.ID, tx.state.LedgerEntries); ok {
			tx.state.LedgerEntries = ledger.Reverse(e.ID, tx.state.LedgerEntries)
			out.Reversed = e.ID
		}

		task.PreviousStatus = task.Status
		task.Status = model.StatusFailedJokerUsed
		if task.FailedAt == nil {
			now := tx.now
			task.FailedAt = &now
		}
		tx.dirty = true
		tx.notify(taskTrigger(notifier.KindFailed, task, user))
		tx.after = append(tx.after, func() { s.clearPendingFor(taskID) })

		log.Printf("[INFO] joker used on %s by %s (%d left)", task.ID, user.ID, user.JokerCount)
		out.Task = task.Clone()
		return out, nil
	})
}

// PayStake resolves the pending failure by charging the stake.
func (s *Store) PayStake() (Outcome, error) {
	return s.mutate(func(tx *txn) (Outcome, error) {
		if s.pending == nil {
			return Outcome{}, ErrNoPendingFailure
		}
		taskID := s.pending.TaskID
		task, user, err := tx.lookup(taskID)
		if err == ErrTaskNotFound {
			return Outcome{}, err
		}
		if task.Status.Terminal() {
			tx.after = append(tx.after, func() { s.clearPendingFor(taskID) })
			return Outcome{Task: task.Clone()}, nil
		}
		if err != nil {
			return Outcome{}, err
		}
		out := s.payStake(tx, task, user)
		tx.after = append(tx.after, func() { s.clearPendingFor(taskID) })
		return out, nil
	})
}

// payStake applies a stake-paid failure to task inside tx. An entry already
// posted for the task is kept rather than charged twice.
func (s *Store) payStake(tx *txn, task *model.Task, user *model.User) Outcome {
	out := Outcome{Changed: true}
	var entryID string
	if e, ok := ledger.ActiveForTask(task.ID, tx.state.LedgerEntries); ok {
		out.Entry = &e
	} else {
		e := ledger.Post(task, tx.now)
		tx.state.LedgerEntries = append(tx.state.LedgerEntries, e)
		entryID = e.ID
		out.Entry = &e
	}

	task.PreviousStatus = task.Status
	task.Status = model.StatusFailedStakePaid
	if task.FailedAt == nil {
		now := tx.now
		task.FailedAt = &now
	}
	gamification.OnFailureResolved(user)

	undo := model.UndoAction{
		TaskID:        task.ID,
		LedgerEntryID: entryID,
		CreatedAt:     tx.now,
		ExpiresAt:     tx.now.Add(UndoWindow),
	}
	tx.state.UndoAction = &undo
	tx.dirty = true

	tr := taskTrigger(notifier.KindFailed, task, user)
	tr.Amount = task.Stake
	tx.notify(tr)

	now := tx.now
	tx.after = append(tx.after, func() { s.armUndo(undo, now) })

	log.Printf("[INFO] stake %.2f paid by %s for %s", task.Stake, user.ID, task.ID)
	out.Task = task.Clone()
	out.Undo = &undo
	return out
}

// UndoFailTask reverts the last stake-paid failure while its window is open.
func (s *Store) UndoFailTask() (Outcome, error) {
	return s.mutate(func(tx *txn) (Outcome, error) {
		u := tx.state.UndoAction
		if !u.Live(tx.now) {
			return Outcome{}, ErrUndoExpired
		}
		undo := *u
		tx.state.UndoAction = nil
		tx.dirty = true
		tx.after = append(tx.after, s.stopUndoTimer)

		ti := tx.state.TaskIndex(undo.TaskID)
		if ti < 0 {
			log.Printf("[WARN] undo target %s not found", undo.TaskID)
			return Outcome{Changed: true}, nil
		}
		task := &tx.state.Tasks[ti]

		restored := task.PreviousStatus
		if restored == "" {
			restored = model.StatusOverdue
		}
		if !status.CanRevert(task.Status, restored) {
			return Outcome{Changed: true, Task: task.Clone()}, nil
		}

		out := Outcome{Changed: true}
		if undo.LedgerEntryID != "" {
			tx.state.LedgerEntries = ledger.Reverse(undo.LedgerEntryID, tx.state.LedgerEntries)
			out.Reversed = undo.LedgerEntryID
		}
		task.Status = restored
		task.PreviousStatus = ""
		if restored != model.StatusFailed {
			task.FailedAt = nil
		}

		log.Printf("[INFO] undo restored %s to %s", task.ID, restored)
		out.Task = task.Clone()
		return out, nil
	})
}

// clearPendingFor drops the staged decision if it belongs to taskID.
// Caller holds s.mu.
func (s *Store) clearPendingFor(taskID string) {
	if s.pending != nil && s.pending.TaskID == taskID {
		s.pending = nil
	}
}
