// Package store is the single mutation authority over tasks, the ledger,
// users and fund targets. Every use-case runs under one mutex against a
// cloned snapshot; the clone is persisted before it replaces the live state.
package store

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"StakeHouse/internal/clock"
	"StakeHouse/internal/fund"
	"StakeHouse/internal/ledger"
	"StakeHouse/internal/model"
	"StakeHouse/internal/notifier"
	"StakeHouse/internal/status"
	"StakeHouse/internal/storage"
)

// UndoWindow is how long a stake-paid failure can be reverted.
const UndoWindow = 10 * time.Second

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrFundTargetNotFound = errors.New("fund target not found")
	ErrNoPendingFailure   = errors.New("no pending failure decision")
	ErrNoJokerAvailable   = errors.New("no joker available")
	ErrUndoExpired        = errors.New("nothing to undo")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPersist            = errors.New("persist state")
)

// Outcome describes what a use-case did. Changed is false when the call was a
// tolerated no-op, such as resolving a task that is already terminal.
type Outcome struct {
	Changed      bool                  `json:"changed"`
	Staged       bool                  `json:"staged,omitempty"`
	Task         model.Task            `json:"task"`
	Entry        *model.LedgerEntry    `json:"ledger_entry,omitempty"`
	Reversed     string                `json:"reversed_entry_id,omitempty"`
	Pending      *model.PendingFailure `json:"pending,omitempty"`
	Undo         *model.UndoAction     `json:"undo,omitempty"`
	Streak       int                   `json:"streak"`
	JokerGranted bool                  `json:"joker_granted,omitempty"`
}

// Store owns the household state.
type Store struct {
	mu        sync.Mutex
	state     *model.State
	pending   *model.PendingFailure
	undoTimer clock.Timer

	persister storage.Persister
	notifier  notifier.Notifier
	clock     clock.Clock
}

// New loads the persisted snapshot, corrects fund totals and re-arms a live
// undo action.
func New(p storage.Persister, n notifier.Notifier, c clock.Clock) (*Store, error) {
	state, err := p.Load()
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if n == nil {
		n = notifier.Noop{}
	}
	if c == nil {
		c = clock.Real{}
	}

	s := &Store{state: state, persister: p, notifier: n, clock: c}
	var drifted []string
	s.state.FundTargets, _, drifted = fund.Reconcile(s.state.FundTargets, s.state.LedgerEntries)
	for _, id := range drifted {
		log.Printf("[WARN] fund %s total disagreed with ledger, corrected", id)
	}

	now := c.Now()
	if u := s.state.UndoAction; u != nil {
		if u.Live(now) {
			s.armUndo(*u, now)
		} else {
			log.Printf("[INFO] dropping expired undo action for task %s", u.TaskID)
			s.state.UndoAction = nil
		}
	}

	log.Printf("[INFO] store loaded: %d tasks, %d ledger entries, %d users, %d fund targets",
		len(s.state.Tasks), len(s.state.LedgerEntries), len(s.state.Users), len(s.state.FundTargets))
	return s, nil
}

// txn is the working copy of one use-case.
type txn struct {
	state    *model.State
	now      time.Time
	dirty    bool
	triggers []notifier.Trigger
	after    []func()
}

func (tx *txn) notify(tr notifier.Trigger) {
	tr.At = tx.now
	tx.triggers = append(tx.triggers, tr)
}

// mutate runs fn against a clone of the state. A dirty clone is reconciled,
// persisted and swapped in; after-hooks run under the lock once that has
// succeeded, and triggers are delivered after the lock is released.
func (s *Store) mutate(fn func(tx *txn) (Outcome, error)) (Outcome, error) {
	s.mu.Lock()
	tx := &txn{state: s.state.Clone(), now: s.clock.Now()}
	out, err := fn(tx)
	if err == nil && tx.dirty {
		err = s.commit(tx)
	}
	if err != nil {
		s.mu.Unlock()
		return Outcome{}, err
	}
	for _, f := range tx.after {
		f()
	}
	s.mu.Unlock()

	for _, tr := range tx.triggers {
		s.notifier.Notify(tr)
	}
	return out, nil
}

// commit must be called with s.mu held.
func (s *Store) commit(tx *txn) error {
	targets, reached, _ := fund.Reconcile(tx.state.FundTargets, tx.state.LedgerEntries)
	tx.state.FundTargets = targets
	for _, t := range reached {
		tx.notify(notifier.Trigger{
			Kind:         notifier.KindGoalReached,
			ListID:       t.ListID,
			FundTargetID: t.ID,
			FundName:     t.Name,
			Amount:       float64(t.TotalCollectedCents) / 100,
		})
	}
	tx.state.UpdatedAt = tx.now

	if err := s.persister.Save(tx.state); err != nil {
		log.Printf("[ERROR] failed to save state: %v", err)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	s.state = tx.state
	return nil
}

func taskTrigger(kind notifier.Kind, t *model.Task, u *model.User) notifier.Trigger {
	tr := notifier.Trigger{
		Kind:         kind,
		ListID:       t.ListID,
		TaskID:       t.ID,
		TaskTitle:    t.Title,
		FundTargetID: t.FundTargetID,
	}
	if u != nil {
		tr.UserID = u.ID
		tr.UserName = u.Name
		tr.Streak = u.CurrentStreakCount
		tr.JokerCount = u.JokerCount
	}
	return tr
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Task returns the task with id.
func (s *Store) Task(id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.state.TaskIndex(id)
	if i < 0 {
		return model.Task{}, ErrTaskNotFound
	}
	return s.state.Tasks[i].Clone(), nil
}

// Users returns all users in insertion order.
func (s *Store) Users() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.User(nil), s.state.Users...)
}

// User returns the user with id.
func (s *Store) User(id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.state.UserIndex(id)
	if i < 0 {
		return model.User{}, ErrUserNotFound
	}
	return s.state.Users[i], nil
}

// UserNames maps user ids to display names.
func (s *Store) UserNames() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make(map[string]string, len(s.state.Users))
	for _, u := range s.state.Users {
		names[u.ID] = u.Name
	}
	return names
}

func (s *Store) FundTargets() []model.FundTarget {
	return s.Snapshot().FundTargets
}

// Groups buckets the live tasks for presentation at the current instant.
func (s *Store) Groups() status.Groups {
	snap := s.Snapshot()
	return status.Group(snap.Tasks, s.clock.Now())
}

// Ledger returns the entries of listID, newest first.
func (s *Store) Ledger(listID string) []model.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ledger.EntriesForList(s.state.LedgerEntries, listID)
}

func (s *Store) UserMonthlyTotal(userID, month string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ledger.UserMonthlyTotal(s.state.LedgerEntries, userID, month)
}

func (s *Store) MonthlyTotals(listID, month string) []ledger.UserTotal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ledger.MonthlyTotalsByUser(s.state.LedgerEntries, listID, month)
}

// PendingFailure returns the staged joker-or-stake decision, if any.
func (s *Store) PendingFailure() *model.PendingFailure {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	p := *s.pending
	return &p
}

// UndoAction returns the live undo action, if any.
func (s *Store) UndoAction() *model.UndoAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.UndoAction.Live(s.clock.Now()) {
		return nil
	}
	u := *s.state.UndoAction
	return &u
}

// Now is the store's notion of the current instant.
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// Close stops the undo timer and closes the persister.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.undoTimer != nil {
		s.undoTimer.Stop()
		s.undoTimer = nil
	}
	s.mu.Unlock()
	return s.persister.Close()
}
