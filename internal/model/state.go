package model

import "time"

// UndoAction guards a just-recorded stake-paid failure for a short window.
type UndoAction struct {
	TaskID        string    `json:"task_id"`
	LedgerEntryID string    `json:"ledger_entry_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Live reports whether the action can still be applied at now.
func (u *UndoAction) Live(now time.Time) bool {
	return u != nil && now.Before(u.ExpiresAt)
}

// PendingFailure is a manual failure waiting for a joker-or-stake decision.
type PendingFailure struct {
	TaskID     string    `json:"task_id"`
	UserID     string    `json:"user_id"`
	JokerCount int       `json:"joker_count"`
	StagedAt   time.Time `json:"staged_at"`
}

// State is the persisted snapshot: one record per collection.
type State struct {
	Tasks         []Task        `json:"tasks"`
	LedgerEntries []LedgerEntry `json:"ledger_entries"`
	Users         []User        `json:"users"`
	FundTargets   []FundTarget  `json:"fund_targets"`
	UndoAction    *UndoAction   `json:"undo_action,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Clone returns a deep copy of s so a mutation can be prepared off to the side.
func (s *State) Clone() *State {
	c := &State{UpdatedAt: s.UpdatedAt}
	c.Tasks = make([]Task, len(s.Tasks))
	for i := range s.Tasks {
		c.Tasks[i] = s.Tasks[i].Clone()
	}
	c.LedgerEntries = append([]LedgerEntry(nil), s.LedgerEntries...)
	c.Users = append([]User(nil), s.Users...)
	c.FundTargets = make([]FundTarget, len(s.FundTargets))
	for i, f := range s.FundTargets {
		if f.TargetCents != nil {
			v := *f.TargetCents
			f.TargetCents = &v
		}
		c.FundTargets[i] = f
	}
	if s.UndoAction != nil {
		u := *s.UndoAction
		c.UndoAction = &u
	}
	return c
}

// TaskIndex returns the position of the task with id, or -1.
func (s *State) TaskIndex(id string) int {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// UserIndex returns the position of the user with id, or -1.
func (s *State) UserIndex(id string) int {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return i
		}
	}
	return -1
}

// FundTargetIndex returns the position of the fund target with id, or -1.
func (s *State) FundTargetIndex(id string) int {
	for i := range s.FundTargets {
		if s.FundTargets[i].ID == id {
			return i
		}
	}
	return -1
}
