package store

import (
	"log"
	"time"

	"StakeHouse/internal/model"
)

// armUndo replaces any running expiry timer with one for u. Caller holds s.mu.
func (s *Store) armUndo(u model.UndoAction, now time.Time) {
	s.stopUndoTimer()
	s.undoTimer = s.clock.AfterFunc(u.ExpiresAt.Sub(now), func() { s.expireUndo(u) })
}

// stopUndoTimer cancels the pending expiry. Caller holds s.mu.
func (s *Store) stopUndoTimer() {
	if s.undoTimer != nil {
		s.undoTimer.Stop()
		s.undoTimer = nil
	}
}

// expireUndo clears u if it is still the current undo action. Firing twice,
// or after an explicit undo or a newer failure, does nothing.
func (s *Store) expireUndo(u model.UndoAction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.state.UndoAction
	if cur == nil || cur.TaskID != u.TaskID || !cur.CreatedAt.Equal(u.CreatedAt) {
		return
	}

	next := s.state.Clone()
	next.UndoAction = nil
	if err := s.persister.Save(next); err != nil {
		// The action is already unusable past its expiry, so keep going.
		log.Printf("[ERROR] failed to save state after undo expiry: %v", err)
	}
	s.state = next
	s.undoTimer = nil
	log.Printf("[INFO] undo window for task %s closed", u.TaskID)
}
