package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"StakeHouse/internal/model"
	"StakeHouse/internal/status"
)

// NewTask is the input of CreateTask.
type NewTask struct {
	ListID             string         `json:"list_id"`
	Title              string         `json:"title"`
	Category           string         `json:"category"`
	Priority           model.Priority `json:"priority"`
	StartAt            time.Time      `json:"start_at"`
	EndAt              time.Time      `json:"end_at"`
	GracePeriodMinutes int            `json:"grace_period_minutes"`
	Stake              float64        `json:"stake"`
	AssigneeIDs        []string       `json:"assignee_ids"`
	FundTargetID       string         `json:"fund_target_id"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func (tx *txn) validateTask(in NewTask) error {
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title is required")
	}
	if in.EndAt.IsZero() {
		return invalid("end_at is required")
	}
	if !in.StartAt.IsZero() && in.EndAt.Before(in.StartAt) {
		return invalid("end_at before start_at")
	}
	if in.Stake < 0 {
		return invalid("negative stake")
	}
	if in.GracePeriodMinutes < 0 {
		return invalid("negative grace period")
	}
	if in.Priority != "" && in.Priority.Rank() == 0 {
		return invalid("unknown priority %q", in.Priority)
	}
	if len(in.AssigneeIDs) == 0 {
		return invalid("at least one assignee is required")
	}
	for _, id := range in.AssigneeIDs {
		if tx.state.UserIndex(id) < 0 {
			return fmt.Errorf("assignee %q: %w", id, ErrUserNotFound)
		}
	}
	if in.FundTargetID != "" {
		fi := tx.state.FundTargetIndex(in.FundTargetID)
		if fi < 0 || !tx.state.FundTargets[fi].Active {
			return fmt.Errorf("fund target %q: %w", in.FundTargetID, ErrFundTargetNotFound)
		}
	}
	return nil
}

// CreateTask validates and stores a new task. Its status is computed from
// the schedule at creation time.
func (s *Store) CreateTask(in NewTask) (model.Task, error) {
	out, err := s.mutate(func(tx *txn) (Outcome, error) {
		if err := tx.validateTask(in); err != nil {
			return Outcome{}, err
		}
		if in.Priority == "" {
			in.Priority = model.PriorityMedium
		}
		task := model.Task{
			ID:                 uuid.NewString(),
			ListID:             in.ListID,
			Title:              strings.TrimSpace(in.Title),
			Category:           in.Category,
			Priority:           in.Priority,
			StartAt:            in.StartAt,
			EndAt:              in.EndAt,
			GracePeriodMinutes: in.GracePeriodMinutes,
			Stake:              in.Stake,
			Status:             model.StatusPending,
			AssigneeIDs:        append([]string(nil), in.AssigneeIDs...),
			FundTargetID:       in.FundTargetID,
			CreatedAt:          tx.now,
		}
		// Already past grace: the next tick posts the stake, so only
		// surface overdue here.
		if status.Compute(&task, tx.now) != model.StatusPending {
			task.Status = model.StatusOverdue
		}
		tx.state.Tasks = append(tx.state.Tasks, task)
		tx.dirty = true
		return Outcome{Changed: true, Task: task.Clone()}, nil
	})
	return out.Task, err
}

// AddUser registers a household member with a fresh streak.
func (s *Store) AddUser(name, color string) (model.User, error) {
	var user model.User
	_, err := s.mutate(func(tx *txn) (Outcome, error) {
		if strings.TrimSpace(name) == "" {
			return Outcome{}, invalid("name is required")
		}
		user = model.User{ID: uuid.NewString(), Name: strings.TrimSpace(name), Color: color}
		tx.state.Users = append(tx.state.Users, user)
		tx.dirty = true
		return Outcome{Changed: true}, nil
	})
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

// AddFundTarget creates an active fund target. targetCents may be nil for an
// open-ended pool.
func (s *Store) AddFundTarget(listID, name string, targetCents *int64) (model.FundTarget, error) {
	var target model.FundTarget
	_, err := s.mutate(func(tx *txn) (Outcome, error) {
		if strings.TrimSpace(name) == "" {
			return Outcome{}, invalid("name is required")
		}
		if targetCents != nil && *targetCents <= 0 {
			return Outcome{}, invalid("target must be positive")
		}
		target = model.FundTarget{ID: uuid.NewString(), ListID: listID, Name: strings.TrimSpace(name), Active: true}
		if targetCents != nil {
			v := *targetCents
			target.TargetCents = &v
		}
		tx.state.FundTargets = append(tx.state.FundTargets, target)
		tx.dirty = true
		return Outcome{Changed: true}, nil
	})
	if err != nil {
		return model.FundTarget{}, err
	}
	if target.TargetCents != nil {
		v := *target.TargetCents
		target.TargetCents = &v
	}
	return target, nil
}

// DeactivateFundTarget stops reconciling a target. Its entries stay in the
// ledger.
func (s *Store) DeactivateFundTarget(id string) error {
	_, err := s.mutate(func(tx *txn) (Outcome, error) {
		fi := tx.state.FundTargetIndex(id)
		if fi < 0 {
			return Outcome{}, ErrFundTargetNotFound
		}
		if !tx.state.FundTargets[fi].Active {
			return Outcome{}, nil
		}
		tx.state.FundTargets[fi].Active = false
		tx.dirty = true
		return Outcome{Changed: true}, nil
	})
	return err
}
