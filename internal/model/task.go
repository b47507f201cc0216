package model

import "time"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending         Status = "pending"
	StatusOverdue         Status = "overdue"
	StatusFailed          Status = "failed"
	StatusCompleted       Status = "completed"
	StatusFailedJokerUsed Status = "failed_joker_used"
	StatusFailedStakePaid Status = "failed_stake_paid"
)

// Terminal reports whether no automatic transition may leave s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailedJokerUsed, StatusFailedStakePaid:
		return true
	}
	return false
}

// IsFailure reports whether s is failed or one of its resolutions.
func (s Status) IsFailure() bool {
	switch s {
	case StatusFailed, StatusFailedJokerUsed, StatusFailedStakePaid:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusOverdue, StatusFailed, StatusCompleted,
		StatusFailedJokerUsed, StatusFailedStakePaid:
		return true
	}
	return false
}

// Priority orders tasks within a presentation bucket.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank maps a priority to a sortable integer, higher first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Task is a commitment with a schedule and a stake.
type Task struct {
	ID                 string     `json:"id"`
	ListID             string     `json:"list_id"`
	Title              string     `json:"title"`
	Category           string     `json:"category,omitempty"`
	Priority           Priority   `json:"priority,omitempty"`
	StartAt            time.Time  `json:"start_at"`
	EndAt              time.Time  `json:"end_at"`
	GracePeriodMinutes int        `json:"grace_period_minutes"`
	Stake              float64    `json:"stake"`
	Status             Status     `json:"status"`
	PreviousStatus     Status     `json:"previous_status,omitempty"`
	AssigneeIDs        []string   `json:"assignee_ids"`
	FundTargetID       string     `json:"fund_target_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	FailedAt           *time.Time `json:"failed_at,omitempty"`
}

// GraceEnd is the instant after which an unresolved task counts as failed.
func (t *Task) GraceEnd() time.Time {
	return t.EndAt.Add(time.Duration(t.GracePeriodMinutes) * time.Minute)
}

// Payer returns the assignee charged for the task and credited for its completion.
// Multi-assignee tasks are attributed to the first assignee.
func (t *Task) Payer() string {
	if len(t.AssigneeIDs) == 0 {
		return ""
	}
	return t.AssigneeIDs[0]
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	c := t
	c.AssigneeIDs = append([]string(nil), t.AssigneeIDs...)
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	if t.FailedAt != nil {
		v := *t.FailedAt
		c.FailedAt = &v
	}
	return c
}
