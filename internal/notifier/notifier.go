package notifier

import (
	"context"
	"errors"
	"log"
	"time"
)

// Kind identifies what happened.
type Kind string

const (
	KindOverdue     Kind = "overdue"
	KindFailed      Kind = "failed"
	KindCompleted   Kind = "completed"
	KindJokerEarned Kind = "joker_earned"
	KindGoalReached Kind = "goal_reached"
)

// Trigger is the payload handed to a Notifier.
type Trigger struct {
	Kind         Kind      `json:"kind"`
	ListID       string    `json:"list_id,omitempty"`
	TaskID       string    `json:"task_id,omitempty"`
	TaskTitle    string    `json:"task_title,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	UserName     string    `json:"user_name,omitempty"`
	Amount       float64   `json:"amount,omitempty"`
	Streak       int       `json:"streak,omitempty"`
	JokerCount   int       `json:"joker_count,omitempty"`
	FundTargetID string    `json:"fund_target_id,omitempty"`
	FundName     string    `json:"fund_name,omitempty"`
	At           time.Time `json:"at"`
}

// Notifier delivers triggers. Notify must not block on delivery and has no
// error result: callers never wait for or react to delivery failures.
type Notifier interface {
	Notify(tr Trigger)
}

// Broadcaster delivers free-form reports such as the monthly summary.
type Broadcaster interface {
	Broadcast(ctx context.Context, text string) error
}

// Broadcasters sends a report through each broadcaster and joins the failures.
type Broadcasters []Broadcaster

func (bs Broadcasters) Broadcast(ctx context.Context, text string) error {
	var errs []error
	for _, b := range bs {
		if err := b.Broadcast(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Multi fans a trigger out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(tr Trigger) {
	for _, n := range m {
		n.Notify(tr)
	}
}

// LogNotifier writes triggers to the process log. Used when no delivery
// channel is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(tr Trigger) {
	log.Printf("[INFO] notify %s task=%s user=%s fund=%s", tr.Kind, tr.TaskID, tr.UserID, tr.FundTargetID)
}

func (LogNotifier) Broadcast(_ context.Context, text string) error {
	log.Printf("[INFO] broadcast:\n%s", text)
	return nil
}

// Noop drops every trigger.
type Noop struct{}

func (Noop) Notify(Trigger) {}
