// Package commands routes chat commands to store use-cases.
package commands

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"StakeHouse/internal/ledger"
	"StakeHouse/internal/notifier"
	"StakeHouse/internal/store"
)

const helpText = `Available commands:
/tasks - open tasks by due date
/done &lt;id&gt; - complete a task
/fail &lt;id&gt; - give up on a task
/joker - spend a joker on the pending failure
/pay - pay the stake of the pending failure
/undo - revert the last paid stake (10s)
/ledger [YYYY-MM] - charges of a month
/funds - fund progress`

// Handler answers chat commands for one household list.
type Handler struct {
	Store  *store.Store
	ListID string
}

func NewHandler(st *store.Store, listID string) *Handler {
	return &Handler{Store: st, ListID: listID}
}

// Handle processes a user command and returns a reply.
func (h *Handler) Handle(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Telegram appends @botname in group chats.
	cmd, _, _ := strings.Cut(fields[0], "@")
	args := fields[1:]

	switch cmd {
	case "/tasks":
		return notifier.FormatGroups(h.Store.Groups())
	case "/done":
		return h.withTask(args, h.complete)
	case "/fail":
		return h.withTask(args, h.fail)
	case "/joker":
		out, err := h.Store.UseJoker()
		if err != nil {
			return describe(err)
		}
		if !out.Changed {
			return "Nothing to do, the task is already resolved."
		}
		return fmt.Sprintf("🃏 Joker used on %s. No stake charged.", html.EscapeString(out.Task.Title))
	case "/pay":
		out, err := h.Store.PayStake()
		if err != nil {
			return describe(err)
		}
		return h.paid(out)
	case "/undo":
		out, err := h.Store.UndoFailTask()
		if err != nil {
			return describe(err)
		}
		if out.Task.ID == "" {
			return "Undo window closed."
		}
		return fmt.Sprintf("↩️ %s is back to %s.", html.EscapeString(out.Task.Title), out.Task.Status)
	case "/ledger":
		month := ledger.MonthBucket(h.Store.Now())
		if len(args) > 0 {
			if _, err := time.Parse(ledger.MonthLayout, args[0]); err != nil {
				return "Usage: /ledger [YYYY-MM]"
			}
			month = args[0]
		}
		return notifier.FormatLedger(month, h.Store.Ledger(h.ListID), h.Store.UserNames())
	case "/funds":
		return notifier.FormatFunds(h.Store.FundTargets())
	default:
		return helpText
	}
}

// withTask resolves the task id argument, accepting a unique prefix.
func (h *Handler) withTask(args []string, fn func(id string) string) string {
	if len(args) == 0 {
		return "Usage: /done &lt;id&gt; or /fail &lt;id&gt;"
	}
	id, err := h.resolve(args[0])
	if err != nil {
		return describe(err)
	}
	return fn(id)
}

func (h *Handler) resolve(prefix string) (string, error) {
	var match string
	for _, t := range h.Store.Snapshot().Tasks {
		if t.ID == prefix {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			if match != "" {
				return "", errAmbiguous
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", store.ErrTaskNotFound
	}
	return match, nil
}

var errAmbiguous = errors.New("ambiguous task id")

func (h *Handler) complete(id string) string {
	out, err := h.Store.CompleteTask(id)
	if err != nil {
		return describe(err)
	}
	if !out.Changed {
		return fmt.Sprintf("%s is already %s.", html.EscapeString(out.Task.Title), out.Task.Status)
	}
	msg := fmt.Sprintf("✅ %s done. Streak: %d", html.EscapeString(out.Task.Title), out.Streak)
	if out.Reversed != "" {
		msg += "\nThe posted stake was forgiven."
	}
	if out.JokerGranted {
		msg += "\n🃏 Joker earned!"
	}
	return msg
}

func (h *Handler) fail(id string) string {
	out, err := h.Store.FailTask(id)
	if err != nil {
		return describe(err)
	}
	if out.Staged {
		name := out.Pending.UserID
		if u, err := h.Store.User(name); err == nil && u.Name != "" {
			name = u.Name
		}
		return fmt.Sprintf("🃏 %s holds %d joker(s). Reply /joker to waive the stake or /pay to pay %.2f.",
			html.EscapeString(name), out.Pending.JokerCount, out.Task.Stake)
	}
	if !out.Changed {
		return fmt.Sprintf("%s is already %s.", html.EscapeString(out.Task.Title), out.Task.Status)
	}
	return h.paid(out)
}

func (h *Handler) paid(out store.Outcome) string {
	if !out.Changed {
		return "Nothing to do, the task is already resolved."
	}
	amount := 0.0
	if out.Entry != nil {
		amount = out.Entry.Amount
	}
	return fmt.Sprintf("💸 %s failed, %.2f charged. /undo within %s to revert.",
		html.EscapeString(out.Task.Title), amount, store.UndoWindow)
}

func describe(err error) string {
	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found."
	case errors.Is(err, store.ErrUserNotFound):
		return "The assignee of this task is unknown."
	case errors.Is(err, store.ErrNoPendingFailure):
		return "No failure is waiting for a decision."
	case errors.Is(err, store.ErrNoJokerAvailable):
		return "No joker left."
	case errors.Is(err, store.ErrUndoExpired):
		return "Nothing to undo."
	case errors.Is(err, errAmbiguous):
		return "Several tasks match that id, use more characters."
	default:
		return "⚠️ " + html.EscapeString(err.Error())
	}
}
