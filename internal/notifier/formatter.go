package notifier

import (
	"fmt"
	"html"
	"strings"

	"StakeHouse/internal/fund"
	"StakeHouse/internal/ledger"
	"StakeHouse/internal/model"
	"StakeHouse/internal/status"
)

// FormatTrigger renders a trigger as a Telegram HTML message.
func FormatTrigger(tr Trigger) string {
	title := html.EscapeString(tr.TaskTitle)
	who := html.EscapeString(displayName(tr.UserName, tr.UserID))

	switch tr.Kind {
	case KindOverdue:
		return fmt.Sprintf("⏰ <b>Overdue</b>: %s (%s)\nStake at risk: %.2f", title, who, tr.Amount)
	case KindFailed:
		return fmt.Sprintf("❌ <b>Failed</b>: %s (%s)\nCharged: %.2f", title, who, tr.Amount)
	case KindCompleted:
		return fmt.Sprintf("✅ <b>Done</b>: %s (%s)\nStreak: %d", title, who, tr.Streak)
	case KindJokerEarned:
		return fmt.Sprintf("🃏 <b>Joker earned</b> by %s\nStreak %d, jokers: %d", who, tr.Streak, tr.JokerCount)
	case KindGoalReached:
		return fmt.Sprintf("🎯 <b>Goal reached</b>: %s (%.2f collected)",
			html.EscapeString(tr.FundName), tr.Amount)
	default:
		return fmt.Sprintf("%s: %s", tr.Kind, title)
	}
}

// FormatGroups renders the task overview.
func FormatGroups(g status.Groups) string {
	var b strings.Builder
	b.WriteString("📋 <b>Tasks</b>\n")
	section := func(name string, tasks []model.Task) {
		if len(tasks) == 0 {
			return
		}
		b.WriteString(fmt.Sprintf("\n<b>%s</b>\n", name))
		for _, t := range tasks {
			b.WriteString(fmt.Sprintf("• %s [%s] %.2f due %s\n",
				html.EscapeString(t.Title), shortID(t.ID), t.Stake, t.EndAt.Format("Mon 02 Jan 15:04")))
		}
	}
	section("Overdue", g.Overdue)
	section("Today", g.Today)
	section("Tomorrow", g.Tomorrow)
	section("This week", g.ThisWeek)
	section("Later", g.Later)
	if len(g.Completed) > 0 {
		b.WriteString(fmt.Sprintf("\n✅ %d completed\n", len(g.Completed)))
	}
	return b.String()
}

// FormatLedger renders a list's entries for a month.
func FormatLedger(month string, entries []model.LedgerEntry, names map[string]string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💸 <b>Ledger</b> | %s\n\n", month))
	var cents int64
	n := 0
	for _, e := range entries {
		if e.Month != month {
			continue
		}
		n++
		cents += ledger.ToCents(e.Amount)
		b.WriteString(fmt.Sprintf("%s  %-12s %6.2f  %s\n",
			e.Date.Format("02 Jan"), html.EscapeString(displayName(names[e.UserID], e.UserID)),
			e.Amount, html.EscapeString(e.TaskTitle)))
	}
	if n == 0 {
		b.WriteString("No charges.\n")
	}
	b.WriteString(fmt.Sprintf("\nTotal: %.2f", float64(cents)/100))
	return b.String()
}

// FormatFunds renders fund target progress.
func FormatFunds(targets []model.FundTarget) string {
	var b strings.Builder
	b.WriteString("🏦 <b>Funds</b>\n\n")
	for _, t := range targets {
		if !t.Active {
			continue
		}
		collected := float64(t.TotalCollectedCents) / 100
		if t.TargetCents != nil {
			b.WriteString(fmt.Sprintf("%s: %.2f / %.2f (%.0f%%)\n", html.EscapeString(t.Name),
				collected, float64(*t.TargetCents)/100, fund.Progress(&t)*100))
		} else {
			b.WriteString(fmt.Sprintf("%s: %.2f\n", html.EscapeString(t.Name), collected))
		}
	}
	return b.String()
}

// FormatMonthlyReport renders the per-user totals of a finished month.
func FormatMonthlyReport(month string, rows []ledger.UserTotal, targets []model.FundTarget, names map[string]string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Monthly summary</b> | %s\n\n", month))
	if len(rows) == 0 {
		b.WriteString("Nobody paid a stake. 🎉\n")
	}
	var cents int64
	for _, r := range rows {
		cents += ledger.ToCents(r.Amount)
		b.WriteString(fmt.Sprintf("%s: %.2f (%d)\n", html.EscapeString(displayName(names[r.UserID], r.UserID)), r.Amount, r.Count))
	}
	b.WriteString(fmt.Sprintf("\nTotal: %.2f\n\n", float64(cents)/100))
	b.WriteString(FormatFunds(targets))
	return b.String()
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
