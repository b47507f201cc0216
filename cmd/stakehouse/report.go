package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"StakeHouse/internal/fund"
	"StakeHouse/internal/ledger"
	"StakeHouse/internal/model"
	"StakeHouse/internal/status"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show open tasks grouped by due date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			state, err := loadState(cfg)
			if err != nil {
				return err
			}
			printGroups(status.Group(state.Tasks, time.Now()))
			return nil
		},
	}
}

func printGroups(g status.Groups) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	section := func(name string, tasks []model.Task) {
		if len(tasks) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s\n", name)
		for _, t := range tasks {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%.2f\t%s\n",
				t.ID[:min(8, len(t.ID))], t.Title, t.Priority, t.Stake, t.EndAt.Format("Mon 02 Jan 15:04"))
		}
	}
	section("Overdue", g.Overdue)
	section("Today", g.Today)
	section("Tomorrow", g.Tomorrow)
	section("This week", g.ThisWeek)
	section("Later", g.Later)
	fmt.Fprintf(w, "\n%d completed\n", len(g.Completed))
	w.Flush()
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show the charges of a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			month, _ := cmd.Flags().GetString("month")
			if month == "" {
				month = ledger.MonthBucket(time.Now())
			}
			if _, err := time.Parse(ledger.MonthLayout, month); err != nil {
				return fmt.Errorf("month must be YYYY-MM: %q", month)
			}
			state, err := loadState(cfg)
			if err != nil {
				return err
			}
			printLedger(state, cfg.Household.ListID, month)
			return nil
		},
	}
	cmd.Flags().StringP("month", "m", "", "month bucket, YYYY-MM (default current month)")
	return cmd
}

func printLedger(state *model.State, listID, month string) {
	names := make(map[string]string, len(state.Users))
	for _, u := range state.Users {
		names[u.ID] = u.Name
	}

	fmt.Printf("Ledger %s (%s)\n%s\n", listID, month, strings.Repeat("=", 40))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, e := range ledger.EntriesForList(state.LedgerEntries, listID) {
		if e.Month != month {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", e.Date.Format("02 Jan"), names[e.UserID], e.Amount, e.TaskTitle)
	}
	w.Flush()

	fmt.Println("\nPer member:")
	for _, row := range ledger.MonthlyTotalsByUser(state.LedgerEntries, listID, month) {
		fmt.Printf("  %-16s %8.2f  (%d)\n", names[row.UserID], row.Amount, row.Count)
	}
}

func fundsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "funds",
		Short: "Show fund target progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			state, err := loadState(cfg)
			if err != nil {
				return err
			}
			targets := state.FundTargets
			for i := range targets {
				t := &targets[i]
				if !t.Active {
					continue
				}
				collected := float64(t.TotalCollectedCents) / 100
				if t.TargetCents == nil {
					fmt.Printf("%-24s %8.2f\n", t.Name, collected)
					continue
				}
				fmt.Printf("%-24s %8.2f / %8.2f  %3.0f%%\n", t.Name, collected, float64(*t.TargetCents)/100, fund.Progress(t)*100)
			}
			return nil
		},
	}
}
