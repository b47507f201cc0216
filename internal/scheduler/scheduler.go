package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"StakeHouse/internal/clock"
	"StakeHouse/internal/ledger"
	"StakeHouse/internal/notifier"
	"StakeHouse/internal/store"
)

// Scheduler drives the periodic status tick and the monthly ledger report.
type Scheduler struct {
	Cron        *cron.Cron
	Store       *store.Store
	Broadcaster notifier.Broadcaster
	Clock       clock.Clock
	ListID      string
	Ctx         context.Context

	ticking atomic.Bool
}

// NewScheduler creates a Scheduler. Jobs still running when their next
// slot arrives are skipped rather than queued.
func NewScheduler(ctx context.Context, st *store.Store, b notifier.Broadcaster, c clock.Clock, listID string) *Scheduler {
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		Store:       st,
		Broadcaster: b,
		Clock:       c,
		ListID:      listID,
		Ctx:         ctx,
	}
}

// RegisterAll registers the tick and monthly report jobs.
func (s *Scheduler) RegisterAll(tickCron, monthlyCron string) error {
	if _, err := s.Cron.AddFunc(tickCron, func() { _, _ = s.Tick() }); err != nil {
		return fmt.Errorf("register tick: %w", err)
	}
	if monthlyCron == "" {
		return nil
	}
	if _, err := s.Cron.AddFunc(monthlyCron, s.monthlyTask); err != nil {
		return fmt.Errorf("register monthly report: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// Tick applies one status pass at the clock's current instant. A call that
// overlaps a running pass returns immediately with an empty result.
func (s *Scheduler) Tick() (store.TickResult, error) {
	if !s.ticking.CompareAndSwap(false, true) {
		log.Println("[WARN] tick skipped: previous tick still running")
		return store.TickResult{}, nil
	}
	defer s.ticking.Store(false)

	res, err := s.Store.ApplyTick(s.Clock.Now())
	if err != nil {
		log.Printf("[ERROR] tick: %v", err)
	}
	return res, err
}

// MonthlyReport renders the summary of month for the household list.
func (s *Scheduler) MonthlyReport(month string) string {
	rows := s.Store.MonthlyTotals(s.ListID, month)
	return notifier.FormatMonthlyReport(month, rows, s.Store.FundTargets(), s.Store.UserNames())
}

func (s *Scheduler) monthlyTask() {
	month := PreviousMonth(s.Clock.Now())
	log.Printf("[INFO] running monthly report for %s", month)
	s.trySend(s.MonthlyReport(month))
}

// PreviousMonth returns the month bucket before the one now falls into.
func PreviousMonth(now time.Time) string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return ledger.MonthBucket(first.AddDate(0, 0, -1))
}

func (s *Scheduler) trySend(text string) {
	if s.Broadcaster == nil {
		return
	}
	if err := s.Broadcaster.Broadcast(s.Ctx, text); err != nil {
		log.Printf("[ERROR] send report: %v", err)
	}
}
