package model

import "time"

// LedgerEntry is a single stake charge caused by a task outcome.
type LedgerEntry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	TaskID       string    `json:"task_id"`
	TaskTitle    string    `json:"task_title"`
	ListID       string    `json:"list_id"`
	Amount       float64   `json:"amount"`
	Date         time.Time `json:"date"`
	Month        string    `json:"month"` // YYYY-MM
	FundTargetID string    `json:"fund_target_id,omitempty"`
}
