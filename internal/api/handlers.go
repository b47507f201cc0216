package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"StakeHouse/internal/fund"
	"StakeHouse/internal/ledger"
	"StakeHouse/internal/model"
	"StakeHouse/internal/store"
)

// Handlers serves the API from a store.
type Handlers struct {
	Store *store.Store
}

// GroupedTasks handles GET /api/v1/tasks/grouped
func (h *Handlers) GroupedTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.Groups())
}

// CreateTask handles POST /api/v1/tasks
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[store.NewTask](w, r)
	if !ok {
		return
	}
	task, err := h.Store.CreateTask(req)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// GetTask handles GET /api/v1/tasks/{id}
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.Store.Task(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// CompleteTask handles POST /api/v1/tasks/{id}/complete
func (h *Handlers) CompleteTask(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.Store.CompleteTask(chi.URLParam(r, "id")))
}

// FailTask handles POST /api/v1/tasks/{id}/fail
func (h *Handlers) FailTask(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.Store.FailTask(chi.URLParam(r, "id")))
}

// PendingFailure handles GET /api/v1/failure/pending
func (h *Handlers) PendingFailure(w http.ResponseWriter, _ *http.Request) {
	p := h.Store.PendingFailure()
	if p == nil {
		writeStoreError(w, store.ErrNoPendingFailure)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UseJoker handles POST /api/v1/failure/joker
func (h *Handlers) UseJoker(w http.ResponseWriter, _ *http.Request) {
	h.respond(w)(h.Store.UseJoker())
}

// PayStake handles POST /api/v1/failure/pay
func (h *Handlers) PayStake(w http.ResponseWriter, _ *http.Request) {
	h.respond(w)(h.Store.PayStake())
}

// Undo handles POST /api/v1/undo
func (h *Handlers) Undo(w http.ResponseWriter, _ *http.Request) {
	h.respond(w)(h.Store.UndoFailTask())
}

func (h *Handlers) respond(w http.ResponseWriter) func(store.Outcome, error) {
	return func(out store.Outcome, err error) {
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type ledgerResponse struct {
	ListID  string              `json:"list_id"`
	Month   string              `json:"month,omitempty"`
	Total   float64             `json:"total"`
	Entries []model.LedgerEntry `json:"entries"`
}

// ListLedger handles GET /api/v1/lists/{id}/ledger?month=YYYY-MM
func (h *Handlers) ListLedger(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "id")
	month := r.URL.Query().Get("month")
	if month != "" && !validMonth(month) {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	resp := ledgerResponse{ListID: listID, Month: month, Entries: []model.LedgerEntry{}}
	var cents int64
	for _, e := range h.Store.Ledger(listID) {
		if month != "" && e.Month != month {
			continue
		}
		cents += ledger.ToCents(e.Amount)
		resp.Entries = append(resp.Entries, e)
	}
	resp.Total = float64(cents) / 100
	writeJSON(w, http.StatusOK, resp)
}

// MonthlyTotals handles GET /api/v1/lists/{id}/months/{month}/totals
func (h *Handlers) MonthlyTotals(w http.ResponseWriter, r *http.Request) {
	month := chi.URLParam(r, "month")
	if !validMonth(month) {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}
	writeJSON(w, http.StatusOK, h.Store.MonthlyTotals(chi.URLParam(r, "id"), month))
}

// UserMonthlyTotal handles GET /api/v1/users/{id}/months/{month}/total
func (h *Handlers) UserMonthlyTotal(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	month := chi.URLParam(r, "month")
	if !validMonth(month) {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}
	if _, err := h.Store.User(userID); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"month":   month,
		"total":   h.Store.UserMonthlyTotal(userID, month),
	})
}

// ListUsers handles GET /api/v1/users
func (h *Handlers) ListUsers(w http.ResponseWriter, _ *http.Request) {
	users := h.Store.Users()
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

type createUserRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CreateUser handles POST /api/v1/users
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[createUserRequest](w, r)
	if !ok {
		return
	}
	u, err := h.Store.AddUser(req.Name, req.Color)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

type fundResponse struct {
	model.FundTarget
	Progress float64 `json:"progress"`
}

// ListFunds handles GET /api/v1/funds
func (h *Handlers) ListFunds(w http.ResponseWriter, _ *http.Request) {
	targets := h.Store.FundTargets()
	out := make([]fundResponse, 0, len(targets))
	for i := range targets {
		out = append(out, fundResponse{FundTarget: targets[i], Progress: fund.Progress(&targets[i])})
	}
	writeJSON(w, http.StatusOK, out)
}

type createFundRequest struct {
	ListID      string `json:"list_id"`
	Name        string `json:"name"`
	TargetCents *int64 `json:"target_cents"`
}

// CreateFund handles POST /api/v1/funds
func (h *Handlers) CreateFund(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[createFundRequest](w, r)
	if !ok {
		return
	}
	f, err := h.Store.AddFundTarget(req.ListID, req.Name, req.TargetCents)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// DeactivateFund handles POST /api/v1/funds/{id}/deactivate
func (h *Handlers) DeactivateFund(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeactivateFundTarget(chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validMonth(month string) bool {
	_, err := time.Parse(ledger.MonthLayout, month)
	return err == nil
}
