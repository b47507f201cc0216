// Package api exposes groupings, ledger aggregates and the use-cases over
// HTTP/JSON.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter returns the chi router serving /api/v1.
func NewRouter(h *Handlers) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	MountRoutes(r, h)
	return r
}

// MountRoutes registers all API routes on r.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Tasks
		r.Get("/tasks/grouped", h.GroupedTasks)
		r.Post("/tasks", h.CreateTask)
		r.Get("/tasks/{id}", h.GetTask)
		r.Post("/tasks/{id}/complete", h.CompleteTask)
		r.Post("/tasks/{id}/fail", h.FailTask)

		// Failure decision and undo
		r.Get("/failure/pending", h.PendingFailure)
		r.Post("/failure/joker", h.UseJoker)
		r.Post("/failure/pay", h.PayStake)
		r.Post("/undo", h.Undo)

		// Ledger
		r.Get("/lists/{id}/ledger", h.ListLedger)
		r.Get("/lists/{id}/months/{month}/totals", h.MonthlyTotals)
		r.Get("/users/{id}/months/{month}/total", h.UserMonthlyTotal)

		// Registry
		r.Get("/users", h.ListUsers)
		r.Post("/users", h.CreateUser)
		r.Get("/funds", h.ListFunds)
		r.Post("/funds", h.CreateFund)
		r.Post("/funds/{id}/deactivate", h.DeactivateFund)
	})
}
