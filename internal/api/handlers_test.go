package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"StakeHouse/internal/clock"
	"StakeHouse/internal/model"
	"StakeHouse/internal/notifier"
	"StakeHouse/internal/status"
	"StakeHouse/internal/storage"
	"StakeHouse/internal/store"
)

var t0 = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) (chi.Router, *store.Store, *clock.Fake) {
	t.Helper()
	fc := clock.NewFake(t0)
	st, err := store.New(storage.NewNoop(), notifier.Noop{}, fc)
	if err != nil {
		t.Fatal(err)
	}
	return NewRouter(&Handlers{Store: st}), st, fc
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func seed(t *testing.T, r http.Handler) (model.User, model.Task) {
	t.Helper()
	w := do(t, r, "POST", "/api/v1/users", map[string]string{"name": "Ada"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create user: %d %s", w.Code, w.Body.String())
	}
	u := decode[model.User](t, w)

	w = do(t, r, "POST", "/api/v1/tasks", store.NewTask{
		ListID: "home", Title: "Mop floor", EndAt: t0.Add(time.Hour), Stake: 4, AssigneeIDs: []string{u.ID},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create task: %d %s", w.Code, w.Body.String())
	}
	return u, decode[model.Task](t, w)
}

func TestHealthz(t *testing.T) {
	r, _, _ := newTestRouter(t)
	if w := do(t, r, "GET", "/healthz", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGroupedTasks(t *testing.T) {
	r, _, _ := newTestRouter(t)
	_, task := seed(t, r)

	w := do(t, r, "GET", "/api/v1/tasks/grouped", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	g := decode[status.Groups](t, w)
	if len(g.Today) != 1 || g.Today[0].ID != task.ID {
		t.Errorf("groups = %+v", g)
	}
}

func TestCreateTask_BadRequest(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := do(t, r, "POST", "/api/v1/tasks", store.NewTask{Title: "", EndAt: t0})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if e := decode[errorResponse](t, w); e.Error != "title is required" {
		t.Errorf("error = %q", e.Error)
	}

	req := httptest.NewRequest("POST", "/api/v1/tasks", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: expected 400, got %d", rec.Code)
	}
}

func TestFailPayUndoFlow(t *testing.T) {
	r, st, fc := newTestRouter(t)
	u, task := seed(t, r)

	w := do(t, r, "POST", "/api/v1/tasks/"+task.ID+"/fail", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("fail: %d %s", w.Code, w.Body.String())
	}
	out := decode[store.Outcome](t, w)
	if out.Task.Status != model.StatusFailedStakePaid || out.Undo == nil {
		t.Fatalf("outcome = %+v", out)
	}

	w = do(t, r, "GET", "/api/v1/users/"+u.ID+"/months/2026-09/total", nil)
	if got := decode[map[string]any](t, w)["total"]; got != 4.0 {
		t.Errorf("monthly total = %v, want 4", got)
	}

	fc.Advance(2 * time.Second)
	w = do(t, r, "POST", "/api/v1/undo", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("undo: %d %s", w.Code, w.Body.String())
	}
	if got, _ := st.Task(task.ID); got.Status != model.StatusPending {
		t.Errorf("status after undo = %s", got.Status)
	}

	if w := do(t, r, "POST", "/api/v1/undo", nil); w.Code != http.StatusNotFound {
		t.Errorf("second undo: expected 404, got %d", w.Code)
	}
}

func TestJokerDecision(t *testing.T) {
	r, st, _ := newTestRouter(t)
	u, task := seed(t, r)

	if w := do(t, r, "GET", "/api/v1/failure/pending", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without pending decision, got %d", w.Code)
	}
	for i := 0; i < 10; i++ {
		tk, err := st.CreateTask(store.NewTask{Title: "Chore", EndAt: t0.Add(time.Hour), AssigneeIDs: []string{u.ID}})
		if err != nil {
			t.Fatal(err)
		}
		if w := do(t, r, "POST", "/api/v1/tasks/"+tk.ID+"/complete", nil); w.Code != http.StatusOK {
			t.Fatalf("complete: %d", w.Code)
		}
	}

	w := do(t, r, "POST", "/api/v1/tasks/"+task.ID+"/fail", nil)
	if out := decode[store.Outcome](t, w); !out.Staged {
		t.Fatalf("expected staged decision, got %+v", out)
	}
	w = do(t, r, "GET", "/api/v1/failure/pending", nil)
	if p := decode[model.PendingFailure](t, w); p.TaskID != task.ID || p.JokerCount != 1 {
		t.Errorf("pending = %+v", p)
	}

	w = do(t, r, "POST", "/api/v1/failure/joker", nil)
	if out := decode[store.Outcome](t, w); out.Task.Status != model.StatusFailedJokerUsed {
		t.Errorf("outcome = %+v", out)
	}
	if w := do(t, r, "POST", "/api/v1/failure/pay", nil); w.Code != http.StatusNotFound {
		t.Errorf("pay without decision: expected 404, got %d", w.Code)
	}
}

func TestLedgerAndFunds(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := do(t, r, "POST", "/api/v1/funds", map[string]any{"list_id": "home", "name": "Cinema", "target_cents": 400})
	if w.Code != http.StatusCreated {
		t.Fatalf("create fund: %d %s", w.Code, w.Body.String())
	}
	f := decode[model.FundTarget](t, w)

	u, _ := seed(t, r)
	w = do(t, r, "POST", "/api/v1/tasks", store.NewTask{
		ListID: "home", Title: "Bins", EndAt: t0.Add(time.Hour), Stake: 4, AssigneeIDs: []string{u.ID}, FundTargetID: f.ID,
	})
	tk := decode[model.Task](t, w)
	do(t, r, "POST", "/api/v1/tasks/"+tk.ID+"/fail", nil)

	w = do(t, r, "GET", "/api/v1/lists/home/ledger?month=2026-09", nil)
	l := decode[ledgerResponse](t, w)
	if len(l.Entries) != 1 || l.Total != 4 {
		t.Errorf("ledger = %+v", l)
	}
	if w := do(t, r, "GET", "/api/v1/lists/home/ledger?month=Sept", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad month: expected 400, got %d", w.Code)
	}

	w = do(t, r, "GET", "/api/v1/funds", nil)
	funds := decode[[]fundResponse](t, w)
	if len(funds) != 1 || funds[0].TotalCollectedCents != 400 || funds[0].Progress != 1 {
		t.Errorf("funds = %+v", funds)
	}

	if w := do(t, r, "POST", "/api/v1/funds/"+f.ID+"/deactivate", nil); w.Code != http.StatusNoContent {
		t.Errorf("deactivate: expected 204, got %d", w.Code)
	}
}

func TestNotFound(t *testing.T) {
	r, _, _ := newTestRouter(t)
	for _, path := range []string{"/api/v1/tasks/nope/complete", "/api/v1/tasks/nope/fail"} {
		if w := do(t, r, "POST", path, nil); w.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, w.Code)
		}
	}
	if w := do(t, r, "GET", "/api/v1/users/nope/months/2026-09/total", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown user: expected 404, got %d", w.Code)
	}
}
