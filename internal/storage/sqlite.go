package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"StakeHouse/internal/model"
)

// SQLite persists the snapshot to a SQLite database, one table per collection.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLite opens (or creates) the SQLite database and runs migrations.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the CLI read while the server writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite storage opened: %s", dbPath)
	return s, nil
}

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			position             INTEGER NOT NULL,
			id                   TEXT PRIMARY KEY,
			list_id              TEXT,
			title                TEXT NOT NULL,
			category             TEXT,
			priority             TEXT,
			start_at             INTEGER,
			end_at               INTEGER NOT NULL,
			grace_period_minutes INTEGER NOT NULL,
			stake                REAL NOT NULL,
			status               TEXT NOT NULL,
			previous_status      TEXT,
			assignee_ids         TEXT NOT NULL,
			fund_target_id       TEXT,
			created_at           INTEGER,
			completed_at         INTEGER,
			failed_at            INTEGER
		)`,

		`CREATE TABLE IF NOT EXISTS ledger_entries (
			position       INTEGER NOT NULL,
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL,
			task_id        TEXT NOT NULL,
			task_title     TEXT,
			list_id        TEXT,
			amount         REAL NOT NULL,
			date           INTEGER NOT NULL,
			month          TEXT NOT NULL,
			fund_target_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_month ON ledger_entries(month)`,

		`CREATE TABLE IF NOT EXISTS users (
			position             INTEGER NOT NULL,
			id                   TEXT PRIMARY KEY,
			name                 TEXT,
			color                TEXT,
			current_streak_count INTEGER NOT NULL,
			joker_count          INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS fund_targets (
			position              INTEGER NOT NULL,
			id                    TEXT PRIMARY KEY,
			list_id               TEXT,
			name                  TEXT NOT NULL,
			target_cents          INTEGER,
			total_collected_cents INTEGER NOT NULL,
			active                INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS undo_action (
			id              INTEGER PRIMARY KEY CHECK (id = 1),
			task_id         TEXT NOT NULL,
			ledger_entry_id TEXT,
			created_at      INTEGER NOT NULL,
			expires_at      INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT
		)`,
	}

	for _, st := range stmts {
		if _, err := s.db.Exec(st); err != nil {
			return fmt.Errorf("exec %q: %w", st[:40], err)
		}
	}
	return nil
}

// Save replaces every table's contents inside a single transaction.
func (s *SQLite) Save(state *model.State) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"tasks", "ledger_entries", "users", "fund_targets", "undo_action"} {
		if _, err = tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, t := range state.Tasks {
		assignees, mErr := json.Marshal(t.AssigneeIDs)
		if mErr != nil {
			return fmt.Errorf("encode assignees: %w", mErr)
		}
		_, err = tx.Exec(`INSERT INTO tasks
			(position, id, list_id, title, category, priority, start_at, end_at,
			 grace_period_minutes, stake, status, previous_status, assignee_ids,
			 fund_target_id, created_at, completed_at, failed_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			i, t.ID, t.ListID, t.Title, t.Category, string(t.Priority),
			unixNano(t.StartAt), unixNano(t.EndAt), t.GracePeriodMinutes, t.Stake,
			string(t.Status), string(t.PreviousStatus), string(assignees),
			t.FundTargetID, unixNano(t.CreatedAt), nullTime(t.CompletedAt), nullTime(t.FailedAt),
		)
		if err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}

	for i, e := range state.LedgerEntries {
		_, err = tx.Exec(`INSERT INTO ledger_entries
			(position, id, user_id, task_id, task_title, list_id, amount, date, month, fund_target_id)
			VALUES (?,?,?,?,?,?,?,?,?,?)`,
			i, e.ID, e.UserID, e.TaskID, e.TaskTitle, e.ListID, e.Amount,
			unixNano(e.Date), e.Month, e.FundTargetID,
		)
		if err != nil {
			return fmt.Errorf("insert ledger entry %s: %w", e.ID, err)
		}
	}

	for i, u := range state.Users {
		_, err = tx.Exec(`INSERT INTO users
			(position, id, name, color, current_streak_count, joker_count)
			VALUES (?,?,?,?,?,?)`,
			i, u.ID, u.Name, u.Color, u.CurrentStreakCount, u.JokerCount,
		)
		if err != nil {
			return fmt.Errorf("insert user %s: %w", u.ID, err)
		}
	}

	for i, f := range state.FundTargets {
		var target sql.NullInt64
		if f.TargetCents != nil {
			target = sql.NullInt64{Int64: *f.TargetCents, Valid: true}
		}
		_, err = tx.Exec(`INSERT INTO fund_targets
			(position, id, list_id, name, target_cents, total_collected_cents, active)
			VALUES (?,?,?,?,?,?,?)`,
			i, f.ID, f.ListID, f.Name, target, f.TotalCollectedCents, f.Active,
		)
		if err != nil {
			return fmt.Errorf("insert fund target %s: %w", f.ID, err)
		}
	}

	if u := state.UndoAction; u != nil {
		_, err = tx.Exec(`INSERT INTO undo_action
			(id, task_id, ledger_entry_id, created_at, expires_at)
			VALUES (1,?,?,?,?)`,
			u.TaskID, u.LedgerEntryID, unixNano(u.CreatedAt), unixNano(u.ExpiresAt),
		)
		if err != nil {
			return fmt.Errorf("insert undo action: %w", err)
		}
	}

	if _, err = tx.Exec(`INSERT INTO meta (key, value) VALUES ('updated_at', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		state.UpdatedAt.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}

	return tx.Commit()
}

// Load reads the snapshot back in stored order.
func (s *SQLite) Load() (*model.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &model.State{}

	rows, err := s.db.Query(`SELECT id, list_id, title, category, priority, start_at, end_at,
		grace_period_minutes, stake, status, previous_status, assignee_ids, fund_target_id,
		created_at, completed_at, failed_at FROM tasks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	for rows.Next() {
		var (
			t                           model.Task
			priority, status, prev, ids string
			startAt, endAt, createdAt   int64
			completedAt, failedAt       sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.ListID, &t.Title, &t.Category, &priority, &startAt, &endAt,
			&t.GracePeriodMinutes, &t.Stake, &status, &prev, &ids, &t.FundTargetID,
			&createdAt, &completedAt, &failedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if err := json.Unmarshal([]byte(ids), &t.AssigneeIDs); err != nil {
			rows.Close()
			return nil, fmt.Errorf("decode assignees of %s: %w", t.ID, err)
		}
		t.Priority = model.Priority(priority)
		t.Status = model.Status(status)
		t.PreviousStatus = model.Status(prev)
		t.StartAt = fromUnixNano(startAt)
		t.EndAt = fromUnixNano(endAt)
		t.CreatedAt = fromUnixNano(createdAt)
		t.CompletedAt = fromNull(completedAt)
		t.FailedAt = fromNull(failedAt)
		state.Tasks = append(state.Tasks, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`SELECT id, user_id, task_id, task_title, list_id, amount, date, month,
		fund_target_id FROM ledger_entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	for rows.Next() {
		var (
			e    model.LedgerEntry
			date int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.TaskID, &e.TaskTitle, &e.ListID, &e.Amount,
			&date, &e.Month, &e.FundTargetID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Date = fromUnixNano(date)
		state.LedgerEntries = append(state.LedgerEntries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`SELECT id, name, color, current_streak_count, joker_count
		FROM users ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Color, &u.CurrentStreakCount, &u.JokerCount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan user: %w", err)
		}
		state.Users = append(state.Users, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`SELECT id, list_id, name, target_cents, total_collected_cents, active
		FROM fund_targets ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query fund targets: %w", err)
	}
	for rows.Next() {
		var (
			f      model.FundTarget
			target sql.NullInt64
		)
		if err := rows.Scan(&f.ID, &f.ListID, &f.Name, &target, &f.TotalCollectedCents, &f.Active); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan fund target: %w", err)
		}
		if target.Valid {
			v := target.Int64
			f.TargetCents = &v
		}
		state.FundTargets = append(state.FundTargets, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var (
		u                    model.UndoAction
		createdAt, expiresAt int64
	)
	err = s.db.QueryRow(`SELECT task_id, ledger_entry_id, created_at, expires_at FROM undo_action WHERE id = 1`).
		Scan(&u.TaskID, &u.LedgerEntryID, &createdAt, &expiresAt)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("query undo action: %w", err)
	default:
		u.CreatedAt = fromUnixNano(createdAt)
		u.ExpiresAt = fromUnixNano(expiresAt)
		state.UndoAction = &u
	}

	var updated string
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'updated_at'`).Scan(&updated); err == nil {
		state.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	}

	return state, nil
}

func (s *SQLite) Close() error {
	log.Println("[INFO] closing sqlite storage")
	return s.db.Close()
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNull(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(0, n.Int64)
	return &t
}
