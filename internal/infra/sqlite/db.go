// Package sqlite provides SQLite-based persistent storage for BitBond.
// Uses WAL mode for concurrent reads and crash-safe writes. Multi-row
// escrow mutations run inside a Tx so they apply all-or-nothing.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/bitbond-network/bitbond/internal/domain"
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Tx is a transaction exposing the same typed helpers as DB.
type Tx struct {
	tx *sql.Tx
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// WithTx runs fn inside a transaction, committing on nil and rolling
// back on error or panic.
func (d *DB) WithTx(fn func(*Tx) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Escrow tasks. Never deleted: terminal tasks are the audit trail.
		`CREATE TABLE IF NOT EXISTS tasks (
			id                  INTEGER PRIMARY KEY,
			creator             TEXT NOT NULL,
			buddy               TEXT NOT NULL,
			title               TEXT NOT NULL,
			description         TEXT NOT NULL,
			stake_amount        INTEGER NOT NULL,
			deadline            INTEGER NOT NULL,
			status              TEXT NOT NULL,
			verified            BOOLEAN NOT NULL DEFAULT 0,
			created_at          INTEGER NOT NULL,
			marked_completed_at INTEGER,
			verification_time   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_creator ON tasks(creator)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_buddy ON tasks(buddy)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,

		// Per-principal lifetime counters, created lazily on first task.
		`CREATE TABLE IF NOT EXISTS user_stats (
			principal       TEXT PRIMARY KEY,
			tasks_created   INTEGER NOT NULL DEFAULT 0,
			tasks_completed INTEGER NOT NULL DEFAULT 0,
			tasks_failed    INTEGER NOT NULL DEFAULT 0,
			total_staked    INTEGER NOT NULL DEFAULT 0
		)`,

		// Double-entry escrow ledger (credit_ledger lineage).
		`CREATE TABLE IF NOT EXISTS escrow_ledger (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			type       TEXT NOT NULL,
			entry_type TEXT NOT NULL,
			account    TEXT NOT NULL,
			amount     INTEGER NOT NULL,
			task_id    INTEGER,
			txid       TEXT,
			balance    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_ts ON escrow_ledger(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_account ON escrow_ledger(account)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_task ON escrow_ledger(task_id)`,

		// Chain/contract state: block height, next task id.
		`CREATE TABLE IF NOT EXISTS chain_state (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Task Repository ────────────────────────────────────────────────────────

const taskColumns = `id, creator, buddy, title, description, stake_amount,
	deadline, status, verified, created_at, marked_completed_at, verification_time`

// Task retrieves a single task by id. Returns (nil, nil) when absent;
// a missing task is expected, not exceptional.
func (d *DB) Task(id uint64) (*domain.Task, error) { return getTask(d.db, id) }

// Task retrieves a task inside the transaction.
func (t *Tx) Task(id uint64) (*domain.Task, error) { return getTask(t.tx, id) }

func getTask(q querier, id uint64) (*domain.Task, error) {
	row := q.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// InsertTask stores a freshly created task.
func (t *Tx) InsertTask(task domain.Task) error {
	_, err := t.tx.Exec(
		`INSERT INTO tasks (id, creator, buddy, title, description, stake_amount,
			deadline, status, verified, created_at, marked_completed_at, verification_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, string(task.Creator), string(task.Buddy), task.Title, task.Description,
		task.StakeAmount, task.Deadline, string(task.Status), task.Verified,
		task.CreatedAt, nullableHeight(task.MarkedCompletedAt), nullableHeight(task.VerificationTime),
	)
	return err
}

// ResolveTask records a terminal resolution. The verified flag never
// goes back to false after this.
func (t *Tx) ResolveTask(id uint64, status domain.TaskStatus, verificationTime uint64) error {
	_, err := t.tx.Exec(
		`UPDATE tasks SET status = ?, verified = 1, verification_time = ? WHERE id = ?`,
		string(status), verificationTime, id,
	)
	return err
}

// MarkTaskCompleted moves an active task into pending verification.
func (t *Tx) MarkTaskCompleted(id uint64, height uint64) error {
	_, err := t.tx.Exec(
		`UPDATE tasks SET status = ?, marked_completed_at = ? WHERE id = ?`,
		string(domain.TaskPendingVerification), height, id,
	)
	return err
}

// TasksByCreator returns all tasks created by a principal, newest first.
func (d *DB) TasksByCreator(p domain.Principal) ([]domain.Task, error) {
	return listTasks(d.db, `SELECT `+taskColumns+` FROM tasks WHERE creator = ? ORDER BY id DESC`, string(p))
}

// TasksByBuddy returns all tasks where a principal is the buddy, newest first.
func (d *DB) TasksByBuddy(p domain.Principal) ([]domain.Task, error) {
	return listTasks(d.db, `SELECT `+taskColumns+` FROM tasks WHERE buddy = ? ORDER BY id DESC`, string(p))
}

// UnresolvedStakeTotal sums stakes of all tasks not yet verified.
// The escrow account balance must equal this at all times.
func (d *DB) UnresolvedStakeTotal() (int64, error) {
	var total sql.NullInt64
	err := d.db.QueryRow(`SELECT SUM(stake_amount) FROM tasks WHERE verified = 0`).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}

func listTasks(q querier, query string, args ...any) ([]domain.Task, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// ─── User Stats ─────────────────────────────────────────────────────────────

// UserStats returns the stats record for a principal, zero-valued if the
// principal has never created a task.
func (d *DB) UserStats(p domain.Principal) (domain.UserStats, error) {
	return getUserStats(d.db, p)
}

// UserStats returns the stats record inside the transaction.
func (t *Tx) UserStats(p domain.Principal) (domain.UserStats, error) {
	return getUserStats(t.tx, p)
}

func getUserStats(q querier, p domain.Principal) (domain.UserStats, error) {
	var s domain.UserStats
	err := q.QueryRow(
		`SELECT tasks_created, tasks_completed, tasks_failed, total_staked
		 FROM user_stats WHERE principal = ?`, string(p),
	).Scan(&s.TasksCreated, &s.TasksCompleted, &s.TasksFailed, &s.TotalStaked)
	if err == sql.ErrNoRows {
		return domain.UserStats{}, nil
	}
	return s, err
}

// BumpUserStats adds the deltas to a principal's counters, creating the
// record if absent.
func (t *Tx) BumpUserStats(p domain.Principal, created, completed, failed uint64, staked int64) error {
	_, err := t.tx.Exec(
		`INSERT INTO user_stats (principal, tasks_created, tasks_completed, tasks_failed, total_staked)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(principal) DO UPDATE SET
			tasks_created=tasks_created+excluded.tasks_created,
			tasks_completed=tasks_completed+excluded.tasks_completed,
			tasks_failed=tasks_failed+excluded.tasks_failed,
			total_staked=total_staked+excluded.total_staked`,
		string(p), created, completed, failed, staked,
	)
	return err
}

// ─── Escrow Ledger ──────────────────────────────────────────────────────────

// InsertLedgerEntry adds an escrow ledger entry.
func (t *Tx) InsertLedgerEntry(entry domain.LedgerEntry) (int64, error) {
	res, err := t.tx.Exec(
		`INSERT INTO escrow_ledger (timestamp, type, entry_type, account, amount, task_id, txid, balance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Timestamp.Unix(), string(entry.Type), string(entry.EntryType),
		entry.Account, entry.Amount, nullableHeight(entry.TaskID), entry.TxID, entry.Balance,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AccountBalance returns the current balance for an account: the running
// balance of its most recent ledger entry.
func (d *DB) AccountBalance(account string) (int64, error) {
	return getBalance(d.db, account)
}

// AccountBalance returns the balance inside the transaction.
func (t *Tx) AccountBalance(account string) (int64, error) {
	return getBalance(t.tx, account)
}

func getBalance(q querier, account string) (int64, error) {
	var balance sql.NullInt64
	err := q.QueryRow(
		`SELECT balance FROM escrow_ledger WHERE account = ? ORDER BY id DESC LIMIT 1`,
		account,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance.Int64, nil
}

// LedgerEntries returns recent ledger entries for an account.
func (d *DB) LedgerEntries(account string, limit int) ([]domain.LedgerEntry, error) {
	rows, err := d.db.Query(
		`SELECT id, timestamp, type, entry_type, account, amount, task_id, txid, balance
		 FROM escrow_ledger WHERE account = ? ORDER BY id DESC LIMIT ?`,
		account, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var ts int64
		var taskID sql.NullInt64
		var txid sql.NullString
		err := rows.Scan(&e.ID, &ts, &e.Type, &e.EntryType, &e.Account,
			&e.Amount, &taskID, &txid, &e.Balance)
		if err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0)
		if taskID.Valid {
			e.TaskID = uint64(taskID.Int64)
		}
		e.TxID = txid.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LedgerSums returns the total debit and credit amounts across the whole
// ledger. Equal sums mean the double-entry invariant holds.
func (d *DB) LedgerSums() (debits, credits int64, err error) {
	var deb, cred sql.NullInt64
	err = d.db.QueryRow(
		`SELECT
			SUM(CASE WHEN entry_type = ? THEN amount ELSE 0 END),
			SUM(CASE WHEN entry_type = ? THEN amount ELSE 0 END)
		 FROM escrow_ledger`,
		string(domain.EntryDebit), string(domain.EntryCredit),
	).Scan(&deb, &cred)
	return deb.Int64, cred.Int64, err
}

// ─── Chain State ────────────────────────────────────────────────────────────

// GetState retrieves a value from chain_state, "" if absent.
func (d *DB) GetState(key string) (string, error) { return getState(d.db, key) }

// GetState retrieves a value inside the transaction.
func (t *Tx) GetState(key string) (string, error) { return getState(t.tx, key) }

func getState(q querier, key string) (string, error) {
	var value string
	err := q.QueryRow(`SELECT value FROM chain_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetState stores a key-value pair in chain_state.
func (d *DB) SetState(key, value string) error { return setState(d.db, key, value) }

// SetState stores a key-value pair inside the transaction.
func (t *Tx) SetState(key, value string) error { return setState(t.tx, key, value) }

func setState(q querier, key, value string) error {
	_, err := q.Exec(
		`INSERT INTO chain_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	return err
}

const nextTaskIDKey = "next_task_id"

// NextTaskID returns the id the next created task will receive. Starts at 1.
func (d *DB) NextTaskID() (uint64, error) { return nextTaskID(d.db) }

// NextTaskID returns the allocation counter inside the transaction.
func (t *Tx) NextTaskID() (uint64, error) { return nextTaskID(t.tx) }

func nextTaskID(q querier) (uint64, error) {
	v, err := getState(q, nextTaskIDKey)
	if err != nil {
		return 0, err
	}
	if v == "" {
		return 1, nil
	}
	return strconv.ParseUint(v, 10, 64)
}

// AllocateTaskID returns the next task id and advances the counter.
// Ids are monotonic and never reused, even across failed creations:
// the allocation only commits with the rest of the transaction.
func (t *Tx) AllocateTaskID() (uint64, error) {
	id, err := nextTaskID(t.tx)
	if err != nil {
		return 0, err
	}
	if err := setState(t.tx, nextTaskIDKey, strconv.FormatUint(id+1, 10)); err != nil {
		return 0, err
	}
	return id, nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*domain.Task, error) {
	var t domain.Task
	var creator, buddy, status string
	var marked, verifTime sql.NullInt64

	err := s.Scan(&t.ID, &creator, &buddy, &t.Title, &t.Description,
		&t.StakeAmount, &t.Deadline, &status, &t.Verified,
		&t.CreatedAt, &marked, &verifTime)
	if err == sql.ErrNoRows {
		return nil, nil // Not found, no error
	}
	if err != nil {
		return nil, err
	}

	t.Creator = domain.Principal(creator)
	t.Buddy = domain.Principal(buddy)
	t.Status = domain.TaskStatus(status)
	if marked.Valid {
		t.MarkedCompletedAt = uint64(marked.Int64)
	}
	if verifTime.Valid {
		t.VerificationTime = uint64(verifTime.Int64)
	}
	return &t, nil
}

func nullableHeight(h uint64) sql.NullInt64 {
	if h == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(h), Valid: true}
}
